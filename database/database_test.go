// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/database/models"
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var (
	testStart  = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testOwner  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testPlayer = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testOther  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{
		Blob: database.BlobConfig{BlockCacheSize: 1 << 20},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func requestID(v uint64) oracle.RequestID {
	return oracle.RequestID(*uint256.NewInt(v))
}

// TestInMemorySqliteMultipleTransaction tests that our sqlite connection allows multiple
// concurrent transactions when using in-memory mode. This requires special URI flags, and
// this is mostly making sure that we don't lose them
func TestInMemorySqliteMultipleTransaction(t *testing.T) {
	db := newTestDatabase(t)
	doQuery := func(sleep time.Duration) error {
		txn := db.Metadata().Transaction()
		if result := txn.First(&models.RaffleRound{}); result.Error != nil {
			txn.Rollback()
			return result.Error
		}
		time.Sleep(sleep)
		if result := txn.Commit(); result.Error != nil {
			return result.Error
		}
		return nil
	}
	require.NoError(t, db.AddRound(raffle.WinnerPickedEvent{
		Winner:    testPlayer,
		Prize:     uint256.NewInt(1),
		RequestID: requestID(1),
		Round:     1,
		Players:   1,
	}, testStart))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		//nolint:errcheck
		doQuery(2 * time.Second)
	}()
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, doQuery(0))
	wg.Wait()
}

func TestRaffleSnapshotRoundTrip(t *testing.T) {
	testDefs := []struct {
		name     string
		snapshot raffle.Snapshot
	}{
		{
			name: "open empty",
			snapshot: raffle.Snapshot{
				State:         raffle.StateOpen,
				Players:       []common.Address{},
				Balance:       uint256.NewInt(0),
				LastTimestamp: testStart,
				Round:         1,
			},
		},
		{
			name: "open with players",
			snapshot: raffle.Snapshot{
				State:         raffle.StateOpen,
				Players:       []common.Address{testPlayer, testOther, testPlayer},
				Balance:       uint256.NewInt(30_000_000_000_000_000),
				LastTimestamp: testStart,
				LastWinner:    testOther,
				Round:         4,
			},
		},
		{
			name: "calculating",
			snapshot: raffle.Snapshot{
				State:   raffle.StateCalculating,
				Players: []common.Address{testPlayer},
				// Larger than 64 bits
				Balance:        new(uint256.Int).Lsh(uint256.NewInt(1), 100),
				LastTimestamp:  testStart,
				Round:          2,
				PendingRequest: func() *oracle.RequestID { id := requestID(77); return &id }(),
				RequestedAt:    testStart.Add(45 * time.Second),
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			db := newTestDatabase(t)
			loaded, err := db.LoadRaffleSnapshot()
			require.NoError(t, err)
			require.Nil(t, loaded)

			require.NoError(t, db.SaveRaffleSnapshot(testDef.snapshot))
			loaded, err = db.LoadRaffleSnapshot()
			require.NoError(t, err)
			require.NotNil(t, loaded)
			want := testDef.snapshot
			require.Equal(t, want.State, loaded.State)
			require.Equal(t, want.Players, loaded.Players)
			require.Equal(t, want.Balance.Dec(), loaded.Balance.Dec())
			require.True(t, want.LastTimestamp.Equal(loaded.LastTimestamp))
			require.Equal(t, want.LastWinner, loaded.LastWinner)
			require.Equal(t, want.Round, loaded.Round)
			if want.PendingRequest == nil {
				require.Nil(t, loaded.PendingRequest)
			} else {
				require.NotNil(t, loaded.PendingRequest)
				require.Equal(t, *want.PendingRequest, *loaded.PendingRequest)
				require.True(t, want.RequestedAt.Equal(loaded.RequestedAt))
			}
		})
	}
}

func TestRaffleSnapshotReplacesEntrants(t *testing.T) {
	db := newTestDatabase(t)
	first := raffle.Snapshot{
		State:         raffle.StateOpen,
		Players:       []common.Address{testPlayer, testOther},
		Balance:       uint256.NewInt(2),
		LastTimestamp: testStart,
		Round:         1,
	}
	require.NoError(t, db.SaveRaffleSnapshot(first))
	second := first
	second.Players = []common.Address{}
	second.Balance = uint256.NewInt(0)
	second.Round = 2
	require.NoError(t, db.SaveRaffleSnapshot(second))
	loaded, err := db.LoadRaffleSnapshot()
	require.NoError(t, err)
	require.Empty(t, loaded.Players)
	require.Equal(t, uint64(2), loaded.Round)
}

func TestRounds(t *testing.T) {
	db := newTestDatabase(t)
	winners := []common.Address{testPlayer, testOther, testPlayer}
	for i, winner := range winners {
		require.NoError(t, db.AddRound(raffle.WinnerPickedEvent{
			Winner:    winner,
			Prize:     uint256.NewInt(uint64(i+1) * 1000),
			RequestID: requestID(uint64(100 + i)),
			Round:     uint64(i + 1),
			Players:   i + 1,
		}, testStart.Add(time.Duration(i)*time.Minute)))
	}
	// Duplicate keeps the first record
	require.NoError(t, db.AddRound(raffle.WinnerPickedEvent{
		Winner:    testOther,
		Prize:     uint256.NewInt(5),
		RequestID: requestID(999),
		Round:     1,
	}, testStart))

	count, err := db.RoundCount()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	rounds, err := db.Rounds(10, 0, false)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	require.Equal(t, uint64(3), rounds[0].Round)
	require.Equal(t, uint64(1), rounds[2].Round)
	require.Equal(t, testPlayer, rounds[2].Winner)
	require.Equal(t, uint64(1000), rounds[2].Prize.Uint64())
	require.Equal(t, requestID(100), rounds[2].RequestID)

	page, err := db.Rounds(1, 1, false)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, uint64(2), page[0].Round)

	oldest, err := db.Rounds(2, 0, true)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	require.Equal(t, uint64(1), oldest[0].Round)

	won, err := db.RoundsWonBy(testPlayer)
	require.NoError(t, err)
	require.Len(t, won, 2)
	require.Equal(t, uint64(3), won[0].Round)

	round, err := db.Round(2)
	require.NoError(t, err)
	require.NotNil(t, round)
	require.Equal(t, testOther, round.Winner)
	require.Equal(t, 2, round.Players)

	missing, err := db.Round(42)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestEvents(t *testing.T) {
	db := newTestDatabase(t)
	entered := event.NewEvent(raffle.EnteredEventType, raffle.RaffleEnteredEvent{
		Player: testPlayer,
		Amount: uint256.NewInt(10),
		Round:  1,
	})
	requested := event.NewEvent(raffle.RandomnessRequestedEventType, raffle.RandomnessRequestedEvent{
		RequestID: requestID(5),
		Round:     1,
	})
	firstId, err := db.AppendEvent(entered)
	require.NoError(t, err)
	_, err = db.AppendEvent(requested)
	require.NoError(t, err)
	_, err = db.AppendEvent(entered)
	require.NoError(t, err)

	all, err := db.Events("", 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, raffle.RandomnessRequestedEventType, all[1].Type)

	var data raffle.RandomnessRequestedEvent
	require.NoError(t, json.Unmarshal(all[1].Data, &data))
	require.Equal(t, requestID(5), data.RequestID)

	onlyEntered, err := db.Events(raffle.EnteredEventType, 0, 100)
	require.NoError(t, err)
	require.Len(t, onlyEntered, 2)

	after, err := db.Events("", firstId, 100)
	require.NoError(t, err)
	require.Len(t, after, 2)

	limited, err := db.Events("", 0, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, firstId, limited[0].ID)
}

func TestOracleStore(t *testing.T) {
	db := newTestDatabase(t)
	store := db.OracleStore()

	nonce, err := store.SubscriptionNonce()
	require.NoError(t, err)
	require.Zero(t, nonce)
	require.NoError(t, store.SetSubscriptionNonce(3))
	nonce, err = store.SubscriptionNonce()
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)

	sub := &oracle.Subscription{
		ID:            oracle.SubscriptionID(*uint256.NewInt(12345)),
		Owner:         testOwner,
		Balance:       uint256.NewInt(1_000_000),
		NativeBalance: uint256.NewInt(0),
		Consumers:     []common.Address{testPlayer},
		Nonces:        map[common.Address]uint64{testPlayer: 2},
		ReqCount:      1,
	}
	require.NoError(t, store.SaveSubscription(sub))
	req := &oracle.Request{
		ID:     requestID(9),
		Sender: testPlayer,
		Nonce:  2,
		Params: oracle.RandomWordsRequest{
			SubID:                sub.ID,
			RequestConfirmations: 3,
			CallbackGasLimit:     500_000,
			NumWords:             1,
		},
		RequestedAt: testStart,
	}
	require.NoError(t, store.SaveRequest(req))

	subs, err := store.LoadSubscriptions()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, sub.ID, subs[0].ID)
	require.Equal(t, sub.Owner, subs[0].Owner)
	require.Equal(t, sub.Balance.Dec(), subs[0].Balance.Dec())
	require.Equal(t, sub.Consumers, subs[0].Consumers)
	require.Equal(t, sub.Nonces, subs[0].Nonces)

	reqs, err := store.LoadRequests()
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.Equal(t, req.ID, reqs[0].ID)
	require.Equal(t, req.Params, reqs[0].Params)
	require.True(t, req.RequestedAt.Equal(reqs[0].RequestedAt))

	require.NoError(t, store.DeleteRequest(req.ID))
	require.NoError(t, store.DeleteSubscription(sub.ID))
	subs, err = store.LoadSubscriptions()
	require.NoError(t, err)
	require.Empty(t, subs)
	reqs, err = store.LoadRequests()
	require.NoError(t, err)
	require.Empty(t, reqs)
	// The nonce lives outside both prefixes
	nonce, err = store.SubscriptionNonce()
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)
}

type testConsumer struct {
	addr common.Address
}

func (c *testConsumer) Address() common.Address {
	return c.addr
}

func (c *testConsumer) FulfillRandomWords(
	context.Context,
	oracle.RequestID,
	[]uint256.Int,
) error {
	return nil
}

func TestPersistence(t *testing.T) {
	dataDir := t.TempDir()
	consumer := &testConsumer{addr: testPlayer}
	var subID oracle.SubscriptionID
	var reqID oracle.RequestID
	{
		db, err := database.New(&database.Config{DataDir: dataDir})
		require.NoError(t, err)
		c, err := oracle.NewMockCoordinator(oracle.MockCoordinatorConfig{
			Store: db.OracleStore(),
		})
		require.NoError(t, err)
		subID, err = c.CreateSubscription(testOwner)
		require.NoError(t, err)
		require.NoError(t, c.FundSubscription(subID, uint256.NewInt(1_000_000_000_000_000_000)))
		require.NoError(t, c.AddConsumer(subID, consumer.Address()))
		reqID, err = c.RequestRandomWords(
			context.Background(),
			consumer,
			oracle.RandomWordsRequest{
				SubID:                subID,
				RequestConfirmations: 3,
				CallbackGasLimit:     500_000,
				NumWords:             1,
			},
		)
		require.NoError(t, err)
		require.NoError(t, db.SaveRaffleSnapshot(raffle.Snapshot{
			State:          raffle.StateCalculating,
			Players:        []common.Address{testPlayer},
			Balance:        uint256.NewInt(10),
			LastTimestamp:  testStart,
			Round:          1,
			PendingRequest: &reqID,
			RequestedAt:    testStart,
		}))
		require.NoError(t, db.Close())
	}

	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	snap, err := db.LoadRaffleSnapshot()
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, raffle.StateCalculating, snap.State)
	require.Equal(t, reqID, *snap.PendingRequest)

	c, err := oracle.NewMockCoordinator(oracle.MockCoordinatorConfig{
		Store: db.OracleStore(),
	})
	require.NoError(t, err)
	require.True(t, c.ConsumerIsAdded(subID, consumer.Address()))
	pending := c.PendingRequests()
	require.Len(t, pending, 1)
	require.Equal(t, reqID, pending[0].ID)
	c.AttachConsumer(consumer)
	require.NoError(t, c.FulfillRandomWords(context.Background(), reqID))
	require.False(t, c.PendingRequestExists(subID))
}

func TestDatabaseMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	db, err := database.New(&database.Config{PromRegistry: reg})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Blob().Set([]byte("k"), []byte("v")))
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	require.True(t, names["raffle_blob_writes_total"])
	require.True(t, names["go_sql_max_open_connections"])
}

func TestBlobConfigOnDisk(t *testing.T) {
	dataDir := t.TempDir()
	blobCfg := database.BlobConfig{
		BlockCacheSize:   1 << 20,
		IndexCacheSize:   1 << 20,
		ValueLogFileSize: 8 << 20,
		MemTableSize:     4 << 20,
		ValueThreshold:   256,
		GcInterval:       time.Hour,
	}
	db, err := database.New(&database.Config{DataDir: dataDir, Blob: blobCfg})
	require.NoError(t, err)
	require.NoError(t, db.Blob().Set([]byte("key"), []byte("value")))
	require.NoError(t, db.Close())

	blobCfg.DisableGc = true
	db, err = database.New(&database.Config{DataDir: dataDir, Blob: blobCfg})
	require.NoError(t, err)
	defer db.Close()
	val, err := db.Blob().Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), val)
}
