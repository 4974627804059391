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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/ledger"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRaffleAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testOwner      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testPlayerA    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testPlayerB    = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	testFee        = uint256.NewInt(10_000_000_000_000_000)
	testStart      = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

// mockNode implements RaffleNode for testing.
type mockNode struct {
	mu       sync.Mutex
	state    raffle.State
	players  []common.Address
	balance  uint256.Int
	winner   common.Address
	pending  *oracle.RequestID
	round    uint64
	enterErr error
	resetErr error
}

func newMockNode() *mockNode {
	return &mockNode{round: 1}
}

func (m *mockNode) Address() common.Address { return testRaffleAddr }
func (m *mockNode) EntranceFee() *uint256.Int { return testFee.Clone() }
func (m *mockNode) Interval() time.Duration { return 30 * time.Second }
func (m *mockNode) Owner() common.Address { return testOwner }
func (m *mockNode) NumWords() uint32 { return raffle.NumWords }
func (m *mockNode) RequestConfirmations() uint16 { return raffle.RequestConfirmations }
func (m *mockNode) LastTimestamp() time.Time { return testStart }
func (m *mockNode) SubscriptionID() oracle.SubscriptionID {
	return oracle.SubscriptionID(*uint256.NewInt(42))
}

func (m *mockNode) RaffleState() raffle.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockNode) NumberOfPlayers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

func (m *mockNode) Player(i int) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.players) {
		return common.Address{}, fmt.Errorf("%w: %d", raffle.ErrPlayerIndexOutOfRange, i)
	}
	return m.players[i], nil
}

func (m *mockNode) Players() []common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]common.Address(nil), m.players...)
}

func (m *mockNode) LastWinner() common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner
}

func (m *mockNode) PoolBalance() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance.Clone()
}

func (m *mockNode) PendingRequest() (oracle.RequestID, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return oracle.RequestID{}, time.Time{}, false
	}
	return *m.pending, testStart.Add(time.Minute), true
}

func (m *mockNode) Round() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round
}

func (m *mockNode) UpkeepStatus() raffle.UpkeepStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return raffle.UpkeepStatus{
		State:      m.state,
		Elapsed:    time.Minute,
		Interval:   30 * time.Second,
		Players:    len(m.players),
		Balance:    m.balance.Clone(),
		IsOpen:     m.state == raffle.StateOpen,
		TimePassed: true,
		HasPlayers: len(m.players) > 0,
		HasBalance: !m.balance.IsZero(),
	}
}

func (m *mockNode) ResetStuckRound(_ context.Context, caller common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != testOwner {
		return raffle.ErrNotOwner
	}
	if m.resetErr != nil {
		return m.resetErr
	}
	m.state = raffle.StateOpen
	m.pending = nil
	return nil
}

func (m *mockNode) Enter(_ context.Context, player common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enterErr != nil {
		return m.enterErr
	}
	if amount.Lt(testFee) {
		return &raffle.InsufficientPaymentError{Sent: amount, Required: testFee}
	}
	if m.state != raffle.StateOpen {
		return raffle.ErrRaffleNotOpen
	}
	m.players = append(m.players, player)
	m.balance.Add(&m.balance, amount)
	return nil
}

func doRequest(
	t *testing.T,
	handler http.Handler,
	method string,
	target string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, target, &reqBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret))
	return ret
}

func TestStartStop(t *testing.T) {
	a := New(APIConfig{ListenAddress: "127.0.0.1:0"}, newMockNode(), nil)
	require.NoError(t, a.Start(t.Context()))

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	require.Error(t, a.Start(t.Context()))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()

	// Stopping twice is harmless
	require.NoError(t, a.Stop(stopCtx))
}

func TestStartListenError(t *testing.T) {
	a := New(APIConfig{ListenAddress: "256.0.0.1:bogus"}, newMockNode(), nil)
	require.Error(t, a.Start(t.Context()))
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestHealthAndRoot(t *testing.T) {
	handler := New(APIConfig{}, newMockNode(), nil).Handler()
	rec := doRequest(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[HealthResponse](t, rec).IsHealthy)

	rec = doRequest(t, handler, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "raffle", decode[RootResponse](t, rec).Name)

	rec = doRequest(t, handler, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRaffleStatus(t *testing.T) {
	node := newMockNode()
	node.players = []common.Address{testPlayerA, testPlayerB}
	node.balance.SetUint64(20_000_000_000_000_000)
	node.state = raffle.StateCalculating
	id := oracle.RequestID(*uint256.NewInt(99))
	node.pending = &id
	handler := New(APIConfig{}, node, nil).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/v0/raffle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RaffleResponse](t, rec)
	assert.Equal(t, testRaffleAddr.Hex(), resp.Address)
	assert.Equal(t, "CALCULATING", resp.State)
	assert.Equal(t, "10000000000000000", resp.EntranceFee)
	assert.Equal(t, int64(30), resp.IntervalSeconds)
	assert.Equal(t, "42", resp.SubscriptionID)
	assert.Equal(t, uint32(1), resp.NumWords)
	assert.Equal(t, uint16(3), resp.RequestConfirmations)
	assert.Equal(t, 2, resp.Players)
	assert.Equal(t, "20000000000000000", resp.PoolBalance)
	assert.Equal(t, testStart.Unix(), resp.LastTimestamp)
	require.NotNil(t, resp.PendingRequest)
	assert.Equal(t, "99", *resp.PendingRequest)
	require.NotNil(t, resp.RequestedAt)
	assert.False(t, resp.UpkeepNeeded)
}

func TestSimpleQueries(t *testing.T) {
	node := newMockNode()
	node.winner = testPlayerB
	handler := New(APIConfig{}, node, nil).Handler()
	testDefs := []struct {
		path string
		want string
	}{
		{path: "/api/v0/raffle/entrance-fee", want: `{"entrance_fee":"10000000000000000"}`},
		{path: "/api/v0/raffle/interval", want: `{"interval_seconds":30}`},
		{path: "/api/v0/raffle/state", want: `{"state":"OPEN"}`},
		{path: "/api/v0/raffle/winner", want: `{"last_winner":"` + testPlayerB.Hex() + `"}`},
		{path: "/api/v0/raffle/timestamp", want: fmt.Sprintf(`{"last_timestamp":%d}`, testStart.Unix())},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.path, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodGet, testDef.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, testDef.want, rec.Body.String())
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPlayers(t *testing.T) {
	node := newMockNode()
	node.players = []common.Address{testPlayerA, testPlayerB, testPlayerA}
	handler := New(APIConfig{}, node, nil).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/v0/raffle/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	players := decode[[]PlayerResponse](t, rec)
	require.Len(t, players, 3)
	assert.Equal(t, testPlayerB.Hex(), players[1].Player)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Count-Total"))

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/raffle/players?count=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	players = decode[[]PlayerResponse](t, rec)
	require.Len(t, players, 1)
	assert.Equal(t, 2, players[0].Index)
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Page-Total"))

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/raffle/players?order=desc&count=1", nil)
	players = decode[[]PlayerResponse](t, rec)
	require.Len(t, players, 1)
	assert.Equal(t, 2, players[0].Index)

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/raffle/players?page=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]PlayerResponse](t, rec))

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/raffle/players?order=sideways", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayerByIndex(t *testing.T) {
	node := newMockNode()
	node.players = []common.Address{testPlayerA, testPlayerB}
	handler := New(APIConfig{}, node, nil).Handler()
	testDefs := []struct {
		path   string
		status int
		player common.Address
	}{
		{path: "/api/v0/raffle/players/0", status: http.StatusOK, player: testPlayerA},
		{path: "/api/v0/raffle/players/1", status: http.StatusOK, player: testPlayerB},
		{path: "/api/v0/raffle/players/2", status: http.StatusNotFound},
		{path: "/api/v0/raffle/players/-1", status: http.StatusNotFound},
		{path: "/api/v0/raffle/players/abc", status: http.StatusBadRequest},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.path, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodGet, testDef.path, nil)
			require.Equal(t, testDef.status, rec.Code)
			if testDef.status == http.StatusOK {
				require.Equal(t, testDef.player.Hex(), decode[PlayerResponse](t, rec).Player)
			} else {
				require.Equal(t, testDef.status, decode[ErrorResponse](t, rec).StatusCode)
			}
		})
	}
}

func TestUpkeep(t *testing.T) {
	node := newMockNode()
	node.players = []common.Address{testPlayerA}
	node.balance.SetUint64(1)
	handler := New(APIConfig{}, node, nil).Handler()
	rec := doRequest(t, handler, http.MethodGet, "/api/v0/raffle/upkeep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[UpkeepResponse](t, rec)
	assert.True(t, resp.UpkeepNeeded)
	assert.True(t, resp.IsOpen)
	assert.True(t, resp.TimePassed)
	assert.True(t, resp.HasPlayers)
	assert.True(t, resp.HasBalance)
	assert.Equal(t, int64(60), resp.ElapsedSeconds)
	assert.Equal(t, "1", resp.Balance)
}

func newTestHistory(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	for i := range 3 {
		require.NoError(t, db.AddRound(raffle.WinnerPickedEvent{
			Winner:    testPlayerA,
			Prize:     uint256.NewInt(uint64(i+1) * 100),
			RequestID: oracle.RequestID(*uint256.NewInt(uint64(i + 10))),
			Round:     uint64(i + 1),
			Players:   i + 1,
		}, testStart.Add(time.Duration(i)*time.Minute)))
	}
	return db
}

func TestRounds(t *testing.T) {
	handler := New(APIConfig{History: newTestHistory(t)}, newMockNode(), nil).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/v0/rounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rounds := decode[[]RoundResponse](t, rec)
	require.Len(t, rounds, 3)
	assert.Equal(t, uint64(3), rounds[0].Round)
	assert.Equal(t, "300", rounds[0].Prize)
	assert.Equal(t, "12", rounds[0].RequestID)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Count-Total"))

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/rounds?order=asc&count=1", nil)
	rounds = decode[[]RoundResponse](t, rec)
	require.Len(t, rounds, 1)
	assert.Equal(t, uint64(1), rounds[0].Round)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Page-Total"))

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/rounds/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[RoundResponse](t, rec).Players)

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/rounds/7", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/rounds/x", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryUnavailable(t *testing.T) {
	handler := New(APIConfig{}, newMockNode(), nil).Handler()
	for _, path := range []string{"/api/v0/rounds", "/api/v0/rounds/1", "/api/v0/events"} {
		rec := doRequest(t, handler, http.MethodGet, path, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestEvents(t *testing.T) {
	db := newTestHistory(t)
	handler := New(APIConfig{History: db}, newMockNode(), nil).Handler()
	evts := []struct {
		evtType event.EventType
		data    any
	}{
		{raffle.EnteredEventType, raffle.RaffleEnteredEvent{Player: testPlayerA, Amount: testFee, Round: 1}},
		{raffle.EnteredEventType, raffle.RaffleEnteredEvent{Player: testPlayerB, Amount: testFee, Round: 1}},
		{raffle.RandomnessRequestedEventType, raffle.RandomnessRequestedEvent{Round: 1}},
	}
	for _, evt := range evts {
		_, err := db.AppendEvent(event.NewEvent(evt.evtType, evt.data))
		require.NoError(t, err)
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/v0/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]EventResponse](t, rec)
	require.Len(t, events, 3)

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/events?type=raffle.entered", nil)
	events = decode[[]EventResponse](t, rec)
	require.Len(t, events, 2)
	var entered raffle.RaffleEnteredEvent
	require.NoError(t, json.Unmarshal(events[1].Data, &entered))
	assert.Equal(t, testPlayerB, entered.Player)

	rec = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/api/v0/events?after=%d", events[0].ID), nil)
	require.Len(t, decode[[]EventResponse](t, rec), 2)

	rec = doRequest(t, handler, http.MethodGet, "/api/v0/events?after=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnterNotRoutedWithoutWallet(t *testing.T) {
	handler := New(APIConfig{}, newMockNode(), nil).Handler()
	rec := doRequest(t, handler, http.MethodPost, "/api/v0/raffle/enter", EnterRequest{
		Player: testPlayerA.Hex(),
		Amount: testFee.Dec(),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnter(t *testing.T) {
	testDefs := []struct {
		name          string
		req           any
		enterErr      error
		freezeRaffle  bool
		status        int
		wantPlayers   int
		wantPlayerBal uint64
	}{
		{
			name:          "entered",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: testFee.Dec()},
			status:        http.StatusOK,
			wantPlayers:   1,
			wantPlayerBal: 1_000_000_000_000_000_000 - testFee.Uint64(),
		},
		{
			name:          "underpaid is refunded",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: "1"},
			status:        http.StatusBadRequest,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "not open is refunded",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: testFee.Dec()},
			enterErr:      raffle.ErrRaffleNotOpen,
			status:        http.StatusConflict,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "unexpected failure is refunded",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: testFee.Dec()},
			enterErr:      errors.New("boom"),
			status:        http.StatusInternalServerError,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "insufficient funds",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: "2000000000000000000"},
			status:        http.StatusBadRequest,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "raffle account frozen",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: testFee.Dec()},
			freezeRaffle:  true,
			status:        http.StatusConflict,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "bad address",
			req:           EnterRequest{Player: "not-an-address", Amount: testFee.Dec()},
			status:        http.StatusBadRequest,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "bad amount",
			req:           EnterRequest{Player: testPlayerA.Hex(), Amount: "-5"},
			status:        http.StatusBadRequest,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
		{
			name:          "unknown field",
			req:           map[string]string{"player": testPlayerA.Hex(), "amount": "1", "extra": "x"},
			status:        http.StatusBadRequest,
			wantPlayerBal: 1_000_000_000_000_000_000,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			wallet := ledger.NewLedger(ledger.LedgerConfig{})
			require.NoError(t, wallet.Mint(testPlayerA, uint256.NewInt(1_000_000_000_000_000_000)))
			if testDef.freezeRaffle {
				wallet.Freeze(testRaffleAddr)
			}
			node := newMockNode()
			node.enterErr = testDef.enterErr
			handler := New(APIConfig{Wallet: wallet}, node, nil).Handler()
			rec := doRequest(t, handler, http.MethodPost, "/api/v0/raffle/enter", testDef.req)
			require.Equal(t, testDef.status, rec.Code, rec.Body.String())
			require.Equal(t, testDef.wantPlayers, node.NumberOfPlayers())
			require.Equal(t, testDef.wantPlayerBal, wallet.BalanceOf(testPlayerA).Uint64())
			if testDef.status == http.StatusOK {
				resp := decode[EnterResponse](t, rec)
				require.Equal(t, 1, resp.Players)
				require.Equal(t, testFee.Uint64(), wallet.BalanceOf(testRaffleAddr).Uint64())
			} else {
				require.True(t, wallet.BalanceOf(testRaffleAddr).IsZero())
			}
		})
	}
}

func TestReset(t *testing.T) {
	testDefs := []struct {
		name      string
		operator  common.Address
		body      any
		resetErr  error
		status    int
		wantState raffle.State
	}{
		{
			name:      "reopened",
			operator:  testOwner,
			status:    http.StatusOK,
			wantState: raffle.StateOpen,
		},
		{
			name:      "operator is not owner",
			operator:  testPlayerA,
			status:    http.StatusForbidden,
			wantState: raffle.StateCalculating,
		},
		{
			name:      "caller in body is ignored",
			operator:  testPlayerA,
			body:      map[string]string{"caller": testOwner.Hex()},
			status:    http.StatusForbidden,
			wantState: raffle.StateCalculating,
		},
		{
			name:      "not stuck",
			operator:  testOwner,
			resetErr:  fmt.Errorf("%w: waited 1m of 1h", raffle.ErrRoundNotStuck),
			status:    http.StatusConflict,
			wantState: raffle.StateCalculating,
		},
		{
			name:      "internal error",
			operator:  testOwner,
			resetErr:  errors.New("boom"),
			status:    http.StatusInternalServerError,
			wantState: raffle.StateCalculating,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			node := newMockNode()
			node.state = raffle.StateCalculating
			reqID := oracle.RequestID(*uint256.NewInt(9))
			node.pending = &reqID
			node.players = []common.Address{testPlayerA}
			node.resetErr = testDef.resetErr
			handler := New(APIConfig{Operator: testDef.operator}, node, nil).Handler()
			rec := doRequest(t, handler, http.MethodPost, "/api/v0/raffle/reset", testDef.body)
			require.Equal(t, testDef.status, rec.Code, rec.Body.String())
			require.Equal(t, testDef.wantState, node.RaffleState())
			if testDef.status == http.StatusOK {
				resp := decode[ResetResponse](t, rec)
				require.Equal(t, "OPEN", resp.State)
				require.Equal(t, 1, resp.Players)
			}
		})
	}
}

func TestResetNotRoutedWithoutOperator(t *testing.T) {
	node := newMockNode()
	wallet := ledger.NewLedger(ledger.LedgerConfig{})
	handler := New(APIConfig{Wallet: wallet}, node, nil).Handler()
	rec := doRequest(t, handler, http.MethodPost, "/api/v0/raffle/reset", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
