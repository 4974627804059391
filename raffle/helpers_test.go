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

package raffle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	raffleAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	ownerAddr  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testKey    = common.HexToHash(
		"0x787d74caea10b2b357790d5b5247c2f63d1d91572a9846f780606e4d953677ae",
	)
	testSubID = oracle.SubscriptionID(*uint256.NewInt(1))
	// 0.01 ether
	testFee      = uint256.NewInt(10_000_000_000_000_000)
	testInterval = 30 * time.Second
	testStart    = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func player(i int) common.Address {
	return common.BigToAddress(uint256.NewInt(uint64(0x1000 + i)).ToBig())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testStart}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCoordinator hands out sequential request ids
type fakeCoordinator struct {
	mu       sync.Mutex
	err      error
	requests []oracle.RandomWordsRequest
	nextID   uint64
}

func (c *fakeCoordinator) RequestRandomWords(
	_ context.Context,
	_ oracle.Consumer,
	req oracle.RandomWordsRequest,
) (oracle.RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return oracle.RequestID{}, c.err
	}
	c.nextID++
	c.requests = append(c.requests, req)
	return oracle.RequestID(*uint256.NewInt(c.nextID)), nil
}

func (c *fakeCoordinator) numRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type payout struct {
	from, to common.Address
	amount   *uint256.Int
}

// fakePayer records transfers and fails them while err is set
type fakePayer struct {
	mu      sync.Mutex
	err     error
	payouts []payout
}

func (p *fakePayer) Transfer(
	_ context.Context,
	from, to common.Address,
	amount *uint256.Int,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payouts = append(p.payouts, payout{from: from, to: to, amount: amount.Clone()})
	return nil
}

func (p *fakePayer) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

var errRejected = errors.New("recipient rejected transfer")

type testRaffle struct {
	*raffle.Raffle
	clock *fakeClock
	coord *fakeCoordinator
	payer *fakePayer
	bus   *event.EventBus
}

func newTestRaffle(t *testing.T, modify ...func(*raffle.RaffleConfig)) *testRaffle {
	t.Helper()
	tr := &testRaffle{
		clock: newFakeClock(),
		coord: &fakeCoordinator{},
		payer: &fakePayer{},
		bus:   event.NewEventBus(nil, nil),
	}
	t.Cleanup(tr.bus.Close)
	cfg := raffle.RaffleConfig{
		EntranceFee:           testFee,
		Interval:              testInterval,
		CallbackGasLimit:      500_000,
		KeyHash:               testKey,
		SubscriptionID:        testSubID,
		Coordinator:           tr.coord,
		Address:               raffleAddr,
		Owner:                 ownerAddr,
		StuckRoundGracePeriod: time.Hour,
		Payer:                 tr.payer,
		EventBus:              tr.bus,
		Clock:                 tr.clock.Now,
	}
	for _, fn := range modify {
		fn(&cfg)
	}
	r, err := raffle.NewRaffle(cfg)
	require.NoError(t, err)
	tr.Raffle = r
	return tr
}

// readyRound enters the given players at the entrance fee and moves the clock
// past the interval
func (tr *testRaffle) readyRound(t *testing.T, players ...common.Address) {
	t.Helper()
	for _, p := range players {
		require.NoError(t, tr.Enter(context.Background(), p, testFee))
	}
	tr.clock.Advance(testInterval + time.Second)
}

func word(v uint64) []uint256.Int {
	return []uint256.Int{*uint256.NewInt(v)}
}

func collect(bus *event.EventBus, evtType event.EventType) <-chan event.Event {
	_, ch := bus.Subscribe(evtType)
	return ch
}

func nextEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return event.Event{}
}
