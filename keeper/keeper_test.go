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

package keeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/raffle/keeper"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type mockUpkeeper struct {
	mu        sync.Mutex
	needed    bool
	err       error
	checks    int
	performed int
}

func (m *mockUpkeeper) CheckUpkeep() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	return m.needed
}

func (m *mockUpkeeper) PerformUpkeep(context.Context) (oracle.RequestID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return oracle.RequestID{}, m.err
	}
	m.performed++
	m.needed = false
	return oracle.RequestID(*uint256.NewInt(uint64(m.performed))), nil
}

func (m *mockUpkeeper) set(needed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.needed = needed
	m.err = err
}

func (m *mockUpkeeper) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks, m.performed
}

func TestTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	up := &mockUpkeeper{}
	k := keeper.NewKeeper(keeper.KeeperConfig{Upkeeper: up, PromRegistry: reg})
	ctx := context.Background()

	require.False(t, k.Tick(ctx))
	checks, performed := up.counts()
	require.Equal(t, 1, checks)
	require.Zero(t, performed)

	up.set(true, nil)
	require.True(t, k.Tick(ctx))
	_, performed = up.counts()
	require.Equal(t, 1, performed)

	// Losing the race to another caller is not a failure
	up.set(true, &raffle.UpkeepNotNeededError{Balance: new(uint256.Int)})
	require.False(t, k.Tick(ctx))

	up.set(true, errors.New("coordinator unavailable"))
	require.False(t, k.Tick(ctx))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range families {
		values[family.GetName()] = family.GetMetric()[0].GetCounter().GetValue()
	}
	require.InDelta(t, 4, values["raffle_keeper_checks_total"], 0)
	require.InDelta(t, 1, values["raffle_keeper_upkeeps_total"], 0)
	require.InDelta(t, 1, values["raffle_keeper_lost_races_total"], 0)
	require.InDelta(t, 1, values["raffle_keeper_failures_total"], 0)
}

func TestKeeperPolls(t *testing.T) {
	defer goleak.VerifyNone(t)
	up := &mockUpkeeper{needed: true}
	k := keeper.NewKeeper(keeper.KeeperConfig{
		Upkeeper:     up,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, k.Start(context.Background()))
	require.Eventually(t, func() bool {
		_, performed := up.counts()
		return performed == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The predicate keeps being polled once the upkeep is done
	checksBefore, _ := up.counts()
	require.Eventually(t, func() bool {
		checks, _ := up.counts()
		return checks > checksBefore
	}, 2*time.Second, 5*time.Millisecond)
	k.Stop()
	k.Stop()
	_, performed := up.counts()
	require.Equal(t, 1, performed)
}

func TestKeeperStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	k := keeper.NewKeeper(keeper.KeeperConfig{
		Upkeeper:     &mockUpkeeper{},
		PollInterval: time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, k.Start(ctx))
	cancel()
	k.Stop()
}

func TestKeeperRequiresUpkeeper(t *testing.T) {
	k := keeper.NewKeeper(keeper.KeeperConfig{})
	require.Error(t, k.Start(context.Background()))
}
