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

package simulate_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/raffle/internal/simulate"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	res, err := simulate.Run(
		context.Background(),
		simulate.Config{Players: 4, Rounds: 6, Seed: 42},
	)
	require.NoError(t, err)
	require.Len(t, res.Rounds, 6)
	require.Len(t, res.Players, 4)

	total := new(uint256.Int)
	for i, r := range res.Rounds {
		require.Equal(t, uint64(i+1), r.Round)
		require.GreaterOrEqual(t, r.Entries, 1)
		require.LessOrEqual(t, r.Entries, 4)
		require.Contains(t, res.Players, r.Winner)
		expected := new(uint256.Int).Mul(
			simulate.DefaultEntranceFee,
			uint256.NewInt(uint64(r.Entries)),
		)
		require.Equal(t, expected, r.Prize)
	}
	for _, p := range res.Players {
		total.Add(total, res.Balances[p])
	}
	// Every fee paid in is paid back out to a winner
	funded := new(uint256.Int).Mul(res.Funded, uint256.NewInt(4))
	require.Equal(t, funded, total)
}

func TestRunDeterministic(t *testing.T) {
	cfg := simulate.Config{Players: 5, Rounds: 4, Seed: 7}
	first, err := simulate.Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := simulate.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, first.Rounds, second.Rounds)
	require.Equal(t, first.Balances, second.Balances)
}

func TestRunInvalid(t *testing.T) {
	testDefs := []struct {
		name string
		cfg  simulate.Config
	}{
		{name: "no players", cfg: simulate.Config{Rounds: 1}},
		{name: "negative rounds", cfg: simulate.Config{Players: 1, Rounds: -1}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := simulate.Run(context.Background(), testDef.cfg)
			require.Error(t, err)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := simulate.Run(ctx, simulate.Config{Players: 2, Rounds: 3})
	require.ErrorIs(t, err, context.Canceled)
}
