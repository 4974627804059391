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

package raffle

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/raffle/oracle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (r *Raffle) EntranceFee() *uint256.Int {
	return r.config.EntranceFee.Clone()
}

func (r *Raffle) Interval() time.Duration {
	return r.config.Interval
}

func (r *Raffle) Owner() common.Address {
	return r.config.Owner
}

func (r *Raffle) SubscriptionID() oracle.SubscriptionID {
	return r.config.SubscriptionID
}

func (r *Raffle) NumWords() uint32 {
	return NumWords
}

func (r *Raffle) RequestConfirmations() uint16 {
	return RequestConfirmations
}

func (r *Raffle) RaffleState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Raffle) NumberOfPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Player returns the entrant at index i of the current round
func (r *Raffle) Player(i int) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.players) {
		return common.Address{}, fmt.Errorf(
			"%w: index %d, players %d",
			ErrPlayerIndexOutOfRange,
			i,
			len(r.players),
		)
	}
	return r.players[i], nil
}

// Players returns a copy of the current round's entrants in entry order
func (r *Raffle) Players() []common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.Address(nil), r.players...)
}

// LastWinner is the zero address until the first round resolves
func (r *Raffle) LastWinner() common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastWinner
}

func (r *Raffle) LastTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTimestamp
}

func (r *Raffle) PoolBalance() *uint256.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance.Clone()
}

// PendingRequest returns the outstanding randomness request, if any
func (r *Raffle) PendingRequest() (oracle.RequestID, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return oracle.RequestID{}, time.Time{}, false
	}
	return r.pending.id, r.pending.requestedAt, true
}

// Round is the number of the round currently accepting or awaiting a draw
func (r *Raffle) Round() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}
