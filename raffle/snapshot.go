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

// Snapshot is a consistent copy of the raffle's mutable state
type Snapshot struct {
	State          State             `json:"state"`
	Players        []common.Address  `json:"players"`
	Balance        *uint256.Int      `json:"balance"`
	LastTimestamp  time.Time         `json:"lastTimestamp"`
	LastWinner     common.Address    `json:"lastWinner"`
	Round          uint64            `json:"round"`
	PendingRequest *oracle.RequestID `json:"pendingRequest,omitempty"`
	RequestedAt    time.Time         `json:"requestedAt"`
}

func (r *Raffle) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		State:         r.state,
		Players:       append([]common.Address(nil), r.players...),
		Balance:       r.balance.Clone(),
		LastTimestamp: r.lastTimestamp,
		LastWinner:    r.lastWinner,
		Round:         r.round,
	}
	if r.pending != nil {
		id := r.pending.id
		s.PendingRequest = &id
		s.RequestedAt = r.pending.requestedAt
	}
	return s
}

// Restore replaces the raffle's state with a snapshot taken earlier
func (r *Raffle) Restore(s Snapshot) error {
	if !s.State.Valid() {
		return fmt.Errorf("%w: unknown state %d", ErrInvalidSnapshot, uint8(s.State))
	}
	if s.Round == 0 {
		return fmt.Errorf("%w: round must start at 1", ErrInvalidSnapshot)
	}
	switch s.State {
	case StateOpen:
		if s.PendingRequest != nil {
			return fmt.Errorf("%w: open raffle with pending request", ErrInvalidSnapshot)
		}
	case StateCalculating:
		if s.PendingRequest == nil {
			return fmt.Errorf("%w: calculating raffle without request", ErrInvalidSnapshot)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s.State
	r.players = append([]common.Address(nil), s.Players...)
	r.balance.Clear()
	if s.Balance != nil {
		r.balance.Set(s.Balance)
	}
	r.lastTimestamp = s.LastTimestamp
	r.lastWinner = s.LastWinner
	r.round = s.Round
	r.pending = nil
	if s.PendingRequest != nil {
		r.pending = &pendingRequest{
			id:          *s.PendingRequest,
			requestedAt: s.RequestedAt,
		}
	}
	r.updateGauges()
	r.logger.Info(
		"restored raffle state",
		"state", s.State.String(),
		"round", s.Round,
		"players", len(s.Players),
	)
	return nil
}
