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

package database

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/raffle/database/models"
	"github.com/blinklabs-io/raffle/database/types"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Round is a resolved raffle round
type Round struct {
	Round      uint64           `json:"round"`
	Winner     common.Address   `json:"winner"`
	Prize      *uint256.Int     `json:"prize"`
	RequestID  oracle.RequestID `json:"requestId"`
	Players    int              `json:"players"`
	ResolvedAt time.Time        `json:"resolvedAt"`
}

func roundFromModel(m models.RaffleRound) Round {
	return Round{
		Round:      m.Round,
		Winner:     m.Winner.Address(),
		Prize:      m.Prize.Int(),
		RequestID:  oracle.RequestID(m.RequestID),
		Players:    m.Players,
		ResolvedAt: m.ResolvedAt,
	}
}

// AddRound records the outcome of a round. Recording a round twice keeps the
// first record.
func (d *Database) AddRound(evt raffle.WinnerPickedEvent, resolvedAt time.Time) error {
	round := &models.RaffleRound{
		Round:      evt.Round,
		Winner:     types.Address(evt.Winner),
		Prize:      types.NewUint256(evt.Prize),
		RequestID:  types.Uint256(evt.RequestID),
		Players:    evt.Players,
		ResolvedAt: resolvedAt,
	}
	if err := d.Metadata().AddRaffleRound(round, nil); err != nil {
		return fmt.Errorf("add round %d: %w", evt.Round, err)
	}
	return nil
}

// Round returns a single resolved round, or nil if it is not known
func (d *Database) Round(round uint64) (*Round, error) {
	m, err := d.Metadata().GetRaffleRound(round, nil)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	ret := roundFromModel(*m)
	return &ret, nil
}

// Rounds returns a page of resolved rounds, most recent first unless
// ascending is set
func (d *Database) Rounds(limit, offset int, ascending bool) ([]Round, error) {
	rows, err := d.Metadata().GetRaffleRounds(limit, offset, ascending, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Round, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, roundFromModel(row))
	}
	return ret, nil
}

// RoundCount returns the number of resolved rounds
func (d *Database) RoundCount() (int, error) {
	n, err := d.Metadata().CountRaffleRounds(nil)
	return int(n), err
}

// RoundsWonBy returns every round won by the given account, most recent first
func (d *Database) RoundsWonBy(winner common.Address) ([]Round, error) {
	rows, err := d.Metadata().GetRaffleRoundsByWinner(winner, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Round, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, roundFromModel(row))
	}
	return ret, nil
}

// SaveRaffleSnapshot replaces the persisted raffle state
func (d *Database) SaveRaffleSnapshot(s raffle.Snapshot) error {
	snap := &models.RaffleSnapshot{
		State:         uint8(s.State),
		Balance:       types.NewUint256(s.Balance),
		LastTimestamp: s.LastTimestamp,
		LastWinner:    types.Address(s.LastWinner),
		Round:         s.Round,
		RequestedAt:   s.RequestedAt,
	}
	if s.PendingRequest != nil {
		snap.HasPending = true
		snap.PendingRequest = types.Uint256(*s.PendingRequest)
	}
	if err := d.Metadata().SetRaffleSnapshot(snap, s.Players, nil); err != nil {
		return fmt.Errorf("save raffle snapshot: %w", err)
	}
	if d.metrics != nil {
		d.metrics.snapshotWrites.Inc()
	}
	return nil
}

// LoadRaffleSnapshot returns the persisted raffle state, or nil if none has
// been saved
func (d *Database) LoadRaffleSnapshot() (*raffle.Snapshot, error) {
	snap, players, err := d.Metadata().GetRaffleSnapshot(nil)
	if err != nil {
		return nil, fmt.Errorf("load raffle snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	ret := &raffle.Snapshot{
		State:         raffle.State(snap.State),
		Players:       players,
		Balance:       snap.Balance.Int(),
		LastTimestamp: snap.LastTimestamp,
		LastWinner:    snap.LastWinner.Address(),
		Round:         snap.Round,
	}
	if snap.HasPending {
		id := oracle.RequestID(snap.PendingRequest)
		ret.PendingRequest = &id
		ret.RequestedAt = snap.RequestedAt
	}
	return ret, nil
}
