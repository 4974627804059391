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

package models

import (
	"time"

	"github.com/blinklabs-io/raffle/database/types"
)

const RaffleSnapshotRowId = 1

// RaffleSnapshot holds the single current raffle state row
type RaffleSnapshot struct {
	ID             uint          `gorm:"primarykey"`
	State          uint8         `gorm:"not null"`
	Balance        types.Uint256 `gorm:"not null"`
	LastTimestamp  time.Time     `gorm:"not null"`
	LastWinner     types.Address `gorm:"size:42;not null"`
	Round          uint64        `gorm:"not null"`
	HasPending     bool          `gorm:"not null"`
	PendingRequest types.Uint256 `gorm:"not null"`
	RequestedAt    time.Time
}

func (RaffleSnapshot) TableName() string {
	return "raffle_snapshot"
}

// RaffleEntrant is one entry of the current round, in entry order
type RaffleEntrant struct {
	ID       uint          `gorm:"primarykey"`
	Position uint          `gorm:"uniqueIndex;not null"`
	Player   types.Address `gorm:"size:42;index;not null"`
}

func (RaffleEntrant) TableName() string {
	return "raffle_entrant"
}

// RaffleRound records a resolved round
type RaffleRound struct {
	ID         uint          `gorm:"primarykey"`
	Round      uint64        `gorm:"uniqueIndex;not null"`
	Winner     types.Address `gorm:"size:42;index;not null"`
	Prize      types.Uint256 `gorm:"not null"`
	RequestID  types.Uint256 `gorm:"not null"`
	Players    int           `gorm:"not null"`
	ResolvedAt time.Time     `gorm:"not null"`
}

func (RaffleRound) TableName() string {
	return "raffle_round"
}
