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
	"context"
	"time"

	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RaffleNode is the raffle the API queries. *raffle.Raffle implements it.
type RaffleNode interface {
	Address() common.Address
	EntranceFee() *uint256.Int
	Interval() time.Duration
	Owner() common.Address
	SubscriptionID() oracle.SubscriptionID
	NumWords() uint32
	RequestConfirmations() uint16
	RaffleState() raffle.State
	NumberOfPlayers() int
	Player(i int) (common.Address, error)
	Players() []common.Address
	LastWinner() common.Address
	LastTimestamp() time.Time
	PoolBalance() *uint256.Int
	PendingRequest() (oracle.RequestID, time.Time, bool)
	Round() uint64
	UpkeepStatus() raffle.UpkeepStatus
	Enter(ctx context.Context, participant common.Address, amount *uint256.Int) error
	ResetStuckRound(ctx context.Context, caller common.Address) error
}

// RoundHistory serves resolved rounds and the event journal.
// *database.Database implements it.
type RoundHistory interface {
	Rounds(limit, offset int, ascending bool) ([]database.Round, error)
	RoundCount() (int, error)
	Round(round uint64) (*database.Round, error)
	Events(eventType event.EventType, afterId uint, limit int) ([]database.EventRecord, error)
}

// Wallet moves entrance fees into the raffle. *ledger.Ledger implements it.
type Wallet interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	Refund(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}
