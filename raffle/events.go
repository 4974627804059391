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
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EnteredEventType             event.EventType = "raffle.entered"
	RandomnessRequestedEventType event.EventType = "raffle.randomness_requested"
	WinnerPickedEventType        event.EventType = "raffle.winner_picked"
	PayoutFailedEventType        event.EventType = "raffle.payout_failed"
	RoundResetEventType          event.EventType = "raffle.round_reset"
)

// EventTypes lists every event type emitted by the raffle
var EventTypes = []event.EventType{
	EnteredEventType,
	RandomnessRequestedEventType,
	WinnerPickedEventType,
	PayoutFailedEventType,
	RoundResetEventType,
}

type RaffleEnteredEvent struct {
	Player common.Address `json:"player"`
	Amount *uint256.Int   `json:"amount"`
	Round  uint64         `json:"round"`
}

type RandomnessRequestedEvent struct {
	RequestID oracle.RequestID `json:"requestId"`
	Round     uint64           `json:"round"`
}

type WinnerPickedEvent struct {
	Winner    common.Address   `json:"winner"`
	Prize     *uint256.Int     `json:"prize"`
	RequestID oracle.RequestID `json:"requestId"`
	Round     uint64           `json:"round"`
	// Players is how many entries took part in the round
	Players int `json:"players"`
}

type PayoutFailedEvent struct {
	Winner    common.Address   `json:"winner"`
	Amount    *uint256.Int     `json:"amount"`
	RequestID oracle.RequestID `json:"requestId"`
	Round     uint64           `json:"round"`
	Error     string           `json:"error"`
}

type RoundResetEvent struct {
	RequestID oracle.RequestID `json:"requestId"`
	Round     uint64           `json:"round"`
	Caller    common.Address   `json:"caller"`
}
