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
	"encoding/json"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// RaffleResponse is returned by GET /api/v0/raffle.
type RaffleResponse struct {
	Address              string  `json:"address"`
	State                string  `json:"state"`
	Round                uint64  `json:"round"`
	EntranceFee          string  `json:"entrance_fee"`
	IntervalSeconds      int64   `json:"interval_seconds"`
	Owner                string  `json:"owner"`
	SubscriptionID       string  `json:"subscription_id"`
	NumWords             uint32  `json:"num_words"`
	RequestConfirmations uint16  `json:"request_confirmations"`
	Players              int     `json:"players"`
	PoolBalance          string  `json:"pool_balance"`
	LastWinner           string  `json:"last_winner"`
	LastTimestamp        int64   `json:"last_timestamp"`
	PendingRequest       *string `json:"pending_request"`
	RequestedAt          *int64  `json:"requested_at"`
	UpkeepNeeded         bool    `json:"upkeep_needed"`
}

type EntranceFeeResponse struct {
	EntranceFee string `json:"entrance_fee"`
}

type IntervalResponse struct {
	IntervalSeconds int64 `json:"interval_seconds"`
}

type StateResponse struct {
	State string `json:"state"`
}

type PlayerResponse struct {
	Index  int    `json:"index"`
	Player string `json:"player"`
}

type WinnerResponse struct {
	LastWinner string `json:"last_winner"`
}

type TimestampResponse struct {
	LastTimestamp int64 `json:"last_timestamp"`
}

// UpkeepResponse is returned by GET /api/v0/raffle/upkeep.
type UpkeepResponse struct {
	UpkeepNeeded    bool   `json:"upkeep_needed"`
	State           string `json:"state"`
	ElapsedSeconds  int64  `json:"elapsed_seconds"`
	IntervalSeconds int64  `json:"interval_seconds"`
	Players         int    `json:"players"`
	Balance         string `json:"balance"`
	IsOpen          bool   `json:"is_open"`
	TimePassed      bool   `json:"time_passed"`
	HasPlayers      bool   `json:"has_players"`
	HasBalance      bool   `json:"has_balance"`
}

// RoundResponse represents a resolved round.
type RoundResponse struct {
	Round      uint64 `json:"round"`
	Winner     string `json:"winner"`
	Prize      string `json:"prize"`
	RequestID  string `json:"request_id"`
	Players    int    `json:"players"`
	ResolvedAt int64  `json:"resolved_at"`
}

// EventResponse represents a journaled event.
type EventResponse struct {
	ID        uint            `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EnterRequest is the body of POST /api/v0/raffle/enter.
type EnterRequest struct {
	Player string `json:"player"`
	// Amount in wei, as a decimal string
	Amount string `json:"amount"`
}

// EnterResponse is returned by a successful POST /api/v0/raffle/enter.
type EnterResponse struct {
	Player  string `json:"player"`
	Amount  string `json:"amount"`
	Round   uint64 `json:"round"`
	Players int    `json:"players"`
}

// ResetResponse is returned by a successful POST /api/v0/raffle/reset.
type ResetResponse struct {
	State   string `json:"state"`
	Round   uint64 `json:"round"`
	Players int    `json:"players"`
}
