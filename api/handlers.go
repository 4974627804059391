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
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/internal/version"
	"github.com/blinklabs-io/raffle/ledger"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const maxEnterBodySize = 1 << 12

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response using the standard status text
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// handleRoot handles GET / and returns API metadata.
func (a *API) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "raffle",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health.
func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleRaffle handles GET /api/v0/raffle and returns the full raffle status.
func (a *API) handleRaffle(
	w http.ResponseWriter,
	_ *http.Request,
) {
	n := a.node
	resp := RaffleResponse{
		Address:              n.Address().Hex(),
		State:                n.RaffleState().String(),
		Round:                n.Round(),
		EntranceFee:          n.EntranceFee().Dec(),
		IntervalSeconds:      int64(n.Interval() / time.Second),
		Owner:                n.Owner().Hex(),
		SubscriptionID:       n.SubscriptionID().String(),
		NumWords:             n.NumWords(),
		RequestConfirmations: n.RequestConfirmations(),
		Players:              n.NumberOfPlayers(),
		PoolBalance:          n.PoolBalance().Dec(),
		LastWinner:           n.LastWinner().Hex(),
		LastTimestamp:        unixOrZero(n.LastTimestamp()),
		UpkeepNeeded:         n.UpkeepStatus().Needed(),
	}
	if id, requestedAt, ok := n.PendingRequest(); ok {
		idStr := id.String()
		ts := requestedAt.Unix()
		resp.PendingRequest = &idStr
		resp.RequestedAt = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleEntranceFee(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, EntranceFeeResponse{
		EntranceFee: a.node.EntranceFee().Dec(),
	})
}

func (a *API) handleInterval(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, IntervalResponse{
		IntervalSeconds: int64(a.node.Interval() / time.Second),
	})
}

func (a *API) handleState(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, StateResponse{
		State: a.node.RaffleState().String(),
	})
}

// handlePlayers handles GET /api/v0/raffle/players and returns a page of the
// current round's entrants.
func (a *API) handlePlayers(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r, DefaultPaginationOrderAsc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	players := a.node.Players()
	entries := make([]PlayerResponse, len(players))
	for i, player := range players {
		entries[i] = PlayerResponse{Index: i, Player: player.Hex()}
	}
	if !params.Ascending() {
		slices.Reverse(entries)
	}
	start := min(params.Offset(), len(entries))
	end := min(start+params.Count, len(entries))
	SetPaginationHeaders(w, len(entries), params)
	writeJSON(w, http.StatusOK, entries[start:end])
}

// handlePlayer handles GET /api/v0/raffle/players/{index}.
func (a *API) handlePlayer(
	w http.ResponseWriter,
	r *http.Request,
) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player index")
		return
	}
	player, err := a.node.Player(index)
	if err != nil {
		if errors.Is(err, raffle.ErrPlayerIndexOutOfRange) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Error(
			"failed to get player",
			"index", index,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to retrieve player")
		return
	}
	writeJSON(w, http.StatusOK, PlayerResponse{
		Index:  index,
		Player: player.Hex(),
	})
}

func (a *API) handleWinner(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, WinnerResponse{
		LastWinner: a.node.LastWinner().Hex(),
	})
}

func (a *API) handleTimestamp(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, TimestampResponse{
		LastTimestamp: unixOrZero(a.node.LastTimestamp()),
	})
}

// handleUpkeep handles GET /api/v0/raffle/upkeep and returns the upkeep
// predicate with each of its inputs.
func (a *API) handleUpkeep(
	w http.ResponseWriter,
	_ *http.Request,
) {
	status := a.node.UpkeepStatus()
	writeJSON(w, http.StatusOK, UpkeepResponse{
		UpkeepNeeded:    status.Needed(),
		State:           status.State.String(),
		ElapsedSeconds:  int64(status.Elapsed / time.Second),
		IntervalSeconds: int64(status.Interval / time.Second),
		Players:         status.Players,
		Balance:         status.Balance.Dec(),
		IsOpen:          status.IsOpen,
		TimePassed:      status.TimePassed,
		HasPlayers:      status.HasPlayers,
		HasBalance:      status.HasBalance,
	})
}

func roundResponse(round database.Round) RoundResponse {
	return RoundResponse{
		Round:      round.Round,
		Winner:     round.Winner.Hex(),
		Prize:      round.Prize.Dec(),
		RequestID:  round.RequestID.String(),
		Players:    round.Players,
		ResolvedAt: unixOrZero(round.ResolvedAt),
	}
}

// handleRounds handles GET /api/v0/rounds and returns resolved rounds, most
// recent first unless order=asc.
func (a *API) handleRounds(
	w http.ResponseWriter,
	r *http.Request,
) {
	if a.config.History == nil {
		writeError(w, http.StatusServiceUnavailable, "round history is not available")
		return
	}
	params, err := ParsePagination(r, PaginationOrderDesc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := a.config.History.RoundCount()
	if err != nil {
		a.logger.Error("failed to count rounds", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve rounds")
		return
	}
	rounds, err := a.config.History.Rounds(
		params.Count,
		params.Offset(),
		params.Ascending(),
	)
	if err != nil {
		a.logger.Error("failed to get rounds", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve rounds")
		return
	}
	resp := make([]RoundResponse, 0, len(rounds))
	for _, round := range rounds {
		resp = append(resp, roundResponse(round))
	}
	SetPaginationHeaders(w, total, params)
	writeJSON(w, http.StatusOK, resp)
}

// handleRound handles GET /api/v0/rounds/{round}.
func (a *API) handleRound(
	w http.ResponseWriter,
	r *http.Request,
) {
	if a.config.History == nil {
		writeError(w, http.StatusServiceUnavailable, "round history is not available")
		return
	}
	num, err := strconv.ParseUint(r.PathValue("round"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid round number")
		return
	}
	round, err := a.config.History.Round(num)
	if err != nil {
		a.logger.Error("failed to get round", "round", num, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve round")
		return
	}
	if round == nil {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(*round))
}

// handleEvents handles GET /api/v0/events. The after parameter is the id of
// the last event already seen.
func (a *API) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	if a.config.History == nil {
		writeError(w, http.StatusServiceUnavailable, "event journal is not available")
		return
	}
	query := r.URL.Query()
	var afterId uint64
	if after := query.Get("after"); after != "" {
		var err error
		if afterId, err = strconv.ParseUint(after, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid after parameter")
			return
		}
	}
	count := DefaultPaginationCount
	if countParam := query.Get("count"); countParam != "" {
		var err error
		if count, err = strconv.Atoi(countParam); err != nil {
			writeError(w, http.StatusBadRequest, "invalid count parameter")
			return
		}
		count = min(max(count, 1), MaxPaginationCount)
	}
	records, err := a.config.History.Events(
		event.EventType(query.Get("type")),
		uint(afterId),
		count,
	)
	if err != nil {
		a.logger.Error("failed to get events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve events")
		return
	}
	resp := make([]EventResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, EventResponse{
			ID:        record.ID,
			Type:      string(record.Type),
			Timestamp: unixOrZero(record.Timestamp),
			Data:      record.Data,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEnter handles POST /api/v0/raffle/enter. The entrance payment moves
// from the player's account to the raffle before entering and is returned if
// the raffle rejects the entry.
func (a *API) handleEnter(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req EnterRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnterBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(req.Player) {
		writeError(w, http.StatusBadRequest, "invalid player address")
		return
	}
	player := common.HexToAddress(req.Player)
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	ctx := r.Context()
	wallet := a.config.Wallet
	if err := wallet.Transfer(ctx, player, a.node.Address(), amount); err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrTransferRejected),
			errors.Is(err, ledger.ErrBalanceOverflow):
			writeError(w, http.StatusConflict, err.Error())
		default:
			a.logger.Error("entrance payment failed", "player", player.Hex(), "error", err)
			writeError(w, http.StatusInternalServerError, "entrance payment failed")
		}
		return
	}
	if err := a.node.Enter(ctx, player, amount); err != nil {
		if refundErr := wallet.Refund(ctx, player, a.node.Address(), amount); refundErr != nil {
			a.logger.Error(
				"failed to refund rejected entry",
				"player", player.Hex(),
				"amount", amount.Dec(),
				"error", refundErr,
			)
		}
		switch {
		case errors.Is(err, raffle.ErrInsufficientPayment):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, raffle.ErrRaffleNotOpen),
			errors.Is(err, raffle.ErrBalanceOverflow):
			writeError(w, http.StatusConflict, err.Error())
		default:
			a.logger.Error("enter failed", "player", player.Hex(), "error", err)
			writeError(w, http.StatusInternalServerError, "enter failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, EnterResponse{
		Player:  player.Hex(),
		Amount:  amount.Dec(),
		Round:   a.node.Round(),
		Players: a.node.NumberOfPlayers(),
	})
}

// handleReset reopens a stuck round on behalf of the configured operator.
// The request body is ignored.
func (a *API) handleReset(
	w http.ResponseWriter,
	r *http.Request,
) {
	operator := a.config.Operator
	if err := a.node.ResetStuckRound(r.Context(), operator); err != nil {
		switch {
		case errors.Is(err, raffle.ErrNotOwner):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, raffle.ErrRoundNotStuck):
			writeError(w, http.StatusConflict, err.Error())
		default:
			a.logger.Error("round reset failed", "operator", operator.Hex(), "error", err)
			writeError(w, http.StatusInternalServerError, "round reset failed")
		}
		return
	}
	a.logger.Info("stuck round reset", "operator", operator.Hex())
	writeJSON(w, http.StatusOK, ResetResponse{
		State:   a.node.RaffleState().String(),
		Round:   a.node.Round(),
		Players: a.node.NumberOfPlayers(),
	})
}
