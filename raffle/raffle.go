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

// Package raffle implements a verifiably fair raffle. Participants pay an
// entrance fee to join the current round. Once the round interval has passed
// and the round has entrants and funds, an upkeep requests random words from
// an oracle. The oracle answers asynchronously, a winner is chosen from the
// first word and the whole pool is paid out to them.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// RequestConfirmations is how many blocks the oracle waits before answering
	RequestConfirmations uint16 = 3
	// NumWords is how many random words each round requests
	NumWords uint32 = 1
)

var _ oracle.RetryClassifier = (*Raffle)(nil)

// Payer moves funds out of the raffle's custodial account
type Payer interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

type RaffleConfig struct {
	// EntranceFee is the minimum payment in wei for one entry
	EntranceFee *uint256.Int
	// Interval is the minimum round duration
	Interval         time.Duration
	CallbackGasLimit uint32
	// KeyHash selects the oracle gas lane
	KeyHash        common.Hash
	SubscriptionID oracle.SubscriptionID
	NativePayment  bool
	Coordinator    oracle.Coordinator
	// Address is the raffle's custodial account holding the prize pool
	Address common.Address
	// Owner may reopen a round whose randomness never arrived
	Owner common.Address
	// StuckRoundGracePeriod is how long a round must wait for randomness
	// before the owner may reopen it. Zero disables the reset.
	StuckRoundGracePeriod time.Duration
	Payer                 Payer
	EventBus              *event.EventBus
	Logger                *slog.Logger
	PromRegistry          prometheus.Registerer
	Clock                 func() time.Time
}

type pendingRequest struct {
	id          oracle.RequestID
	requestedAt time.Time
}

// Raffle is the raffle state machine. All methods are safe for concurrent use.
type Raffle struct {
	mu            sync.Mutex
	config        RaffleConfig
	logger        *slog.Logger
	metrics       *raffleMetrics
	state         State
	players       []common.Address
	balance       uint256.Int
	lastTimestamp time.Time
	lastWinner    common.Address
	pending       *pendingRequest
	round         uint64
}

func NewRaffle(cfg RaffleConfig) (*Raffle, error) {
	if cfg.EntranceFee == nil {
		cfg.EntranceFee = new(uint256.Int)
	} else {
		cfg.EntranceFee = cfg.EntranceFee.Clone()
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if cfg.Coordinator == nil {
		return nil, fmt.Errorf("%w: no coordinator", ErrInvalidConfig)
	}
	if cfg.Payer == nil {
		return nil, fmt.Errorf("%w: no payer", ErrInvalidConfig)
	}
	if cfg.SubscriptionID.IsZero() {
		return nil, fmt.Errorf("%w: no subscription", ErrInvalidConfig)
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: no custodial address", ErrInvalidConfig)
	}
	if cfg.StuckRoundGracePeriod < 0 {
		return nil, fmt.Errorf("%w: negative grace period", ErrInvalidConfig)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r := &Raffle{
		config:        cfg,
		logger:        cfg.Logger.With("component", "raffle"),
		state:         StateOpen,
		lastTimestamp: cfg.Clock(),
		round:         1,
	}
	if cfg.PromRegistry != nil {
		r.metrics = newRaffleMetrics(cfg.PromRegistry)
	}
	r.updateGauges()
	return r, nil
}

// Address identifies the raffle to the randomness coordinator
func (r *Raffle) Address() common.Address {
	return r.config.Address
}

// Enter records one entry for participant. amount is the payment already
// received into the raffle's custodial account.
func (r *Raffle) Enter(
	_ context.Context,
	participant common.Address,
	amount *uint256.Int,
) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	r.mu.Lock()
	if amount.Lt(r.config.EntranceFee) {
		r.mu.Unlock()
		return &InsufficientPaymentError{
			Sent:     amount.Clone(),
			Required: r.config.EntranceFee.Clone(),
		}
	}
	if r.state != StateOpen {
		r.mu.Unlock()
		return ErrRaffleNotOpen
	}
	var newBalance uint256.Int
	if _, overflow := newBalance.AddOverflow(&r.balance, amount); overflow {
		r.mu.Unlock()
		return ErrBalanceOverflow
	}
	r.balance = newBalance
	r.players = append(r.players, participant)
	round := r.round
	if r.metrics != nil {
		r.metrics.entries.Inc()
	}
	r.updateGauges()
	r.mu.Unlock()
	r.logger.Debug(
		"raffle entered",
		"player", participant.Hex(),
		"amount", amount.Dec(),
		"round", round,
	)
	r.publish(
		EnteredEventType,
		RaffleEnteredEvent{
			Player: participant,
			Amount: amount.Clone(),
			Round:  round,
		},
	)
	return nil
}

// UpkeepStatus holds the inputs of the upkeep predicate
type UpkeepStatus struct {
	State      State
	Elapsed    time.Duration
	Interval   time.Duration
	Players    int
	Balance    *uint256.Int
	IsOpen     bool
	TimePassed bool
	HasPlayers bool
	HasBalance bool
}

// Needed is true when every condition for starting a draw holds
func (u UpkeepStatus) Needed() bool {
	return u.IsOpen && u.TimePassed && u.HasPlayers && u.HasBalance
}

// CheckUpkeep reports whether PerformUpkeep would currently succeed. It has
// no side effects.
func (r *Raffle) CheckUpkeep() bool {
	return r.UpkeepStatus().Needed()
}

func (r *Raffle) UpkeepStatus() UpkeepStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upkeepStatusLocked(r.config.Clock())
}

func (r *Raffle) upkeepStatusLocked(now time.Time) UpkeepStatus {
	elapsed := now.Sub(r.lastTimestamp)
	return UpkeepStatus{
		State:      r.state,
		Elapsed:    elapsed,
		Interval:   r.config.Interval,
		Players:    len(r.players),
		Balance:    r.balance.Clone(),
		IsOpen:     r.state == StateOpen,
		TimePassed: elapsed > r.config.Interval,
		HasPlayers: len(r.players) > 0,
		HasBalance: !r.balance.IsZero(),
	}
}

// PerformUpkeep closes the round and requests randomness for it. The upkeep
// predicate is re-evaluated under the same lock that applies the transition,
// so concurrent callers cannot open two requests.
func (r *Raffle) PerformUpkeep(ctx context.Context) (oracle.RequestID, error) {
	r.mu.Lock()
	now := r.config.Clock()
	status := r.upkeepStatusLocked(now)
	if !status.Needed() {
		if r.metrics != nil {
			r.metrics.upkeepRejections.Inc()
		}
		r.mu.Unlock()
		return oracle.RequestID{}, &UpkeepNotNeededError{
			Balance: status.Balance,
			Players: status.Players,
			State:   status.State,
		}
	}
	reqID, err := r.config.Coordinator.RequestRandomWords(
		ctx,
		r,
		oracle.RandomWordsRequest{
			KeyHash:              r.config.KeyHash,
			SubID:                r.config.SubscriptionID,
			RequestConfirmations: RequestConfirmations,
			CallbackGasLimit:     r.config.CallbackGasLimit,
			NumWords:             NumWords,
			NativePayment:        r.config.NativePayment,
		},
	)
	if err != nil {
		r.mu.Unlock()
		return oracle.RequestID{}, fmt.Errorf("request random words: %w", err)
	}
	r.state = StateCalculating
	r.pending = &pendingRequest{id: reqID, requestedAt: now}
	round := r.round
	r.updateGauges()
	r.mu.Unlock()
	r.logger.Info(
		"requested randomness",
		"request_id", reqID.String(),
		"round", round,
		"players", status.Players,
		"balance", status.Balance.Dec(),
	)
	r.publish(
		RandomnessRequestedEventType,
		RandomnessRequestedEvent{RequestID: reqID, Round: round},
	)
	return reqID, nil
}

// FulfillRandomWords resolves the round for the pending request. The winner
// index is the first word modulo the number of entries. If paying the winner
// fails nothing is applied and the round stays pending on the same request.
func (r *Raffle) FulfillRandomWords(
	ctx context.Context,
	requestID oracle.RequestID,
	randomWords []uint256.Int,
) error {
	r.mu.Lock()
	if r.pending == nil || r.pending.id != requestID {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidRequest, requestID.String())
	}
	if len(randomWords) == 0 {
		r.mu.Unlock()
		return ErrInvalidRandomWords
	}
	numPlayers := len(r.players)
	if numPlayers == 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: round has no players", ErrInvalidRequest)
	}
	var idx uint256.Int
	idx.Mod(&randomWords[0], uint256.NewInt(uint64(numPlayers)))
	winner := r.players[idx.Uint64()]
	prize := r.balance.Clone()
	round := r.round
	requestedAt := r.pending.requestedAt
	if err := r.config.Payer.Transfer(ctx, r.config.Address, winner, prize); err != nil {
		if r.metrics != nil {
			r.metrics.payoutFailures.Inc()
		}
		r.mu.Unlock()
		r.logger.Error(
			"winner payout failed, round remains pending",
			"winner", winner.Hex(),
			"amount", prize.Dec(),
			"request_id", requestID.String(),
			"error", err,
		)
		r.publish(
			PayoutFailedEventType,
			PayoutFailedEvent{
				Winner:    winner,
				Amount:    prize.Clone(),
				RequestID: requestID,
				Round:     round,
				Error:     err.Error(),
			},
		)
		return &PayoutFailedError{Winner: winner, Amount: prize, Err: err}
	}
	now := r.config.Clock()
	r.lastWinner = winner
	r.players = nil
	r.balance.Clear()
	r.lastTimestamp = now
	r.state = StateOpen
	r.pending = nil
	r.round++
	if r.metrics != nil {
		r.metrics.rounds.Inc()
		r.metrics.randomnessLatency.Observe(now.Sub(requestedAt).Seconds())
	}
	r.updateGauges()
	r.mu.Unlock()
	r.logger.Info(
		"winner picked",
		"winner", winner.Hex(),
		"prize", prize.Dec(),
		"round", round,
		"request_id", requestID.String(),
	)
	r.publish(
		WinnerPickedEventType,
		WinnerPickedEvent{
			Winner:    winner,
			Prize:     prize,
			RequestID: requestID,
			Round:     round,
			Players:   numPlayers,
		},
	)
	return nil
}

// IsRetryable reports whether a rejected fulfillment may succeed when the
// same request is delivered again. Only a failed payout qualifies.
func (r *Raffle) IsRetryable(err error) bool {
	return errors.Is(err, ErrPayoutFailed)
}

// ResetStuckRound reopens a round whose randomness has not arrived within the
// grace period. Entries and the pool carry over and the next upkeep requests
// fresh randomness. A late answer to the abandoned request is rejected.
func (r *Raffle) ResetStuckRound(_ context.Context, caller common.Address) error {
	if caller != r.config.Owner {
		return ErrNotOwner
	}
	r.mu.Lock()
	if r.state != StateCalculating || r.pending == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: raffle is %s", ErrRoundNotStuck, r.state.String())
	}
	if r.config.StuckRoundGracePeriod <= 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: reset disabled", ErrRoundNotStuck)
	}
	waited := r.config.Clock().Sub(r.pending.requestedAt)
	if waited <= r.config.StuckRoundGracePeriod {
		r.mu.Unlock()
		return fmt.Errorf(
			"%w: waited %s of %s",
			ErrRoundNotStuck,
			waited,
			r.config.StuckRoundGracePeriod,
		)
	}
	reqID := r.pending.id
	round := r.round
	r.pending = nil
	r.state = StateOpen
	if r.metrics != nil {
		r.metrics.roundResets.Inc()
	}
	r.updateGauges()
	r.mu.Unlock()
	r.logger.Warn(
		"stuck round reopened",
		"request_id", reqID.String(),
		"round", round,
		"waited", waited.String(),
	)
	r.publish(
		RoundResetEventType,
		RoundResetEvent{RequestID: reqID, Round: round, Caller: caller},
	)
	return nil
}

// updateGauges must be called with the lock held
func (r *Raffle) updateGauges() {
	if r.metrics == nil {
		return
	}
	r.metrics.players.Set(float64(len(r.players)))
	bal, _ := new(big.Float).SetInt(r.balance.ToBig()).Float64()
	r.metrics.poolBalance.Set(bal)
	r.metrics.state.Set(float64(r.state))
}

func (r *Raffle) publish(evtType event.EventType, data any) {
	if r.config.EventBus == nil {
		return
	}
	r.config.EventBus.Publish(evtType, event.NewEvent(evtType, data))
}
