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

// Package simulate drives the raffle through a number of rounds in process,
// with a fake clock and seeded randomness, for demonstrations and testing.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/keeper"
	"github.com/blinklabs-io/raffle/ledger"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	raffleAddress      = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	ownerAddress       = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	coordinatorAddress = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

	// 0.01 ETH
	DefaultEntranceFee = uint256.NewInt(10_000_000_000_000_000)
	// 1 LINK, well above the cost of one request at the default gas price
	subscriptionFundingPerRound = uint256.MustFromDecimal("1000000000000000000")

	startTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
)

const DefaultInterval = 30 * time.Second

type Config struct {
	Players     int
	Rounds      int
	Seed        uint64
	EntranceFee *uint256.Int
	Interval    time.Duration
	Logger      *slog.Logger
}

type RoundResult struct {
	Round     uint64
	Entries   int
	Winner    common.Address
	Prize     *uint256.Int
	RequestID oracle.RequestID
	ClosedAt  time.Time
}

type Result struct {
	Rounds []RoundResult
	// Players holds every simulated account, in creation order
	Players  []common.Address
	Balances map[common.Address]*uint256.Int
	// Funded is the starting balance of every player
	Funded *uint256.Int
}

type simulation struct {
	config      Config
	bus         *event.EventBus
	ledger      *ledger.Ledger
	coordinator *oracle.MockCoordinator
	raffle      *raffle.Raffle
	keeper      *keeper.Keeper
	rng         *rand.Rand
	now         time.Time
	players     []common.Address
}

// Run plays cfg.Rounds rounds. Each round a seeded random subset of the
// players enters, the clock jumps past the interval, the keeper performs the
// upkeep and the oracle answers with seeded random words.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Players <= 0 {
		return nil, errors.New("at least one player is required")
	}
	if cfg.Rounds < 0 {
		return nil, errors.New("rounds must not be negative")
	}
	if cfg.EntranceFee == nil {
		cfg.EntranceFee = DefaultEntranceFee
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &simulation{
		config: cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		now:    startTime,
	}
	s.bus = event.NewEventBus(nil, cfg.Logger)
	defer s.bus.Close()
	if err := s.setup(); err != nil {
		return nil, err
	}
	_, winCh := s.bus.Subscribe(raffle.WinnerPickedEventType)
	ret := &Result{
		Players:  s.players,
		Balances: make(map[common.Address]*uint256.Int),
	}
	ret.Funded = new(uint256.Int).Mul(cfg.EntranceFee, uint256.NewInt(uint64(cfg.Rounds)))
	for range cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.playRound(ctx, winCh)
		if err != nil {
			return nil, err
		}
		ret.Rounds = append(ret.Rounds, *res)
	}
	for _, p := range s.players {
		ret.Balances[p] = s.ledger.BalanceOf(p)
	}
	return ret, nil
}

func (s *simulation) clock() time.Time {
	return s.now
}

func (s *simulation) setup() error {
	s.ledger = ledger.NewLedger(ledger.LedgerConfig{Logger: s.config.Logger})
	coordinator, err := oracle.NewMockCoordinator(oracle.MockCoordinatorConfig{
		Address:  coordinatorAddress,
		EventBus: s.bus,
		Logger:   s.config.Logger,
	})
	if err != nil {
		return err
	}
	s.coordinator = coordinator
	subID, err := s.coordinator.CreateSubscription(ownerAddress)
	if err != nil {
		return err
	}
	subFunding := new(uint256.Int).Mul(
		subscriptionFundingPerRound,
		uint256.NewInt(uint64(s.config.Rounds)+1),
	)
	if err := s.coordinator.FundSubscription(subID, subFunding); err != nil {
		return err
	}
	if err := s.coordinator.AddConsumer(subID, raffleAddress); err != nil {
		return err
	}
	s.raffle, err = raffle.NewRaffle(raffle.RaffleConfig{
		EntranceFee:      s.config.EntranceFee,
		Interval:         s.config.Interval,
		CallbackGasLimit: 500_000,
		SubscriptionID:   subID,
		Coordinator:      s.coordinator,
		Address:          raffleAddress,
		Owner:            ownerAddress,
		Payer:            s.ledger,
		EventBus:         s.bus,
		Logger:           s.config.Logger,
		Clock:            s.clock,
	})
	if err != nil {
		return err
	}
	s.keeper = keeper.NewKeeper(keeper.KeeperConfig{
		Upkeeper: s.raffle,
		Logger:   s.config.Logger,
	})
	s.players = ledger.DevAccounts(s.config.Players)
	funding := new(uint256.Int).Mul(
		s.config.EntranceFee,
		uint256.NewInt(uint64(s.config.Rounds)),
	)
	if funding.IsZero() {
		return nil
	}
	for _, p := range s.players {
		if err := s.ledger.Mint(p, funding); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) playRound(
	ctx context.Context,
	winCh <-chan event.Event,
) (*RoundResult, error) {
	round := s.raffle.Round()
	count := 1 + s.rng.IntN(len(s.players))
	order := s.rng.Perm(len(s.players))
	for _, idx := range order[:count] {
		p := s.players[idx]
		if err := s.ledger.Transfer(ctx, p, raffleAddress, s.config.EntranceFee); err != nil {
			return nil, fmt.Errorf("round %d: pay entrance fee: %w", round, err)
		}
		if err := s.raffle.Enter(ctx, p, s.config.EntranceFee); err != nil {
			return nil, fmt.Errorf("round %d: enter: %w", round, err)
		}
	}
	s.now = s.now.Add(s.config.Interval + time.Second)
	if !s.keeper.Tick(ctx) {
		return nil, fmt.Errorf("round %d: upkeep was not performed", round)
	}
	reqID, _, ok := s.raffle.PendingRequest()
	if !ok {
		return nil, fmt.Errorf("round %d: no randomness request pending", round)
	}
	word := uint256.Int{s.rng.Uint64(), s.rng.Uint64(), s.rng.Uint64(), s.rng.Uint64()}
	if err := s.coordinator.FulfillRandomWordsWithOverride(
		ctx,
		reqID,
		[]uint256.Int{word},
	); err != nil {
		return nil, fmt.Errorf("round %d: fulfill: %w", round, err)
	}
	// The raffle publishes synchronously, so the event is already buffered
	select {
	case evt := <-winCh:
		picked := evt.Data.(raffle.WinnerPickedEvent)
		return &RoundResult{
			Round:     picked.Round,
			Entries:   picked.Players,
			Winner:    picked.Winner,
			Prize:     picked.Prize,
			RequestID: picked.RequestID,
			ClosedAt:  s.now,
		}, nil
	default:
		return nil, fmt.Errorf("round %d: no winner was picked", round)
	}
}
