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

// Package raffle wires the raffle core, its ledger, the local randomness
// coordinator, the upkeep keeper, the database journal and the query API into
// a single node.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/raffle/api"
	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/keeper"
	"github.com/blinklabs-io/raffle/ledger"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	journal       *database.Journal
	ledger        *ledger.Ledger
	coordinator   *oracle.MockCoordinator
	raffle        *raffle.Raffle
	fulfiller     *oracle.Fulfiller
	keeper        *keeper.Keeper
	api           *api.API
	cancel        context.CancelFunc
	shutdownFuncs []func(context.Context) error
	config        Config
	ready         chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Ready is closed once Run has started every component
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Raffle returns the raffle core. It is nil until Run has opened the database.
func (n *Node) Raffle() *raffle.Raffle {
	return n.raffle
}

// Ledger returns the account ledger backing entries and payouts
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Coordinator returns the local randomness coordinator
func (n *Node) Coordinator() *oracle.MockCoordinator {
	return n.coordinator
}

// EventBus returns the node's event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:      n.config.dataDir,
		Blob:         n.config.blobConfig,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Ledger
	n.ledger = ledger.NewLedger(ledger.LedgerConfig{
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	// Randomness coordinator
	coordAddr, ok := n.config.network.Coordinator()
	if !ok {
		coordAddr = DefaultCoordinatorAddress
	}
	coordinator, err := oracle.NewMockCoordinator(oracle.MockCoordinatorConfig{
		Address:      coordAddr,
		Store:        n.db.OracleStore(),
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to load coordinator: %w", err)
	}
	n.coordinator = coordinator
	subID, err := n.ensureSubscription()
	if err != nil {
		return fmt.Errorf("failed to set up oracle subscription: %w", err)
	}
	// Raffle core
	if err := n.loadRaffle(subID); err != nil {
		return err
	}
	n.coordinator.AttachConsumer(n.raffle)
	// Journal
	journal, err := database.NewJournal(database.JournalConfig{
		DB:       n.db,
		EventBus: n.eventBus,
		Raffle:   n.raffle,
		Logger:   n.config.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create journal: %w", err)
	}
	n.journal = journal
	if err := n.journal.Start(); err != nil {
		return fmt.Errorf("failed to start journal: %w", err)
	}
	// Development accounts
	if n.config.isDevMode() {
		if err := n.fundDevAccounts(); err != nil {
			return err
		}
	}
	// Local oracle
	n.fulfiller = oracle.NewFulfiller(oracle.FulfillerConfig{
		Coordinator: n.coordinator,
		EventBus:    n.eventBus,
		Logger:      n.config.logger,
		Delay:       n.config.fulfillDelay,
	})
	if err := n.fulfiller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start fulfiller: %w", err)
	}
	// Upkeep keeper
	n.keeper = keeper.NewKeeper(keeper.KeeperConfig{
		Upkeeper:     n.raffle,
		PollInterval: n.config.keeperPollInterval,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err := n.keeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start keeper: %w", err)
	}
	// Query API
	if n.config.apiListenAddress != "" {
		apiCfg := api.APIConfig{
			ListenAddress:    n.config.apiListenAddress,
			History:          n.db,
			MaxRequestsPerIP: n.config.apiMaxRequestsPerIP,
		}
		if n.config.isDevMode() {
			apiCfg.Wallet = n.ledger
			apiCfg.Operator = n.config.ownerAddress
		}
		n.api = api.New(apiCfg, n.raffle, n.config.logger)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	n.config.logger.Info(
		"raffle node started",
		"network", n.config.network.Name,
		"mode", n.config.runMode,
		"raffle", n.raffle.Address().Hex(),
		"round", n.raffle.Round(),
		"state", n.raffle.RaffleState().String(),
	)
	close(n.ready)

	// Wait for shutdown signal
	<-n.done
	return nil
}

// ensureSubscription reuses the subscription already serving the raffle, or
// creates and funds a new one owned by the configured owner
func (n *Node) ensureSubscription() (oracle.SubscriptionID, error) {
	if subs := n.coordinator.SubscriptionsFor(n.config.raffleAddress); len(subs) > 0 {
		return subs[0], nil
	}
	subID, err := n.coordinator.CreateSubscription(n.config.ownerAddress)
	if err != nil {
		return oracle.SubscriptionID{}, err
	}
	if n.config.subscriptionFunding != nil && !n.config.subscriptionFunding.IsZero() {
		if n.config.nativePayment {
			err = n.coordinator.FundSubscriptionWithNative(subID, n.config.subscriptionFunding)
		} else {
			err = n.coordinator.FundSubscription(subID, n.config.subscriptionFunding)
		}
		if err != nil {
			return oracle.SubscriptionID{}, fmt.Errorf("fund subscription: %w", err)
		}
	}
	if err := n.coordinator.AddConsumer(subID, n.config.raffleAddress); err != nil {
		return oracle.SubscriptionID{}, fmt.Errorf("add consumer: %w", err)
	}
	n.config.logger.Info(
		"created oracle subscription",
		"sub_id", subID.String(),
		"owner", n.config.ownerAddress.Hex(),
	)
	return subID, nil
}

func (n *Node) loadRaffle(subID oracle.SubscriptionID) error {
	fee, err := n.config.network.EntranceFeeWei()
	if err != nil {
		return err
	}
	keyHash, err := n.config.network.KeyHash()
	if err != nil {
		return err
	}
	r, err := raffle.NewRaffle(raffle.RaffleConfig{
		EntranceFee:           fee,
		Interval:              n.config.network.Interval,
		CallbackGasLimit:      n.config.network.CallbackGasLimit,
		KeyHash:               keyHash,
		SubscriptionID:        subID,
		NativePayment:         n.config.nativePayment,
		Coordinator:           n.coordinator,
		Address:               n.config.raffleAddress,
		Owner:                 n.config.ownerAddress,
		StuckRoundGracePeriod: n.config.stuckRoundGracePeriod,
		Payer:                 n.ledger,
		EventBus:              n.eventBus,
		Logger:                n.config.logger,
		PromRegistry:          n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}
	n.raffle = r
	snap, err := n.db.LoadRaffleSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load raffle snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	if err := n.raffle.Restore(*snap); err != nil {
		return fmt.Errorf("failed to restore raffle: %w", err)
	}
	// The ledger lives in memory, so the custodial account is re-credited with
	// the restored pool
	if snap.Balance != nil && !snap.Balance.IsZero() {
		if err := n.ledger.Mint(n.config.raffleAddress, snap.Balance); err != nil {
			return fmt.Errorf("failed to restore raffle pool: %w", err)
		}
		n.config.logger.Debug(
			"re-credited raffle pool",
			"amount", snap.Balance.Dec(),
		)
	}
	return nil
}

func (n *Node) fundDevAccounts() error {
	if n.config.devAccountBalance == nil || n.config.devAccountBalance.IsZero() {
		return nil
	}
	for _, addr := range ledger.DevAccounts(n.config.devAccounts) {
		if err := n.ledger.Mint(addr, n.config.devAccountBalance); err != nil {
			return fmt.Errorf("failed to fund dev account %s: %w", addr.Hex(), err)
		}
	}
	n.config.logger.Info(
		"funded development accounts",
		"count", n.config.devAccounts,
		"balance", n.config.devAccountBalance.Dec(),
	)
	return nil
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	if n.keeper != nil {
		n.keeper.Stop()
	}

	// Phase 2: Drain pending randomness
	n.config.logger.Debug("shutdown phase 2: stopping oracle")

	if n.fulfiller != nil {
		n.fulfiller.Stop()
	}

	if n.cancel != nil {
		n.cancel()
	}

	// Phase 3: Flush state and close database
	n.config.logger.Debug("shutdown phase 3: flushing state")

	if n.journal != nil {
		n.journal.Stop()
	}

	if n.db != nil {
		if n.raffle != nil {
			if saveErr := n.db.SaveRaffleSnapshot(n.raffle.Snapshot()); saveErr != nil {
				err = errors.Join(err, fmt.Errorf("raffle snapshot: %w", saveErr))
			}
		}
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Close()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
