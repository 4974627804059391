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

// Package keeper drives the raffle's upkeep: it polls the upkeep predicate on
// a fixed interval and performs the upkeep when it is due.
package keeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultPollInterval = 5 * time.Second

// Upkeeper is anything with a cheap predicate and an action to run when it
// holds
type Upkeeper interface {
	CheckUpkeep() bool
	PerformUpkeep(ctx context.Context) (oracle.RequestID, error)
}

type KeeperConfig struct {
	Upkeeper     Upkeeper
	PollInterval time.Duration
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Keeper calls PerformUpkeep whenever CheckUpkeep reports it is due
type Keeper struct {
	config  KeeperConfig
	logger  *slog.Logger
	metrics *keeperMetrics
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

func NewKeeper(cfg KeeperConfig) *Keeper {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	k := &Keeper{
		config: cfg,
		logger: cfg.Logger.With("component", "keeper"),
	}
	if cfg.PromRegistry != nil {
		k.metrics = newKeeperMetrics(cfg.PromRegistry)
	}
	return k
}

// Start begins polling in a goroutine and returns immediately
func (k *Keeper) Start(ctx context.Context) error {
	if k.config.Upkeeper == nil {
		return errors.New("keeper requires an upkeeper")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return nil
	}
	k.running = true
	var runCtx context.Context
	runCtx, k.cancel = context.WithCancel(ctx)
	k.wg.Add(1)
	go k.run(runCtx)
	k.logger.Info(
		"started upkeep keeper",
		"poll_interval", k.config.PollInterval.String(),
	)
	return nil
}

// Stop halts polling and waits for an in-progress tick to finish
func (k *Keeper) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	k.running = false
	k.cancel()
	k.mu.Unlock()
	k.wg.Wait()
	k.logger.Info("stopped upkeep keeper")
}

func (k *Keeper) run(ctx context.Context) {
	defer k.wg.Done()
	ticker := time.NewTicker(k.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Tick(ctx)
		}
	}
}

// Tick runs a single poll. It reports whether an upkeep was performed.
func (k *Keeper) Tick(ctx context.Context) bool {
	if k.metrics != nil {
		k.metrics.checks.Inc()
	}
	if !k.config.Upkeeper.CheckUpkeep() {
		return false
	}
	reqID, err := k.config.Upkeeper.PerformUpkeep(ctx)
	if err != nil {
		if errors.Is(err, raffle.ErrUpkeepNotNeeded) {
			// Another caller got there first
			if k.metrics != nil {
				k.metrics.lostRaces.Inc()
			}
			k.logger.Debug("upkeep no longer needed", "error", err)
			return false
		}
		if k.metrics != nil {
			k.metrics.failures.Inc()
		}
		k.logger.Error("upkeep failed", "error", err)
		return false
	}
	if k.metrics != nil {
		k.metrics.performed.Inc()
	}
	k.logger.Debug(
		"performed upkeep",
		"request_id", reqID.String(),
	)
	return true
}
