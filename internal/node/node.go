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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/raffle"
	"github.com/blinklabs-io/raffle/database"
	"github.com/blinklabs-io/raffle/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options converts the loaded configuration into node options
func Options(cfg *config.Config, logger *slog.Logger) ([]raffle.ConfigOptionFunc, error) {
	network, err := cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}
	if _, err := network.EntranceFeeWei(); err != nil {
		return nil, err
	}
	if _, err := network.KeyHash(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(cfg.RaffleAddress) {
		return nil, fmt.Errorf("invalid raffle address: %q", cfg.RaffleAddress)
	}
	if !common.IsHexAddress(cfg.OwnerAddress) {
		return nil, fmt.Errorf("invalid owner address: %q", cfg.OwnerAddress)
	}
	funding, err := parseWei("subscription funding", cfg.SubscriptionFunding)
	if err != nil {
		return nil, err
	}
	devBalance, err := parseWei("dev account balance", cfg.DevAccountBalance)
	if err != nil {
		return nil, err
	}
	opts := []raffle.ConfigOptionFunc{
		raffle.WithDatabasePath(cfg.DatabasePath),
		raffle.WithBlobConfig(database.BlobConfig{
			BlockCacheSize:   cfg.BlobBlockCacheSize,
			IndexCacheSize:   cfg.BlobIndexCacheSize,
			ValueLogFileSize: cfg.BlobValueLogFileSize,
			MemTableSize:     cfg.BlobMemTableSize,
			ValueThreshold:   cfg.BlobValueThreshold,
			GcInterval:       cfg.BlobGcInterval,
			DisableGc:        cfg.BlobDisableGc,
		}),
		raffle.WithNetwork(network),
		raffle.WithRunMode(string(cfg.RunMode)),
		raffle.WithRaffleAddress(common.HexToAddress(cfg.RaffleAddress)),
		raffle.WithOwnerAddress(common.HexToAddress(cfg.OwnerAddress)),
		raffle.WithNativePayment(cfg.NativePayment),
		raffle.WithKeeperPollInterval(cfg.KeeperPollInterval),
		raffle.WithFulfillDelay(cfg.FulfillDelay),
		raffle.WithStuckRoundGracePeriod(cfg.StuckRoundGracePeriod),
		raffle.WithShutdownTimeout(cfg.ShutdownTimeout),
		raffle.WithSubscriptionFunding(funding),
		raffle.WithDevAccounts(cfg.DevAccounts, devBalance),
		raffle.WithApiMaxRequestsPerIP(cfg.ApiMaxRequestsPerIP),
		raffle.WithTracing(cfg.Tracing),
		raffle.WithTracingStdout(cfg.TracingStdout),
	}
	if logger != nil {
		opts = append(opts, raffle.WithLogger(logger))
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			raffle.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts, nil
}

func parseWei(name, val string) (*uint256.Int, error) {
	if val == "" {
		return nil, nil
	}
	ret, err := uint256.FromDecimal(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, val, err)
	}
	return ret, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := Options(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(
		opts,
		// Enable metrics with default prometheus registry
		raffle.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	n, err := raffle.New(raffle.NewConfig(opts...))
	if err != nil {
		return err
	}
	shutdownTimeout := raffle.DefaultShutdownTimeout
	if cfg.ShutdownTimeout > 0 {
		shutdownTimeout = cfg.ShutdownTimeout
	}
	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- n.Run()
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		signalCtxStop()
		shutdownMetrics()
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		if err != nil {
			logger.Error("node error", "error", err)
			return err
		}
		logger.Info("node stopped")
		return nil
	}
}
