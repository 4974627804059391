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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/raffle/config/network"
	"github.com/blinklabs-io/raffle/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// runMode constants for operational mode configuration
const (
	runModeServe = "serve"
	runModeDev   = "dev"
)

const DefaultShutdownTimeout = 30 * time.Second

// DefaultCoordinatorAddress is used for the local coordinator when the network
// does not name one
var DefaultCoordinatorAddress = common.HexToAddress(
	"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
)

type Config struct {
	promRegistry          prometheus.Registerer
	logger                *slog.Logger
	network               network.Network
	dataDir               string
	blobConfig            database.BlobConfig
	runMode               string
	raffleAddress         common.Address
	ownerAddress          common.Address
	nativePayment         bool
	keeperPollInterval    time.Duration
	fulfillDelay          time.Duration
	stuckRoundGracePeriod time.Duration
	shutdownTimeout       time.Duration
	// Funding for a newly created subscription, in juels or wei
	subscriptionFunding *uint256.Int
	// Development accounts minted at startup in dev mode
	devAccounts       int
	devAccountBalance *uint256.Int
	// API listen address (empty = disabled)
	apiListenAddress    string
	apiMaxRequestsPerIP int
	tracing          bool
	tracingStdout    bool
}

// isDevMode returns true if running in development mode
func (c *Config) isDevMode() bool {
	return c.runMode == runModeDev
}

func (n *Node) configValidate() error {
	if n.config.network.Name == "" {
		return errors.New("no network configured")
	}
	if !n.config.network.IsDevelopment() {
		return fmt.Errorf(
			"network %s requires an on-chain coordinator, which this node does not provide",
			n.config.network.Name,
		)
	}
	switch n.config.runMode {
	case "", runModeServe, runModeDev:
	default:
		return fmt.Errorf("invalid run mode: %s", n.config.runMode)
	}
	if n.config.raffleAddress == (common.Address{}) {
		return errors.New("no raffle address configured")
	}
	if n.config.ownerAddress == (common.Address{}) {
		return errors.New("no owner address configured")
	}
	if n.config.raffleAddress == n.config.ownerAddress {
		return errors.New("raffle and owner addresses must differ")
	}
	if n.config.devAccounts < 0 {
		return fmt.Errorf("invalid dev account count: %d", n.config.devAccounts)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new raffle node config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		runMode: runModeServe,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobConfig specifies the tuning of the badger blob store
func WithBlobConfig(cfg database.BlobConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.blobConfig = cfg
	}
}

// WithLogger specifies the logger to use. The default discards all logs
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithNetwork specifies the resolved network parameters
func WithNetwork(n network.Network) ConfigOptionFunc {
	return func(c *Config) {
		c.network = n
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithRaffleAddress specifies the raffle's custodial account
func WithRaffleAddress(addr common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.raffleAddress = addr
	}
}

// WithOwnerAddress specifies the account that owns the oracle subscription and may reset a stuck round
func WithOwnerAddress(addr common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.ownerAddress = addr
	}
}

// WithNativePayment bills randomness requests to the subscription's native balance
func WithNativePayment(native bool) ConfigOptionFunc {
	return func(c *Config) {
		c.nativePayment = native
	}
}

// WithKeeperPollInterval specifies how often the keeper checks for upkeep
func WithKeeperPollInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.keeperPollInterval = interval
	}
}

// WithFulfillDelay specifies how long the local oracle waits before answering a request
func WithFulfillDelay(delay time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.fulfillDelay = delay
	}
}

// WithStuckRoundGracePeriod specifies how long a round may wait for randomness before the owner can reopen it
func WithStuckRoundGracePeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.stuckRoundGracePeriod = period
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. Default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithSubscriptionFunding specifies the balance given to a newly created oracle subscription
func WithSubscriptionFunding(amount *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.subscriptionFunding = amount
	}
}

// WithDevAccounts specifies how many development accounts to mint in dev mode, and their balance
func WithDevAccounts(count int, balance *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.devAccounts = count
		c.devAccountBalance = balance
	}
}

// WithRunMode sets the operational mode ("serve" or "dev").
// "dev" mode funds development accounts and enables the enter endpoint.
func WithRunMode(mode string) ConfigOptionFunc {
	return func(c *Config) {
		c.runMode = mode
	}
}

// WithApiListenAddress specifies the listen address for the query API server.
// Empty string disables the server.
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithApiMaxRequestsPerIP caps concurrent API requests from a single source address. Zero disables the limit.
func WithApiMaxRequestsPerIP(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiMaxRequestsPerIP = limit
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
