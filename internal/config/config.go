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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/raffle/config/network"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "raffle.config"

const DefaultShutdownTimeout = 30 * time.Second

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// RunMode represents the operational mode of the raffle node
type RunMode string

const (
	RunModeServe RunMode = "serve" // Persistent node against the configured network (default)
	RunModeDev   RunMode = "dev"   // Development mode (mock coordinator, funded accounts, enter endpoint)
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

// IsDevMode returns true if the mode enables development behaviors
func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

type Config struct {
	Network             string  `yaml:"network"`
	NetworksFile        string  `yaml:"networksFile"        split_words:"true"`
	DatabasePath        string  `yaml:"databasePath"        split_words:"true"`
	BindAddr            string  `yaml:"bindAddr"            split_words:"true"`
	ApiPort             uint    `yaml:"apiPort"             split_words:"true"`
	ApiMaxRequestsPerIP int     `yaml:"apiMaxRequestsPerIP" split_words:"true"`
	MetricsPort         uint    `yaml:"metricsPort"         split_words:"true"`
	RunMode             RunMode `yaml:"runMode"             split_words:"true"`
	// Raffle identity
	RaffleAddress string `yaml:"raffleAddress"         split_words:"true"`
	OwnerAddress  string `yaml:"ownerAddress"          split_words:"true"`
	// Overrides for the network table (empty or zero keeps the table value)
	EntranceFee      string        `yaml:"entranceFee"      split_words:"true"`
	Interval         time.Duration `yaml:"interval"`
	CallbackGasLimit uint32        `yaml:"callbackGasLimit" split_words:"true"`
	NativePayment    bool          `yaml:"nativePayment"    split_words:"true"`
	// Timing
	KeeperPollInterval    time.Duration `yaml:"keeperPollInterval"    split_words:"true"`
	FulfillDelay          time.Duration `yaml:"fulfillDelay"          split_words:"true"`
	StuckRoundGracePeriod time.Duration `yaml:"stuckRoundGracePeriod" split_words:"true"`
	ShutdownTimeout       time.Duration `yaml:"shutdownTimeout"       split_words:"true"`
	// Development mode funding, in wei
	SubscriptionFunding string `yaml:"subscriptionFunding" split_words:"true"`
	DevAccounts         int    `yaml:"devAccounts"         split_words:"true"`
	DevAccountBalance   string `yaml:"devAccountBalance"   split_words:"true"`
	// Blob store tuning (zero keeps the store default)
	BlobBlockCacheSize   uint64        `yaml:"blobBlockCacheSize"   split_words:"true"`
	BlobIndexCacheSize   uint64        `yaml:"blobIndexCacheSize"   split_words:"true"`
	BlobValueLogFileSize int64         `yaml:"blobValueLogFileSize" split_words:"true"`
	BlobMemTableSize     int64         `yaml:"blobMemTableSize"     split_words:"true"`
	BlobValueThreshold   int64         `yaml:"blobValueThreshold"   split_words:"true"`
	BlobGcInterval       time.Duration `yaml:"blobGcInterval"       split_words:"true"`
	BlobDisableGc        bool          `yaml:"blobDisableGc"        split_words:"true"`
	// Tracing
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		Network:               "hardhat",
		DatabasePath:          ".raffle",
		BindAddr:              "0.0.0.0",
		ApiPort:               3000,
		ApiMaxRequestsPerIP:   16,
		MetricsPort:           12798,
		RunMode:               RunModeServe,
		RaffleAddress:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		OwnerAddress:          "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		KeeperPollInterval:    5 * time.Second,
		FulfillDelay:          2 * time.Second,
		StuckRoundGracePeriod: time.Hour,
		ShutdownTimeout:       DefaultShutdownTimeout,
		// 10 LINK
		SubscriptionFunding: "10000000000000000000",
		DevAccounts:         10,
		// 10000 ETH
		DevAccountBalance: "10000000000000000000000",
	}
}

var globalConfig = defaultConfig()

// LoadConfig builds the configuration from defaults, the YAML config file and
// RAFFLE_* environment variables, in increasing order of precedence
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.raffle/raffle.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".raffle", "raffle.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/raffle/raffle.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/raffle/raffle.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	if err := envconfig.Process("raffle", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if cfg.RunMode == "" {
		cfg.RunMode = RunModeServe
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

func (c *Config) validate() error {
	if !c.RunMode.Valid() {
		return fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			c.RunMode,
		)
	}
	if !common.IsHexAddress(c.RaffleAddress) {
		return fmt.Errorf("invalid raffleAddress: %q", c.RaffleAddress)
	}
	if !common.IsHexAddress(c.OwnerAddress) {
		return fmt.Errorf("invalid ownerAddress: %q", c.OwnerAddress)
	}
	for name, val := range map[string]string{
		"entranceFee":         c.EntranceFee,
		"subscriptionFunding": c.SubscriptionFunding,
		"devAccountBalance":   c.DevAccountBalance,
	} {
		if val == "" {
			continue
		}
		if _, err := uint256.FromDecimal(val); err != nil {
			return fmt.Errorf("invalid %s: %q: %w", name, val, err)
		}
	}
	if c.Interval < 0 || c.KeeperPollInterval < 0 || c.FulfillDelay < 0 ||
		c.StuckRoundGracePeriod < 0 || c.ShutdownTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.DevAccounts < 0 {
		return fmt.Errorf("invalid devAccounts: %d", c.DevAccounts)
	}
	if c.BlobValueLogFileSize < 0 || c.BlobMemTableSize < 0 ||
		c.BlobValueThreshold < 0 || c.BlobGcInterval < 0 {
		return errors.New("blob store sizes and intervals must not be negative")
	}
	if c.ApiMaxRequestsPerIP < 0 {
		return fmt.Errorf("invalid apiMaxRequestsPerIP: %d", c.ApiMaxRequestsPerIP)
	}
	return nil
}

// ResolveNetwork loads the network table and applies the raffle parameter
// overrides from this config
func (c *Config) ResolveNetwork() (network.Network, error) {
	networks, err := network.LoadWithFallback(c.NetworksFile)
	if err != nil {
		return network.Network{}, err
	}
	n, err := network.ByName(networks, c.Network)
	if err != nil {
		return network.Network{}, err
	}
	if c.EntranceFee != "" {
		n.EntranceFee = c.EntranceFee
	}
	if c.Interval > 0 {
		n.Interval = c.Interval
	}
	if c.CallbackGasLimit > 0 {
		n.CallbackGasLimit = c.CallbackGasLimit
	}
	return n, nil
}
