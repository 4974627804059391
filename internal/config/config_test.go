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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "raffle.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	tmpFile := writeConfig(t, `
network: "sepolia"
databasePath: "/var/lib/raffle"
bindAddr: "127.0.0.1"
apiPort: 8080
metricsPort: 8088
apiMaxRequestsPerIP: 4
runMode: "dev"
raffleAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
ownerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
entranceFee: "20000000000000000"
interval: 1m
callbackGasLimit: 600000
nativePayment: true
keeperPollInterval: 1s
fulfillDelay: 500ms
stuckRoundGracePeriod: 0s
shutdownTimeout: 10s
subscriptionFunding: "1"
devAccounts: 3
devAccountBalance: "2"
blobBlockCacheSize: 1048576
blobIndexCacheSize: 2097152
blobValueLogFileSize: 8388608
blobMemTableSize: 4194304
blobValueThreshold: 512
blobGcInterval: 10m
blobDisableGc: true
tracing: true
tracingStdout: true
`)
	expected := &Config{
		Network:               "sepolia",
		DatabasePath:          "/var/lib/raffle",
		BindAddr:              "127.0.0.1",
		ApiPort:               8080,
		ApiMaxRequestsPerIP:   4,
		MetricsPort:           8088,
		RunMode:               RunModeDev,
		RaffleAddress:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		OwnerAddress:          "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		EntranceFee:           "20000000000000000",
		Interval:              time.Minute,
		CallbackGasLimit:      600000,
		NativePayment:         true,
		KeeperPollInterval:    time.Second,
		FulfillDelay:          500 * time.Millisecond,
		StuckRoundGracePeriod: 0,
		ShutdownTimeout:       10 * time.Second,
		SubscriptionFunding:   "1",
		DevAccounts:           3,
		DevAccountBalance:     "2",
		BlobBlockCacheSize:    1 << 20,
		BlobIndexCacheSize:    2 << 20,
		BlobValueLogFileSize:  8 << 20,
		BlobMemTableSize:      4 << 20,
		BlobValueThreshold:    512,
		BlobGcInterval:        10 * time.Minute,
		BlobDisableGc:         true,
		Tracing:               true,
		TracingStdout:         true,
	}
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.Equal(t, expected, cfg)
	require.Same(t, cfg, GetConfig())
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.Equal(t, time.Hour, cfg.StuckRoundGracePeriod)
	require.Equal(t, RunModeServe, cfg.RunMode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpFile := writeConfig(t, "network: sepolia\napiPort: 8080\n")
	t.Setenv("RAFFLE_NETWORK", "localhost")
	t.Setenv("RAFFLE_RUN_MODE", "dev")
	t.Setenv("RAFFLE_STUCK_ROUND_GRACE_PERIOD", "15m")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.Network)
	require.Equal(t, uint(8080), cfg.ApiPort)
	require.True(t, cfg.RunMode.IsDevMode())
	require.Equal(t, 15*time.Minute, cfg.StuckRoundGracePeriod)
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []struct {
		name string
		yaml string
	}{
		{name: "run mode", yaml: "runMode: load"},
		{name: "raffle address", yaml: "raffleAddress: nope"},
		{name: "owner address", yaml: "ownerAddress: 0x12"},
		{name: "entrance fee", yaml: "entranceFee: \"-1\""},
		{name: "negative duration", yaml: "keeperPollInterval: -1s"},
		{name: "dev accounts", yaml: "devAccounts: -2"},
		{name: "blob memtable size", yaml: "blobMemTableSize: -1"},
		{name: "blob gc interval", yaml: "blobGcInterval: -5m"},
		{name: "malformed", yaml: "network: [unterminated"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, testDef.yaml))
			require.Error(t, err)
		})
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRunMode(t *testing.T) {
	require.True(t, RunModeServe.Valid())
	require.True(t, RunModeDev.Valid())
	require.True(t, RunMode("").Valid())
	require.False(t, RunMode("load").Valid())
	require.True(t, RunModeDev.IsDevMode())
	require.False(t, RunModeServe.IsDevMode())
}

func TestResolveNetwork(t *testing.T) {
	cfg := defaultConfig()
	n, err := cfg.ResolveNetwork()
	require.NoError(t, err)
	require.Equal(t, "hardhat", n.Name)
	require.Equal(t, 30*time.Second, n.Interval)

	cfg.Network = "sepolia"
	cfg.EntranceFee = "5"
	cfg.Interval = 2 * time.Minute
	cfg.CallbackGasLimit = 100_000
	n, err = cfg.ResolveNetwork()
	require.NoError(t, err)
	require.Equal(t, "5", n.EntranceFee)
	require.Equal(t, 2*time.Minute, n.Interval)
	require.Equal(t, uint32(100_000), n.CallbackGasLimit)

	cfg.Network = "mainnet"
	_, err = cfg.ResolveNetwork()
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	require.Same(t, cfg, FromContext(ctx))
}
