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

// Package network describes the chains a raffle can be deployed against and
// the per-chain raffle parameters.
package network

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

//go:embed networks.yaml
var embeddedNetworks []byte

// DevelopmentChains are served by the local mock coordinator
var DevelopmentChains = []string{"hardhat", "localhost"}

var ErrUnknownNetwork = errors.New("unknown network")

// Network holds the raffle parameters for one chain
type Network struct {
	Name               string        `yaml:"name"`
	ChainID            uint64        `yaml:"chainId"`
	VRFCoordinator     string        `yaml:"vrfCoordinator,omitempty"`
	EntranceFee        string        `yaml:"entranceFee"`
	GasLane            string        `yaml:"gasLane,omitempty"`
	SubscriptionID     string        `yaml:"subscriptionId,omitempty"`
	CallbackGasLimit   uint32        `yaml:"callbackGasLimit"`
	Interval           time.Duration `yaml:"interval"`
	BlockConfirmations uint16        `yaml:"blockConfirmations"`
}

// IsDevelopment reports whether the network uses the local mock coordinator
func (n Network) IsDevelopment() bool {
	return IsDevelopment(n.Name)
}

// EntranceFeeWei parses the entrance fee, in wei
func (n Network) EntranceFeeWei() (*uint256.Int, error) {
	if n.EntranceFee == "" {
		return new(uint256.Int), nil
	}
	ret, err := uint256.FromDecimal(n.EntranceFee)
	if err != nil {
		return nil, fmt.Errorf("network %s: invalid entrance fee %q: %w", n.Name, n.EntranceFee, err)
	}
	return ret, nil
}

// KeyHash parses the gas lane. An empty gas lane is the zero hash.
func (n Network) KeyHash() (common.Hash, error) {
	if n.GasLane == "" {
		return common.Hash{}, nil
	}
	b, err := hexBytes(n.GasLane)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("network %s: invalid gas lane %q", n.Name, n.GasLane)
	}
	return common.BytesToHash(b), nil
}

// Coordinator returns the coordinator address, or false for networks that use
// the local mock
func (n Network) Coordinator() (common.Address, bool) {
	if !common.IsHexAddress(n.VRFCoordinator) {
		return common.Address{}, false
	}
	return common.HexToAddress(n.VRFCoordinator), true
}

func (n Network) validate() error {
	if n.Name == "" {
		return errors.New("network without a name")
	}
	if n.ChainID == 0 {
		return fmt.Errorf("network %s: missing chain id", n.Name)
	}
	if n.Interval <= 0 {
		return fmt.Errorf("network %s: interval must be positive", n.Name)
	}
	if n.VRFCoordinator != "" && !common.IsHexAddress(n.VRFCoordinator) {
		return fmt.Errorf("network %s: invalid coordinator %q", n.Name, n.VRFCoordinator)
	}
	if _, err := n.EntranceFeeWei(); err != nil {
		return err
	}
	if _, err := n.KeyHash(); err != nil {
		return err
	}
	return nil
}

func hexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

type networkFile struct {
	Networks []Network `yaml:"networks"`
}

// Parse decodes and validates a network table
func Parse(buf []byte) ([]Network, error) {
	var f networkFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("parse network table: %w", err)
	}
	if len(f.Networks) == 0 {
		return nil, errors.New("network table is empty")
	}
	for _, n := range f.Networks {
		if err := n.validate(); err != nil {
			return nil, err
		}
	}
	return f.Networks, nil
}

// Embedded returns the built-in network table
func Embedded() []Network {
	ret, err := Parse(embeddedNetworks)
	if err != nil {
		panic(fmt.Sprintf("embedded network table: %s", err))
	}
	return ret
}

// LoadWithFallback reads the network table from path, falling back to the
// embedded table when path is empty or does not exist
func LoadWithFallback(path string) ([]Network, error) {
	if path == "" {
		return Embedded(), nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Embedded(), nil
		}
		return nil, fmt.Errorf("failed to read network table %q: %w", path, err)
	}
	return Parse(buf)
}

// ByName finds a network by name, case-insensitively
func ByName(networks []Network, name string) (Network, error) {
	for _, n := range networks {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
}

// ByChainID finds the first network with the given chain id
func ByChainID(networks []Network, chainID uint64) (Network, error) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: chain id %d", ErrUnknownNetwork, chainID)
}

// IsDevelopment reports whether name is a development chain
func IsDevelopment(name string) bool {
	return slices.ContainsFunc(DevelopmentChains, func(dev string) bool {
		return strings.EqualFold(dev, name)
	})
}
