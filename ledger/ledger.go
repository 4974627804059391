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

// Package ledger keeps explicit account balances for the raffle's execution
// environment: participant wallets and the raffle's custodial account.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferRejected  = errors.New("recipient rejected transfer")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrZeroAddress       = errors.New("zero address")
)

type InsufficientFundsError struct {
	Account   common.Address
	Balance   *uint256.Int
	Requested *uint256.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: account=%s balance=%s requested=%s",
		e.Account.Hex(),
		e.Balance.Dec(),
		e.Requested.Dec(),
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

type LedgerConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Ledger is a concurrency-safe set of account balances. Accounts spring into
// existence with a zero balance on first credit.
type Ledger struct {
	mu       sync.RWMutex
	config   LedgerConfig
	logger   *slog.Logger
	balances map[common.Address]*uint256.Int
	frozen   map[common.Address]struct{}
	metrics  *ledgerMetrics
}

func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{
		config:   cfg,
		balances: make(map[common.Address]*uint256.Int),
		frozen:   make(map[common.Address]struct{}),
	}
	if cfg.Logger == nil {
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = cfg.Logger
	}
	l.logger = l.logger.With("component", "ledger")
	if cfg.PromRegistry != nil {
		l.metrics = newLedgerMetrics(cfg.PromRegistry)
	}
	return l
}

// BalanceOf returns a copy of the account balance
func (l *Ledger) BalanceOf(addr common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

// Accounts returns every known account in a stable order
func (l *Ledger) Accounts() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.SortedFunc(maps.Keys(l.balances), func(a, b common.Address) int {
		return a.Cmp(b)
	})
}

// Mint credits new funds to an account. It is how development accounts and
// faucets are provisioned.
func (l *Ledger) Mint(addr common.Address, amount *uint256.Int) error {
	if addr == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.credit(addr, amount); err != nil {
		return err
	}
	l.logger.Debug(
		"minted funds",
		"account", addr.Hex(),
		"amount", amount.Dec(),
	)
	return nil
}

// Freeze makes an account reject every incoming transfer, the way a contract
// without a payable receive hook would.
func (l *Ledger) Freeze(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen[addr] = struct{}{}
}

func (l *Ledger) Unfreeze(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.frozen, addr)
}

func (l *Ledger) IsFrozen(addr common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.frozen[addr]
	return ok
}

// Transfer moves amount from one account to another. Either both balances
// change or neither does.
func (l *Ledger) Transfer(
	_ context.Context,
	from, to common.Address,
	amount *uint256.Int,
) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.frozen[to]; ok {
		l.recordFailure()
		return fmt.Errorf("%w: %s", ErrTransferRejected, to.Hex())
	}
	if err := l.move(from, to, amount); err != nil {
		l.recordFailure()
		return err
	}
	if l.metrics != nil {
		l.metrics.transfers.Inc()
	}
	l.logger.Debug(
		"transfer",
		"from", from.Hex(),
		"to", to.Hex(),
		"amount", amount.Dec(),
	)
	return nil
}

// Refund reverses an earlier Transfer. It ignores the frozen flag on the
// original sender, which must always be able to get its own funds back.
func (l *Ledger) Refund(
	_ context.Context,
	from, to common.Address,
	amount *uint256.Int,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.move(to, from, amount); err != nil {
		l.recordFailure()
		return fmt.Errorf("refund: %w", err)
	}
	if l.metrics != nil {
		l.metrics.refunds.Inc()
	}
	return nil
}

func (l *Ledger) move(from, to common.Address, amount *uint256.Int) error {
	fromBal, ok := l.balances[from]
	if !ok {
		fromBal = new(uint256.Int)
	}
	if fromBal.Lt(amount) {
		return &InsufficientFundsError{
			Account:   from,
			Balance:   fromBal.Clone(),
			Requested: amount.Clone(),
		}
	}
	if from == to {
		return nil
	}
	toBal := l.balances[to]
	if toBal == nil {
		toBal = new(uint256.Int)
	}
	if _, overflow := new(uint256.Int).AddOverflow(toBal, amount); overflow {
		return ErrBalanceOverflow
	}
	l.balances[from] = new(uint256.Int).Sub(fromBal, amount)
	l.balances[to] = new(uint256.Int).Add(toBal, amount)
	return nil
}

func (l *Ledger) credit(addr common.Address, amount *uint256.Int) error {
	bal := l.balances[addr]
	if bal == nil {
		bal = new(uint256.Int)
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	l.balances[addr] = sum
	return nil
}

func (l *Ledger) recordFailure() {
	if l.metrics != nil {
		l.metrics.failedTransfers.Inc()
	}
}
