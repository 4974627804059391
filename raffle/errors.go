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

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrRaffleNotOpen         = errors.New("raffle not open")
	ErrUpkeepNotNeeded       = errors.New("upkeep not needed")
	ErrInvalidRequest        = errors.New("invalid randomness request")
	ErrPayoutFailed          = errors.New("payout failed")
	ErrInvalidRandomWords    = errors.New("invalid random words")
	ErrBalanceOverflow       = errors.New("pool balance overflow")
	ErrPlayerIndexOutOfRange = errors.New("player index out of range")
	ErrNotOwner              = errors.New("caller is not the owner")
	ErrRoundNotStuck         = errors.New("round is not stuck")
	ErrInvalidConfig         = errors.New("invalid raffle config")
	ErrInvalidSnapshot       = errors.New("invalid raffle snapshot")
)

type InsufficientPaymentError struct {
	Sent     *uint256.Int
	Required *uint256.Int
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf(
		"insufficient payment: sent=%s required=%s",
		e.Sent.Dec(),
		e.Required.Dec(),
	)
}

func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}

// UpkeepNotNeededError carries the predicate inputs observed when an upkeep
// was rejected
type UpkeepNotNeededError struct {
	Balance *uint256.Int
	Players int
	State   State
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf(
		"upkeep not needed: balance=%s players=%d state=%s",
		e.Balance.Dec(),
		e.Players,
		e.State.String(),
	)
}

func (e *UpkeepNotNeededError) Is(target error) bool {
	return target == ErrUpkeepNotNeeded
}

type PayoutFailedError struct {
	Winner common.Address
	Amount *uint256.Int
	Err    error
}

func (e *PayoutFailedError) Error() string {
	return fmt.Sprintf(
		"payout of %s to %s failed: %v",
		e.Amount.Dec(),
		e.Winner.Hex(),
		e.Err,
	)
}

func (e *PayoutFailedError) Is(target error) bool {
	return target == ErrPayoutFailed
}

func (e *PayoutFailedError) Unwrap() error {
	return e.Err
}
