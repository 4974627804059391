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

package oracle

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidSubscription         = errors.New("invalid subscription")
	ErrInvalidConsumer             = errors.New("invalid consumer")
	ErrTooManyConsumers            = errors.New("too many consumers")
	ErrInvalidRequestConfirmations = errors.New("invalid request confirmations")
	ErrGasLimitTooBig              = errors.New("gas limit too big")
	ErrNumWordsTooBig              = errors.New("num words too big")
	ErrNonexistentRequest          = errors.New("nonexistent request")
	ErrInsufficientBalance         = errors.New("insufficient subscription balance")
	ErrPendingRequestExists        = errors.New("pending request exists")
	ErrConsumerNotAttached         = errors.New("consumer not attached")
	ErrInvalidRandomWords          = errors.New("invalid random words")
)

type InsufficientBalanceError struct {
	SubID    SubscriptionID
	Balance  *uint256.Int
	Payment  *uint256.Int
	IsNative bool
}

func (e *InsufficientBalanceError) Error() string {
	currency := "link"
	if e.IsNative {
		currency = "native"
	}
	return fmt.Sprintf(
		"insufficient %s balance for subscription %s: balance=%s payment=%s",
		currency,
		e.SubID.String(),
		e.Balance.Dec(),
		e.Payment.Dec(),
	)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
