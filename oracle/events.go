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
	"github.com/blinklabs-io/raffle/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	SubscriptionCreatedEventType  event.EventType = "oracle.subscription_created"
	SubscriptionFundedEventType   event.EventType = "oracle.subscription_funded"
	SubscriptionCanceledEventType event.EventType = "oracle.subscription_canceled"
	ConsumerAddedEventType        event.EventType = "oracle.consumer_added"
	ConsumerRemovedEventType      event.EventType = "oracle.consumer_removed"
	RandomWordsRequestedEventType event.EventType = "oracle.random_words_requested"
	RandomWordsFulfilledEventType event.EventType = "oracle.random_words_fulfilled"
)

// EventTypes lists every event type emitted by the coordinator
var EventTypes = []event.EventType{
	SubscriptionCreatedEventType,
	SubscriptionFundedEventType,
	SubscriptionCanceledEventType,
	ConsumerAddedEventType,
	ConsumerRemovedEventType,
	RandomWordsRequestedEventType,
	RandomWordsFulfilledEventType,
}

type SubscriptionCreatedEvent struct {
	SubID SubscriptionID `json:"subId"`
	Owner common.Address `json:"owner"`
}

type SubscriptionFundedEvent struct {
	SubID      SubscriptionID `json:"subId"`
	OldBalance *uint256.Int   `json:"oldBalance"`
	NewBalance *uint256.Int   `json:"newBalance"`
	Native     bool           `json:"native"`
}

type SubscriptionCanceledEvent struct {
	SubID        SubscriptionID `json:"subId"`
	To           common.Address `json:"to"`
	AmountLink   *uint256.Int   `json:"amountLink"`
	AmountNative *uint256.Int   `json:"amountNative"`
}

type ConsumerEvent struct {
	SubID    SubscriptionID `json:"subId"`
	Consumer common.Address `json:"consumer"`
}

type RandomWordsRequestedEvent struct {
	RequestID            RequestID      `json:"requestId"`
	SubID                SubscriptionID `json:"subId"`
	KeyHash              common.Hash    `json:"keyHash"`
	Sender               common.Address `json:"sender"`
	RequestConfirmations uint16         `json:"requestConfirmations"`
	CallbackGasLimit     uint32         `json:"callbackGasLimit"`
	NumWords             uint32         `json:"numWords"`
	NativePayment        bool           `json:"nativePayment"`
}

type RandomWordsFulfilledEvent struct {
	RequestID RequestID      `json:"requestId"`
	SubID     SubscriptionID `json:"subId"`
	Payment   *uint256.Int   `json:"payment"`
	Native    bool           `json:"native"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}
