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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Subscription is a billing account on the coordinator. Consumers listed on
// it may request randomness charged to its balances.
type Subscription struct {
	ID            SubscriptionID            `json:"id"`
	Owner         common.Address            `json:"owner"`
	Balance       *uint256.Int              `json:"balance"`
	NativeBalance *uint256.Int              `json:"nativeBalance"`
	Consumers     []common.Address          `json:"consumers"`
	Nonces        map[common.Address]uint64 `json:"nonces"`
	ReqCount      uint64                    `json:"reqCount"`
}

func (s *Subscription) clone() *Subscription {
	ret := &Subscription{
		ID:            s.ID,
		Owner:         s.Owner,
		Balance:       s.Balance.Clone(),
		NativeBalance: s.NativeBalance.Clone(),
		Consumers:     append([]common.Address(nil), s.Consumers...),
		Nonces:        make(map[common.Address]uint64, len(s.Nonces)),
		ReqCount:      s.ReqCount,
	}
	for k, v := range s.Nonces {
		ret.Nonces[k] = v
	}
	return ret
}

func (s *Subscription) hasConsumer(addr common.Address) bool {
	_, ok := s.Nonces[addr]
	return ok
}

// Request is a pending randomness request awaiting fulfillment
type Request struct {
	ID          RequestID          `json:"id"`
	Sender      common.Address     `json:"sender"`
	Nonce       uint64             `json:"nonce"`
	Params      RandomWordsRequest `json:"params"`
	RequestedAt time.Time          `json:"requestedAt"`
}

// Store persists coordinator state across restarts
type Store interface {
	SaveSubscription(sub *Subscription) error
	DeleteSubscription(id SubscriptionID) error
	LoadSubscriptions() ([]*Subscription, error)
	SaveRequest(req *Request) error
	DeleteRequest(id RequestID) error
	LoadRequests() ([]*Request, error)
	SetSubscriptionNonce(nonce uint64) error
	SubscriptionNonce() (uint64, error)
}
