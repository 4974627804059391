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

// Package oracle defines the request/callback contract between a randomness
// consumer and a verifiable randomness coordinator, and provides a local mock
// coordinator for development and tests.
//
// A consumer asks the coordinator for random words with RequestRandomWords and
// receives an opaque RequestID. Some time later, on the coordinator's
// schedule, the coordinator calls the consumer's FulfillRandomWords with the
// same RequestID and the generated words.
package oracle

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// RequestID correlates a randomness request with its fulfillment
type RequestID uint256.Int

// SubscriptionID identifies the billing subscription a request is charged to
type SubscriptionID uint256.Int

func (r RequestID) Int() *uint256.Int {
	v := uint256.Int(r)
	return &v
}

func (r RequestID) IsZero() bool {
	return r == RequestID{}
}

func (r RequestID) String() string {
	return r.Int().Dec()
}

func (r RequestID) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RequestID) UnmarshalText(b []byte) error {
	var v uint256.Int
	if err := v.UnmarshalText(b); err != nil {
		return err
	}
	*r = RequestID(v)
	return nil
}

func (s SubscriptionID) Int() *uint256.Int {
	v := uint256.Int(s)
	return &v
}

func (s SubscriptionID) IsZero() bool {
	return s == SubscriptionID{}
}

func (s SubscriptionID) String() string {
	return s.Int().Dec()
}

func (s SubscriptionID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SubscriptionID) UnmarshalText(b []byte) error {
	var v uint256.Int
	if err := v.UnmarshalText(b); err != nil {
		return err
	}
	*s = SubscriptionID(v)
	return nil
}

// RandomWordsRequest carries the parameters of a randomness request
type RandomWordsRequest struct {
	// KeyHash selects the gas lane (maximum gas price) of the oracle
	KeyHash common.Hash
	SubID   SubscriptionID
	// RequestConfirmations is how many blocks the oracle waits before answering
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
	// NativePayment charges the subscription's native balance instead of LINK
	NativePayment bool
}

// Consumer receives fulfilled randomness
type Consumer interface {
	// Address identifies the consumer to the coordinator
	Address() common.Address
	FulfillRandomWords(ctx context.Context, requestID RequestID, randomWords []uint256.Int) error
}

// RetryClassifier is implemented by consumers whose rejections may clear
// later. A request rejected with a retryable error stays pending.
type RetryClassifier interface {
	IsRetryable(err error) bool
}

// Coordinator accepts randomness requests on behalf of consumers
type Coordinator interface {
	RequestRandomWords(ctx context.Context, consumer Consumer, req RandomWordsRequest) (RequestID, error)
}

// ComputeRequestID derives the request id the same way the on-chain
// coordinator does: a pre-seed binding the key hash, sender, subscription and
// sender nonce, then a hash of the key hash and pre-seed.
func ComputeRequestID(
	keyHash common.Hash,
	sender common.Address,
	subID SubscriptionID,
	nonce uint64,
) RequestID {
	preSeed := keccak256(
		keyHash.Bytes(),
		abiAddress(sender),
		abiUint256(subID.Int()),
		abiUint64(nonce),
	)
	id := keccak256(keyHash.Bytes(), preSeed)
	var v uint256.Int
	v.SetBytes32(id)
	return RequestID(v)
}

// computeSubscriptionID packs owner, coordinator and the coordinator's
// subscription nonce
func computeSubscriptionID(
	owner, coordinator common.Address,
	nonce uint64,
) SubscriptionID {
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	h := keccak256(owner.Bytes(), coordinator.Bytes(), nonceBuf[:])
	var v uint256.Int
	v.SetBytes32(h)
	return SubscriptionID(v)
}

// mockRandomWords expands a request id into n words:
// word[i] = keccak256(abi.encode(requestID, i))
func mockRandomWords(id RequestID, n uint32) []uint256.Int {
	words := make([]uint256.Int, n)
	for i := range n {
		h := keccak256(abiUint256(id.Int()), abiUint64(uint64(i)))
		words[i].SetBytes32(h)
	}
	return words
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func abiAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func abiUint256(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func abiUint64(v uint64) []byte {
	return abiUint256(uint256.NewInt(v))
}
