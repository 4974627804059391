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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/raffle/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MaxRequestConfirmations = 200
	MaxCallbackGasLimit     = 2_500_000
	MaxNumWords             = 500
	MaxConsumers            = 100
)

var (
	// DefaultBaseFee is the flat fee charged per fulfillment (0.1 LINK)
	DefaultBaseFee = uint256.NewInt(100_000_000_000_000_000)
	// DefaultGasPrice is the gas price used to bill callback gas (1 gwei)
	DefaultGasPrice = uint256.NewInt(1_000_000_000)
	// DefaultWeiPerUnitLink is the LINK/native exchange rate
	DefaultWeiPerUnitLink = uint256.NewInt(4_750_454_356_114_626)

	oneEther = uint256.NewInt(1_000_000_000_000_000_000)
)

type MockCoordinatorConfig struct {
	// Address is the coordinator's own account, mixed into subscription ids
	Address        common.Address
	BaseFee        *uint256.Int
	GasPrice       *uint256.Int
	WeiPerUnitLink *uint256.Int
	Store          Store
	EventBus       *event.EventBus
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
}

// MockCoordinator is a local verifiable randomness coordinator. Random words
// are derived deterministically from the request id and are delivered only
// when FulfillRandomWords is called, which lets the caller control timing.
type MockCoordinator struct {
	mu            sync.Mutex
	config        MockCoordinatorConfig
	logger        *slog.Logger
	metrics       *coordinatorMetrics
	subscriptions map[SubscriptionID]*Subscription
	requests      map[RequestID]*Request
	inFlight      map[RequestID]struct{}
	consumers     map[common.Address]Consumer
	subNonce      uint64
}

// NewMockCoordinator creates a coordinator, loading any subscriptions and
// pending requests from the configured store
func NewMockCoordinator(cfg MockCoordinatorConfig) (*MockCoordinator, error) {
	if cfg.BaseFee == nil {
		cfg.BaseFee = DefaultBaseFee.Clone()
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = DefaultGasPrice.Clone()
	}
	if cfg.WeiPerUnitLink == nil {
		cfg.WeiPerUnitLink = DefaultWeiPerUnitLink.Clone()
	}
	if cfg.WeiPerUnitLink.IsZero() {
		return nil, errors.New("wei per unit link must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c := &MockCoordinator{
		config:        cfg,
		logger:        cfg.Logger.With("component", "oracle"),
		subscriptions: make(map[SubscriptionID]*Subscription),
		requests:      make(map[RequestID]*Request),
		inFlight:      make(map[RequestID]struct{}),
		consumers:     make(map[common.Address]Consumer),
	}
	if cfg.PromRegistry != nil {
		c.metrics = newCoordinatorMetrics(cfg.PromRegistry)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *MockCoordinator) load() error {
	if c.config.Store == nil {
		return nil
	}
	nonce, err := c.config.Store.SubscriptionNonce()
	if err != nil {
		return fmt.Errorf("load subscription nonce: %w", err)
	}
	c.subNonce = nonce
	subs, err := c.config.Store.LoadSubscriptions()
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	for _, sub := range subs {
		if sub.Nonces == nil {
			sub.Nonces = make(map[common.Address]uint64)
		}
		if sub.Balance == nil {
			sub.Balance = new(uint256.Int)
		}
		if sub.NativeBalance == nil {
			sub.NativeBalance = new(uint256.Int)
		}
		c.subscriptions[sub.ID] = sub
	}
	reqs, err := c.config.Store.LoadRequests()
	if err != nil {
		return fmt.Errorf("load requests: %w", err)
	}
	for _, req := range reqs {
		c.requests[req.ID] = req
	}
	if len(subs) > 0 || len(reqs) > 0 {
		c.logger.Info(
			"restored coordinator state",
			"subscriptions", len(subs),
			"pending_requests", len(reqs),
		)
	}
	c.updateGauges()
	return nil
}

func (c *MockCoordinator) Address() common.Address {
	return c.config.Address
}

// AttachConsumer registers the callback target for an address without making
// a request. It is used after a restart to reconnect restored requests to
// their consumer.
func (c *MockCoordinator) AttachConsumer(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers[consumer.Address()] = consumer
}

func (c *MockCoordinator) CreateSubscription(owner common.Address) (SubscriptionID, error) {
	c.mu.Lock()
	c.subNonce++
	subID := computeSubscriptionID(owner, c.config.Address, c.subNonce)
	sub := &Subscription{
		ID:            subID,
		Owner:         owner,
		Balance:       new(uint256.Int),
		NativeBalance: new(uint256.Int),
		Nonces:        make(map[common.Address]uint64),
	}
	c.subscriptions[subID] = sub
	err := c.persistSubscription(sub)
	if err == nil && c.config.Store != nil {
		err = c.config.Store.SetSubscriptionNonce(c.subNonce)
	}
	if err != nil {
		delete(c.subscriptions, subID)
		c.subNonce--
		c.mu.Unlock()
		return SubscriptionID{}, err
	}
	c.updateGauges()
	c.mu.Unlock()
	c.logger.Debug(
		"subscription created",
		"sub_id", subID.String(),
		"owner", owner.Hex(),
	)
	c.publish(
		SubscriptionCreatedEventType,
		SubscriptionCreatedEvent{SubID: subID, Owner: owner},
	)
	return subID, nil
}

func (c *MockCoordinator) FundSubscription(subID SubscriptionID, amount *uint256.Int) error {
	return c.fund(subID, amount, false)
}

func (c *MockCoordinator) FundSubscriptionWithNative(subID SubscriptionID, amount *uint256.Int) error {
	return c.fund(subID, amount, true)
}

func (c *MockCoordinator) fund(subID SubscriptionID, amount *uint256.Int, native bool) error {
	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidSubscription
	}
	bal := sub.Balance
	if native {
		bal = sub.NativeBalance
	}
	newBal, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		c.mu.Unlock()
		return errors.New("subscription balance overflow")
	}
	oldBal := bal.Clone()
	if native {
		sub.NativeBalance = newBal
	} else {
		sub.Balance = newBal
	}
	if err := c.persistSubscription(sub); err != nil {
		if native {
			sub.NativeBalance = oldBal
		} else {
			sub.Balance = oldBal
		}
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.publish(
		SubscriptionFundedEventType,
		SubscriptionFundedEvent{
			SubID:      subID,
			OldBalance: oldBal,
			NewBalance: newBal.Clone(),
			Native:     native,
		},
	)
	return nil
}

func (c *MockCoordinator) AddConsumer(subID SubscriptionID, consumer common.Address) error {
	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidSubscription
	}
	if sub.hasConsumer(consumer) {
		// Adding an existing consumer is a no-op
		c.mu.Unlock()
		return nil
	}
	if len(sub.Consumers) >= MaxConsumers {
		c.mu.Unlock()
		return ErrTooManyConsumers
	}
	sub.Consumers = append(sub.Consumers, consumer)
	sub.Nonces[consumer] = 0
	if err := c.persistSubscription(sub); err != nil {
		sub.Consumers = sub.Consumers[:len(sub.Consumers)-1]
		delete(sub.Nonces, consumer)
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.publish(
		ConsumerAddedEventType,
		ConsumerEvent{SubID: subID, Consumer: consumer},
	)
	return nil
}

func (c *MockCoordinator) RemoveConsumer(subID SubscriptionID, consumer common.Address) error {
	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidSubscription
	}
	if !sub.hasConsumer(consumer) {
		c.mu.Unlock()
		return ErrInvalidConsumer
	}
	prev := sub.clone()
	sub.Consumers = slices.DeleteFunc(sub.Consumers, func(a common.Address) bool {
		return a == consumer
	})
	delete(sub.Nonces, consumer)
	if err := c.persistSubscription(sub); err != nil {
		c.subscriptions[subID] = prev
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.publish(
		ConsumerRemovedEventType,
		ConsumerEvent{SubID: subID, Consumer: consumer},
	)
	return nil
}

// CancelSubscription deletes a subscription and reports the balances
// returned to the given account. A subscription with pending requests cannot
// be canceled.
func (c *MockCoordinator) CancelSubscription(subID SubscriptionID, to common.Address) error {
	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidSubscription
	}
	if c.pendingRequestExists(subID) {
		c.mu.Unlock()
		return ErrPendingRequestExists
	}
	if c.config.Store != nil {
		if err := c.config.Store.DeleteSubscription(subID); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("delete subscription: %w", err)
		}
	}
	delete(c.subscriptions, subID)
	c.updateGauges()
	c.mu.Unlock()
	c.publish(
		SubscriptionCanceledEventType,
		SubscriptionCanceledEvent{
			SubID:        subID,
			To:           to,
			AmountLink:   sub.Balance.Clone(),
			AmountNative: sub.NativeBalance.Clone(),
		},
	)
	return nil
}

// GetSubscription returns a copy of the subscription
func (c *MockCoordinator) GetSubscription(subID SubscriptionID) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		return nil, ErrInvalidSubscription
	}
	return sub.clone(), nil
}

func (c *MockCoordinator) ConsumerIsAdded(subID SubscriptionID, consumer common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		return false
	}
	return sub.hasConsumer(consumer)
}

// SubscriptionsFor returns the ids of every subscription that lists consumer,
// lowest first
func (c *MockCoordinator) SubscriptionsFor(consumer common.Address) []SubscriptionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ret []SubscriptionID
	for id, sub := range c.subscriptions {
		if sub.hasConsumer(consumer) {
			ret = append(ret, id)
		}
	}
	slices.SortFunc(ret, func(a, b SubscriptionID) int {
		return a.Int().Cmp(b.Int())
	})
	return ret
}

func (c *MockCoordinator) PendingRequestExists(subID SubscriptionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingRequestExists(subID)
}

func (c *MockCoordinator) pendingRequestExists(subID SubscriptionID) bool {
	for _, req := range c.requests {
		if req.Params.SubID == subID {
			return true
		}
	}
	return false
}

// PendingRequests returns the unfulfilled requests, oldest first
func (c *MockCoordinator) PendingRequests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([]Request, 0, len(c.requests))
	for _, req := range c.requests {
		ret = append(ret, *req)
	}
	slices.SortFunc(ret, func(a, b Request) int {
		if n := a.RequestedAt.Compare(b.RequestedAt); n != 0 {
			return n
		}
		return a.ID.Int().Cmp(b.ID.Int())
	})
	return ret
}

// RequestRandomWords validates and records a request. The consumer is
// remembered as the callback target for its address.
func (c *MockCoordinator) RequestRandomWords(
	_ context.Context,
	consumer Consumer,
	req RandomWordsRequest,
) (RequestID, error) {
	sender := consumer.Address()
	c.mu.Lock()
	sub, ok := c.subscriptions[req.SubID]
	if !ok {
		c.mu.Unlock()
		return RequestID{}, ErrInvalidSubscription
	}
	if !sub.hasConsumer(sender) {
		c.mu.Unlock()
		return RequestID{}, fmt.Errorf("%w: %s", ErrInvalidConsumer, sender.Hex())
	}
	if req.RequestConfirmations > MaxRequestConfirmations {
		c.mu.Unlock()
		return RequestID{}, fmt.Errorf(
			"%w: have %d, max %d",
			ErrInvalidRequestConfirmations,
			req.RequestConfirmations,
			MaxRequestConfirmations,
		)
	}
	if req.CallbackGasLimit > MaxCallbackGasLimit {
		c.mu.Unlock()
		return RequestID{}, fmt.Errorf(
			"%w: have %d, max %d",
			ErrGasLimitTooBig,
			req.CallbackGasLimit,
			MaxCallbackGasLimit,
		)
	}
	if req.NumWords == 0 || req.NumWords > MaxNumWords {
		c.mu.Unlock()
		return RequestID{}, fmt.Errorf(
			"%w: have %d, max %d",
			ErrNumWordsTooBig,
			req.NumWords,
			MaxNumWords,
		)
	}
	nonce := sub.Nonces[sender] + 1
	reqID := ComputeRequestID(req.KeyHash, sender, req.SubID, nonce)
	record := &Request{
		ID:          reqID,
		Sender:      sender,
		Nonce:       nonce,
		Params:      req,
		RequestedAt: time.Now(),
	}
	if c.config.Store != nil {
		if err := c.config.Store.SaveRequest(record); err != nil {
			c.mu.Unlock()
			return RequestID{}, fmt.Errorf("save request: %w", err)
		}
	}
	sub.Nonces[sender] = nonce
	sub.ReqCount++
	if err := c.persistSubscription(sub); err != nil {
		sub.Nonces[sender] = nonce - 1
		sub.ReqCount--
		if c.config.Store != nil {
			_ = c.config.Store.DeleteRequest(reqID)
		}
		c.mu.Unlock()
		return RequestID{}, err
	}
	c.requests[reqID] = record
	c.consumers[sender] = consumer
	if c.metrics != nil {
		c.metrics.requests.Inc()
	}
	c.updateGauges()
	c.mu.Unlock()
	c.logger.Debug(
		"random words requested",
		"request_id", reqID.String(),
		"sub_id", req.SubID.String(),
		"sender", sender.Hex(),
	)
	c.publish(
		RandomWordsRequestedEventType,
		RandomWordsRequestedEvent{
			RequestID:            reqID,
			SubID:                req.SubID,
			KeyHash:              req.KeyHash,
			Sender:               sender,
			RequestConfirmations: req.RequestConfirmations,
			CallbackGasLimit:     req.CallbackGasLimit,
			NumWords:             req.NumWords,
			NativePayment:        req.NativePayment,
		},
	)
	return reqID, nil
}

// FulfillRandomWords answers a pending request with words derived from its id
func (c *MockCoordinator) FulfillRandomWords(ctx context.Context, reqID RequestID) error {
	return c.FulfillRandomWordsWithOverride(ctx, reqID, nil)
}

// FulfillRandomWordsWithOverride answers a pending request with the given
// words, or with derived words when words is nil. The payment is reserved
// from the subscription before the consumer is called. A rejection the
// consumer classifies as retryable returns the payment and leaves the request
// pending. Any other rejection is charged and closes the request.
func (c *MockCoordinator) FulfillRandomWordsWithOverride(
	ctx context.Context,
	reqID RequestID,
	words []uint256.Int,
) error {
	c.mu.Lock()
	req, ok := c.requests[reqID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNonexistentRequest, reqID.String())
	}
	if _, busy := c.inFlight[reqID]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is being fulfilled", ErrNonexistentRequest, reqID.String())
	}
	if words == nil {
		words = mockRandomWords(reqID, req.Params.NumWords)
	} else if len(words) != int(req.Params.NumWords) {
		c.mu.Unlock()
		return fmt.Errorf(
			"%w: have %d, want %d",
			ErrInvalidRandomWords,
			len(words),
			req.Params.NumWords,
		)
	}
	consumer, ok := c.consumers[req.Sender]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConsumerNotAttached, req.Sender.Hex())
	}
	sub, ok := c.subscriptions[req.Params.SubID]
	if !ok {
		c.mu.Unlock()
		return ErrInvalidSubscription
	}
	payment, err := c.calculatePayment(req.Params)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	native := req.Params.NativePayment
	if err := sub.debit(payment, native); err != nil {
		c.mu.Unlock()
		return err
	}
	c.inFlight[reqID] = struct{}{}
	c.mu.Unlock()

	// The consumer may call back into the coordinator
	cbErr := consumer.FulfillRandomWords(ctx, reqID, slices.Clone(words))

	c.mu.Lock()
	delete(c.inFlight, reqID)
	if cur, ok := c.subscriptions[req.Params.SubID]; ok {
		sub = cur
	}
	retry := false
	if cbErr != nil {
		if rc, ok := consumer.(RetryClassifier); ok {
			retry = rc.IsRetryable(cbErr)
		}
		if c.metrics != nil {
			c.metrics.failedFulfillments.Inc()
		}
	}
	if retry {
		sub.credit(payment, native)
		c.mu.Unlock()
		c.logger.Warn(
			"consumer rejected random words, request remains pending",
			"request_id", reqID.String(),
			"error", cbErr,
		)
		c.publish(
			RandomWordsFulfilledEventType,
			RandomWordsFulfilledEvent{
				RequestID: reqID,
				SubID:     req.Params.SubID,
				Payment:   new(uint256.Int),
				Native:    native,
				Success:   false,
				Error:     cbErr.Error(),
			},
		)
		return fmt.Errorf("consumer callback: %w", cbErr)
	}
	delete(c.requests, reqID)
	if c.config.Store != nil {
		if err := c.config.Store.DeleteRequest(reqID); err != nil {
			c.logger.Error(
				"failed to delete fulfilled request",
				"request_id", reqID.String(),
				"error", err,
			)
		}
	}
	if err := c.persistSubscription(sub); err != nil {
		c.logger.Error(
			"failed to persist subscription after fulfillment",
			"sub_id", sub.ID.String(),
			"error", err,
		)
	}
	if cbErr == nil && c.metrics != nil {
		c.metrics.fulfillments.Inc()
	}
	c.updateGauges()
	c.mu.Unlock()
	fulfilled := RandomWordsFulfilledEvent{
		RequestID: reqID,
		SubID:     req.Params.SubID,
		Payment:   payment,
		Native:    native,
		Success:   cbErr == nil,
	}
	if cbErr != nil {
		// The callback is charged and the request is gone, as with a
		// reverted callback on chain
		c.logger.Warn(
			"consumer rejected random words, request closed",
			"request_id", reqID.String(),
			"payment", payment.Dec(),
			"error", cbErr,
		)
		fulfilled.Error = cbErr.Error()
		c.publish(RandomWordsFulfilledEventType, fulfilled)
		return fmt.Errorf("consumer callback: %w", cbErr)
	}
	c.logger.Debug(
		"random words fulfilled",
		"request_id", reqID.String(),
		"payment", payment.Dec(),
		"native", native,
	)
	c.publish(RandomWordsFulfilledEventType, fulfilled)
	return nil
}

// calculatePayment bills the callback gas limit at the configured gas price
// plus the base fee. LINK payments convert the gas cost at WeiPerUnitLink.
func (c *MockCoordinator) calculatePayment(req RandomWordsRequest) (*uint256.Int, error) {
	gasCost, overflow := new(uint256.Int).MulOverflow(
		c.config.GasPrice,
		uint256.NewInt(uint64(req.CallbackGasLimit)),
	)
	if overflow {
		return nil, errors.New("payment overflow")
	}
	if !req.NativePayment {
		gasCost, overflow = new(uint256.Int).MulDivOverflow(
			gasCost,
			oneEther,
			c.config.WeiPerUnitLink,
		)
		if overflow {
			return nil, errors.New("payment overflow")
		}
	}
	payment, overflow := new(uint256.Int).AddOverflow(gasCost, c.config.BaseFee)
	if overflow {
		return nil, errors.New("payment overflow")
	}
	return payment, nil
}

func (s *Subscription) debit(amount *uint256.Int, native bool) error {
	bal := s.Balance
	if native {
		bal = s.NativeBalance
	}
	if bal.Lt(amount) {
		return &InsufficientBalanceError{
			SubID:    s.ID,
			Balance:  bal.Clone(),
			Payment:  amount.Clone(),
			IsNative: native,
		}
	}
	bal.Sub(bal, amount)
	return nil
}

func (s *Subscription) credit(amount *uint256.Int, native bool) {
	if native {
		s.NativeBalance.Add(s.NativeBalance, amount)
		return
	}
	s.Balance.Add(s.Balance, amount)
}

func (c *MockCoordinator) persistSubscription(sub *Subscription) error {
	if c.config.Store == nil {
		return nil
	}
	if err := c.config.Store.SaveSubscription(sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (c *MockCoordinator) updateGauges() {
	if c.metrics == nil {
		return
	}
	c.metrics.pendingRequests.Set(float64(len(c.requests)))
	c.metrics.subscriptions.Set(float64(len(c.subscriptions)))
}

// publish hands events to the bus workers. It is called from inside consumer
// call chains, which may hold locks that synchronous subscribers need.
func (c *MockCoordinator) publish(evtType event.EventType, data any) {
	if c.config.EventBus == nil {
		return
	}
	if !c.config.EventBus.PublishAsync(evtType, event.NewEvent(evtType, data)) {
		c.logger.Warn(
			"failed to queue event",
			"type", evtType,
		)
	}
}
