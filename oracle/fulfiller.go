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
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/raffle/event"
)

type FulfillerConfig struct {
	Coordinator *MockCoordinator
	EventBus    *event.EventBus
	Logger      *slog.Logger
	// Delay is how long a request waits before it is answered
	Delay time.Duration
}

// Fulfiller plays the part of the off-chain oracle for a MockCoordinator,
// answering every request after a fixed delay
type Fulfiller struct {
	config  FulfillerConfig
	logger  *slog.Logger
	mu      sync.Mutex
	timers  map[RequestID]*time.Timer
	wg      sync.WaitGroup
	subId   event.EventSubscriberId
	cancel  context.CancelFunc
	ctx     context.Context
	running bool
}

func NewFulfiller(cfg FulfillerConfig) *Fulfiller {
	f := &Fulfiller{
		config: cfg,
		timers: make(map[RequestID]*time.Timer),
	}
	if cfg.Logger == nil {
		f.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		f.logger = cfg.Logger
	}
	f.logger = f.logger.With("component", "fulfiller")
	return f
}

// Start schedules every request already pending on the coordinator and every
// request announced on the event bus from now on
func (f *Fulfiller) Start(ctx context.Context) error {
	if f.config.Coordinator == nil {
		return errors.New("fulfiller requires a coordinator")
	}
	if f.config.EventBus == nil {
		return errors.New("fulfiller requires an event bus")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return errors.New("fulfiller already running")
	}
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.running = true
	subId, evtCh := f.config.EventBus.Subscribe(RandomWordsRequestedEventType)
	f.subId = subId
	f.wg.Add(1)
	go f.run(f.ctx, evtCh)
	for _, req := range f.config.Coordinator.PendingRequests() {
		f.scheduleLocked(req.ID)
	}
	f.logger.Info(
		"started randomness fulfiller",
		"delay", f.config.Delay.String(),
	)
	return nil
}

func (f *Fulfiller) run(ctx context.Context, evtCh <-chan event.Event) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-evtCh:
			if !ok {
				return
			}
			data, ok := evt.Data.(RandomWordsRequestedEvent)
			if !ok {
				continue
			}
			f.mu.Lock()
			if f.running {
				f.scheduleLocked(data.RequestID)
			}
			f.mu.Unlock()
		}
	}
}

func (f *Fulfiller) scheduleLocked(reqID RequestID) {
	if _, ok := f.timers[reqID]; ok {
		return
	}
	ctx := f.ctx
	f.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(f.config.Delay, func() {
		defer f.wg.Done()
		f.mu.Lock()
		if f.timers[reqID] == timer {
			delete(f.timers, reqID)
		}
		f.mu.Unlock()
		f.fulfill(ctx, reqID)
	})
	f.timers[reqID] = timer
}

func (f *Fulfiller) fulfill(ctx context.Context, reqID RequestID) {
	if ctx.Err() != nil {
		return
	}
	err := f.config.Coordinator.FulfillRandomWords(ctx, reqID)
	switch {
	case err == nil:
		f.logger.Debug(
			"fulfilled randomness request",
			"request_id", reqID.String(),
		)
	case errors.Is(err, ErrNonexistentRequest):
		// Already answered by someone else
	default:
		f.logger.Warn(
			"randomness fulfillment failed",
			"request_id", reqID.String(),
			"error", err,
		)
	}
}

// Retry schedules a still-pending request again. It is used after the
// consumer rejected a fulfillment and the cause has been fixed.
func (f *Fulfiller) Retry(reqID RequestID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.scheduleLocked(reqID)
}

// Stop cancels outstanding timers and waits for in-flight fulfillments
func (f *Fulfiller) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	subId := f.subId
	f.mu.Unlock()
	// Unsubscribing closes the channel and ends the run loop
	f.config.EventBus.Unsubscribe(RandomWordsRequestedEventType, subId)
	f.mu.Lock()
	f.cancel()
	for reqID, timer := range f.timers {
		if timer.Stop() {
			f.wg.Done()
		}
		delete(f.timers, reqID)
	}
	f.mu.Unlock()
	f.wg.Wait()
	f.logger.Info("stopped randomness fulfiller")
}
