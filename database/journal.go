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

package database

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/blinklabs-io/raffle/event"
	"github.com/blinklabs-io/raffle/oracle"
	"github.com/blinklabs-io/raffle/raffle"
)

// SnapshotSource provides the raffle state saved after each raffle event
type SnapshotSource interface {
	Snapshot() raffle.Snapshot
}

type JournalConfig struct {
	DB       *Database
	EventBus *event.EventBus
	// Raffle is optional. When set, its state is saved after every raffle event.
	Raffle SnapshotSource
	Logger *slog.Logger
}

// Journal records raffle and oracle events, resolved rounds and the latest
// raffle state
type Journal struct {
	config  JournalConfig
	logger  *slog.Logger
	subs    map[event.EventType]event.EventSubscriberId
	wg      sync.WaitGroup
	mu      sync.Mutex
	saveMu  sync.Mutex
	running bool
}

func NewJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.DB == nil {
		return nil, errors.New("journal requires a database")
	}
	if cfg.EventBus == nil {
		return nil, errors.New("journal requires an event bus")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Journal{
		config: cfg,
		logger: cfg.Logger.With("component", "journal"),
	}, nil
}

// Start subscribes to raffle and oracle events
func (j *Journal) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}
	j.subs = make(map[event.EventType]event.EventSubscriberId)
	for _, evtType := range slices.Concat(raffle.EventTypes, oracle.EventTypes) {
		subId, evtCh := j.config.EventBus.Subscribe(evtType)
		j.subs[evtType] = subId
		j.wg.Add(1)
		go j.consume(evtCh)
	}
	j.running = true
	// Initial state
	if j.config.Raffle != nil {
		j.saveSnapshot()
	}
	return nil
}

// Stop unsubscribes and waits for queued events to be written
func (j *Journal) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	for evtType, subId := range j.subs {
		j.config.EventBus.Unsubscribe(evtType, subId)
	}
	j.subs = nil
	j.running = false
	j.mu.Unlock()
	j.wg.Wait()
}

func (j *Journal) consume(evtCh <-chan event.Event) {
	defer j.wg.Done()
	for evt := range evtCh {
		j.handle(evt)
	}
}

func (j *Journal) handle(evt event.Event) {
	db := j.config.DB
	id, err := db.AppendEvent(evt)
	if err != nil {
		j.fail("failed to journal event", evt, err)
	} else {
		if db.metrics != nil {
			db.metrics.journalRecords.Inc()
		}
		j.logger.Debug(
			"journaled event",
			"type", evt.Type,
			"id", id,
		)
	}
	if data, ok := evt.Data.(raffle.WinnerPickedEvent); ok {
		if err := db.AddRound(data, evt.Timestamp); err != nil {
			j.fail("failed to record round", evt, err)
		}
	}
	if j.config.Raffle != nil && slices.Contains(raffle.EventTypes, evt.Type) {
		j.saveSnapshot()
	}
}

// saveSnapshot reads and writes the snapshot under saveMu
func (j *Journal) saveSnapshot() {
	j.saveMu.Lock()
	defer j.saveMu.Unlock()
	if err := j.config.DB.SaveRaffleSnapshot(j.config.Raffle.Snapshot()); err != nil {
		if j.config.DB.metrics != nil {
			j.config.DB.metrics.journalErrors.Inc()
		}
		j.logger.Error(
			"failed to save raffle snapshot",
			"error", err,
		)
	}
}

func (j *Journal) fail(msg string, evt event.Event, err error) {
	if j.config.DB.metrics != nil {
		j.config.DB.metrics.journalErrors.Inc()
	}
	j.logger.Error(
		msg,
		"type", evt.Type,
		"error", err,
	)
}
