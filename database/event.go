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
	"encoding/json"
	"fmt"
	"time"

	"github.com/blinklabs-io/raffle/database/models"
	"github.com/blinklabs-io/raffle/event"
)

// EventRecord is a journaled event with its payload kept in encoded form
type EventRecord struct {
	ID        uint            `json:"id"`
	Type      event.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// AppendEvent writes an event to the journal and returns its id
func (d *Database) AppendEvent(evt event.Event) (uint, error) {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return 0, fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	record := &models.EventRecord{
		Type:      string(evt.Type),
		Data:      string(data),
		Timestamp: evt.Timestamp,
	}
	if err := d.Metadata().AddEventRecord(record, nil); err != nil {
		return 0, fmt.Errorf("append %s event: %w", evt.Type, err)
	}
	return record.ID, nil
}

// Events returns journaled events with an id greater than afterId, oldest
// first. An empty eventType matches every type.
func (d *Database) Events(
	eventType event.EventType,
	afterId uint,
	limit int,
) ([]EventRecord, error) {
	rows, err := d.Metadata().GetEventRecords(string(eventType), afterId, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]EventRecord, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, EventRecord{
			ID:        row.ID,
			Type:      event.EventType(row.Type),
			Timestamp: row.Timestamp,
			Data:      json.RawMessage(row.Data),
		})
	}
	return ret, nil
}
