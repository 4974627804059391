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

package sqlite

import (
	"github.com/blinklabs-io/raffle/database/models"
	"gorm.io/gorm"
)

// AddEventRecord appends an entry to the event journal
func (d *MetadataStoreSqlite) AddEventRecord(
	record *models.EventRecord,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	return db.Create(record).Error
}

// GetEventRecords returns journal entries in insertion order, starting after
// the given id. An empty eventType matches every type.
func (d *MetadataStoreSqlite) GetEventRecords(
	eventType string,
	afterId uint,
	limit int,
	txn *gorm.DB,
) ([]models.EventRecord, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	query := db.Where("id > ?", afterId)
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	var ret []models.EventRecord
	result := query.Order("id").Limit(limit).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
