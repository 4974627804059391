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
	"errors"

	"github.com/blinklabs-io/raffle/database/models"
	"github.com/blinklabs-io/raffle/database/types"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entrantBatchSize = 500

// GetRaffleSnapshot returns the stored raffle state and its entrants in entry
// order, or nil if no state has been saved
func (d *MetadataStoreSqlite) GetRaffleSnapshot(
	txn *gorm.DB,
) (*models.RaffleSnapshot, []common.Address, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	var snap models.RaffleSnapshot
	result := db.First(&snap, models.RaffleSnapshotRowId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, result.Error
	}
	var entrants []models.RaffleEntrant
	result = db.Order("position").Find(&entrants)
	if result.Error != nil {
		return nil, nil, result.Error
	}
	players := make([]common.Address, len(entrants))
	for i, entrant := range entrants {
		players[i] = entrant.Player.Address()
	}
	return &snap, players, nil
}

// SetRaffleSnapshot replaces the stored raffle state and entrant list
func (d *MetadataStoreSqlite) SetRaffleSnapshot(
	snap *models.RaffleSnapshot,
	players []common.Address,
	txn *gorm.DB,
) error {
	if txn != nil {
		return d.setRaffleSnapshot(snap, players, txn)
	}
	return d.DB().Transaction(func(tx *gorm.DB) error {
		return d.setRaffleSnapshot(snap, players, tx)
	})
}

func (d *MetadataStoreSqlite) setRaffleSnapshot(
	snap *models.RaffleSnapshot,
	players []common.Address,
	db *gorm.DB,
) error {
	snap.ID = models.RaffleSnapshotRowId
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(snap)
	if result.Error != nil {
		return result.Error
	}
	result = db.Where("1 = 1").Delete(&models.RaffleEntrant{})
	if result.Error != nil {
		return result.Error
	}
	if len(players) == 0 {
		return nil
	}
	entrants := make([]models.RaffleEntrant, len(players))
	for i, player := range players {
		entrants[i] = models.RaffleEntrant{
			Position: uint(i),
			Player:   types.Address(player),
		}
	}
	return db.CreateInBatches(entrants, entrantBatchSize).Error
}

// AddRaffleRound records a resolved round. Recording the same round twice is
// a no-op.
func (d *MetadataStoreSqlite) AddRaffleRound(
	round *models.RaffleRound,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round"}},
		DoNothing: true,
	}).Create(round)
	return result.Error
}

// GetRaffleRound returns a single resolved round, or nil if it does not exist
func (d *MetadataStoreSqlite) GetRaffleRound(
	round uint64,
	txn *gorm.DB,
) (*models.RaffleRound, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	var ret models.RaffleRound
	result := db.Where("round = ?", round).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetRaffleRounds returns a page of resolved rounds, most recent first unless
// ascending is set
func (d *MetadataStoreSqlite) GetRaffleRounds(
	limit int,
	offset int,
	ascending bool,
	txn *gorm.DB,
) ([]models.RaffleRound, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	order := "round DESC"
	if ascending {
		order = "round"
	}
	var ret []models.RaffleRound
	result := db.Order(order).Limit(limit).Offset(offset).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountRaffleRounds returns the number of resolved rounds
func (d *MetadataStoreSqlite) CountRaffleRounds(txn *gorm.DB) (int64, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	var ret int64
	if result := db.Model(&models.RaffleRound{}).Count(&ret); result.Error != nil {
		return 0, result.Error
	}
	return ret, nil
}

// GetRaffleRoundsByWinner returns every round won by the given account
func (d *MetadataStoreSqlite) GetRaffleRoundsByWinner(
	winner common.Address,
	txn *gorm.DB,
) ([]models.RaffleRound, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	var ret []models.RaffleRound
	result := db.Where("winner = ?", types.Address(winner)).
		Order("round DESC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
