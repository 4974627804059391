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
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/raffle/database/types"
	"github.com/blinklabs-io/raffle/oracle"
)

// OracleStore keeps mock coordinator state in the blob store
type OracleStore struct {
	db *Database
}

var _ oracle.Store = (*OracleStore)(nil)

// OracleStore returns a coordinator store backed by this database
func (d *Database) OracleStore() *OracleStore {
	return &OracleStore{db: d}
}

func (s *OracleStore) SaveSubscription(sub *oracle.Subscription) error {
	val, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription %s: %w", sub.ID, err)
	}
	return s.db.Blob().Set(types.OracleSubscriptionKey(sub.ID.Int()), val)
}

func (s *OracleStore) DeleteSubscription(id oracle.SubscriptionID) error {
	return s.db.Blob().Delete(types.OracleSubscriptionKey(id.Int()))
}

func (s *OracleStore) LoadSubscriptions() ([]*oracle.Subscription, error) {
	var ret []*oracle.Subscription
	err := s.db.Blob().IteratePrefix(
		[]byte(types.OracleSubscriptionKeyPrefix),
		func(key, val []byte) error {
			var sub oracle.Subscription
			if err := json.Unmarshal(val, &sub); err != nil {
				return fmt.Errorf("decode subscription %x: %w", key, err)
			}
			ret = append(ret, &sub)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *OracleStore) SaveRequest(req *oracle.Request) error {
	val, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", req.ID, err)
	}
	return s.db.Blob().Set(types.OracleRequestKey(req.ID.Int()), val)
}

func (s *OracleStore) DeleteRequest(id oracle.RequestID) error {
	return s.db.Blob().Delete(types.OracleRequestKey(id.Int()))
}

func (s *OracleStore) LoadRequests() ([]*oracle.Request, error) {
	var ret []*oracle.Request
	err := s.db.Blob().IteratePrefix(
		[]byte(types.OracleRequestKeyPrefix),
		func(key, val []byte) error {
			var req oracle.Request
			if err := json.Unmarshal(val, &req); err != nil {
				return fmt.Errorf("decode request %x: %w", key, err)
			}
			ret = append(ret, &req)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *OracleStore) SetSubscriptionNonce(nonce uint64) error {
	return s.db.Blob().Set(
		[]byte(types.OracleSubNonceKey),
		binary.BigEndian.AppendUint64(nil, nonce),
	)
}

func (s *OracleStore) SubscriptionNonce() (uint64, error) {
	val, err := s.db.Blob().Get([]byte(types.OracleSubNonceKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid subscription nonce length %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}
