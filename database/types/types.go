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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Uint256 stores a 256-bit unsigned integer as a decimal string
//
//nolint:recvcheck
type Uint256 uint256.Int

func NewUint256(v *uint256.Int) Uint256 {
	if v == nil {
		return Uint256{}
	}
	return Uint256(*v)
}

func (u Uint256) Int() *uint256.Int {
	v := uint256.Int(u)
	return &v
}

func (u Uint256) Value() (driver.Value, error) {
	return u.Int().Dec(), nil
}

func (u *Uint256) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmp, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("failed to parse uint256 value %q: %w", s, err)
	}
	*u = Uint256(*tmp)
	return nil
}

// Address stores an account address as a checksummed hex string
//
//nolint:recvcheck
type Address common.Address

func (a Address) Address() common.Address {
	return common.Address(a)
}

func (a Address) Value() (driver.Value, error) {
	return common.Address(a).Hex(), nil
}

func (a *Address) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if !common.IsHexAddress(s) {
		return fmt.Errorf("invalid address: %q", s)
	}
	*a = Address(common.HexToAddress(s))
	return nil
}

// ErrBlobKeyNotFound is returned by blob operations when a key is missing
var ErrBlobKeyNotFound = errors.New("blob key not found")

// ErrBlobStoreUnavailable is returned when blob store cannot be accessed
var ErrBlobStoreUnavailable = errors.New("blob store unavailable")
