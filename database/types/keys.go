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
	"slices"

	"github.com/holiman/uint256"
)

const (
	OracleSubscriptionKeyPrefix = "os"
	OracleRequestKeyPrefix      = "or"
	OracleSubNonceKey           = "on"
)

func uint256Key(prefix string, v *uint256.Int) []byte {
	b := v.Bytes32()
	return slices.Concat([]byte(prefix), b[:])
}

func OracleSubscriptionKey(subID *uint256.Int) []byte {
	return uint256Key(OracleSubscriptionKeyPrefix, subID)
}

func OracleRequestKey(reqID *uint256.Int) []byte {
	return uint256Key(OracleRequestKeyPrefix, reqID)
}
