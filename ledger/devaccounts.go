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

package ledger

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const devAccountSeed = "raffle-dev-account"

// DevAccounts returns count deterministic development account addresses. The
// same index always yields the same address.
func DevAccounts(count int) []common.Address {
	ret := make([]common.Address, 0, max(count, 0))
	for i := range count {
		h := sha3.NewLegacyKeccak256()
		h.Write([]byte(devAccountSeed))
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(i))
		h.Write(idx[:])
		ret = append(ret, common.BytesToAddress(h.Sum(nil)[12:]))
	}
	return ret
}
