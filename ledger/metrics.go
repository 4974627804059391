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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	transfers       prometheus.Counter
	refunds         prometheus.Counter
	failedTransfers prometheus.Counter
}

func newLedgerMetrics(promRegistry prometheus.Registerer) *ledgerMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &ledgerMetrics{
		transfers: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_ledger_transfers_total",
			Help: "total successful ledger transfers",
		}),
		refunds: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_ledger_refunds_total",
			Help: "total reversed ledger transfers",
		}),
		failedTransfers: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_ledger_failed_transfers_total",
			Help: "total rejected ledger transfers",
		}),
	}
}
