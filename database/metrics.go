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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type databaseMetrics struct {
	journalRecords prometheus.Counter
	journalErrors  prometheus.Counter
	snapshotWrites prometheus.Counter
}

func newDatabaseMetrics(promRegistry prometheus.Registerer) *databaseMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &databaseMetrics{
		journalRecords: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_journal_records_total",
			Help: "total events written to the journal",
		}),
		journalErrors: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_journal_errors_total",
			Help: "total journal write failures",
		}),
		snapshotWrites: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_snapshot_writes_total",
			Help: "total raffle snapshots persisted",
		}),
	}
}
