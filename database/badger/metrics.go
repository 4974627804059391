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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type blobMetrics struct {
	reads   prometheus.Counter
	writes  prometheus.Counter
	deletes prometheus.Counter
	gcRuns  prometheus.Counter
}

func newBlobMetrics(promRegistry prometheus.Registerer) *blobMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &blobMetrics{
		reads: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_blob_reads_total",
			Help: "total blob store reads",
		}),
		writes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_blob_writes_total",
			Help: "total blob store writes",
		}),
		deletes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_blob_deletes_total",
			Help: "total blob store deletes",
		}),
		gcRuns: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_blob_gc_runs_total",
			Help: "total successful value log garbage collections",
		}),
	}
}
