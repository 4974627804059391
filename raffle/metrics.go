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

package raffle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type raffleMetrics struct {
	entries           prometheus.Counter
	players           prometheus.Gauge
	poolBalance       prometheus.Gauge
	state             prometheus.Gauge
	rounds            prometheus.Counter
	payoutFailures    prometheus.Counter
	upkeepRejections  prometheus.Counter
	roundResets       prometheus.Counter
	randomnessLatency prometheus.Histogram
}

func newRaffleMetrics(promRegistry prometheus.Registerer) *raffleMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &raffleMetrics{
		entries: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_entries_total",
			Help: "total accepted raffle entries",
		}),
		players: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_players",
			Help: "entries in the current round",
		}),
		poolBalance: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_pool_balance_wei",
			Help: "prize pool of the current round in wei",
		}),
		state: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_state",
			Help: "raffle state (0 = open, 1 = calculating)",
		}),
		rounds: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_rounds_total",
			Help: "total resolved rounds",
		}),
		payoutFailures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_payout_failures_total",
			Help: "total rolled back resolutions due to failed payouts",
		}),
		upkeepRejections: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_upkeep_rejections_total",
			Help: "total upkeep attempts rejected because none was needed",
		}),
		roundResets: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_round_resets_total",
			Help: "total stuck rounds reopened by the owner",
		}),
		randomnessLatency: promautoFactory.NewHistogram(prometheus.HistogramOpts{
			Name:    "raffle_randomness_latency_seconds",
			Help:    "time between requesting and receiving randomness",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
		}),
	}
}
