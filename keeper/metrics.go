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

package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type keeperMetrics struct {
	checks    prometheus.Counter
	performed prometheus.Counter
	lostRaces prometheus.Counter
	failures  prometheus.Counter
}

func newKeeperMetrics(promRegistry prometheus.Registerer) *keeperMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &keeperMetrics{
		checks: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_keeper_checks_total",
			Help: "total upkeep predicate checks",
		}),
		performed: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_keeper_upkeeps_total",
			Help: "total upkeeps performed",
		}),
		lostRaces: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_keeper_lost_races_total",
			Help: "total upkeeps rejected after a positive check",
		}),
		failures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_keeper_failures_total",
			Help: "total upkeeps that failed for another reason",
		}),
	}
}
