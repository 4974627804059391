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

package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type coordinatorMetrics struct {
	requests           prometheus.Counter
	fulfillments       prometheus.Counter
	failedFulfillments prometheus.Counter
	pendingRequests    prometheus.Gauge
	subscriptions      prometheus.Gauge
}

func newCoordinatorMetrics(promRegistry prometheus.Registerer) *coordinatorMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &coordinatorMetrics{
		requests: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_oracle_requests_total",
			Help: "total accepted randomness requests",
		}),
		fulfillments: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_oracle_fulfillments_total",
			Help: "total successful randomness fulfillments",
		}),
		failedFulfillments: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_oracle_failed_fulfillments_total",
			Help: "total fulfillments rejected by the consumer",
		}),
		pendingRequests: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_oracle_pending_requests",
			Help: "randomness requests awaiting fulfillment",
		}),
		subscriptions: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_oracle_subscriptions",
			Help: "active coordinator subscriptions",
		}),
	}
}
