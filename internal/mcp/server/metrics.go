// Copyright 2025 Tom Barlow
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

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusOK      = "ok"
	statusError   = "error"
	statusLimited = "rate_limited"
)

// Metrics are the Prometheus tool-call series.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the series with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rhmcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by server, tool and status.",
		}, []string{"server", "tool", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rhmcp",
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"server", "tool"}),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

func (m *Metrics) observe(server, tool, status string, d time.Duration) {
	m.calls.WithLabelValues(server, tool, status).Inc()
	if status != statusLimited {
		m.duration.WithLabelValues(server, tool).Observe(d.Seconds())
	}
}
