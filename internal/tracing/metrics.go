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

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records LLM traffic from the chat agent.
type Metrics struct {
	requests metric.Int64Counter
	tokens   metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("rhmcp")

	requests, err := meter.Int64Counter("rhmcp_llm_requests_total",
		metric.WithDescription("LLM completion requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	tokens, err := meter.Int64Counter("rhmcp_llm_tokens_total",
		metric.WithDescription("Tokens consumed by LLM requests"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("rhmcp_llm_latency_seconds",
		metric.WithDescription("LLM completion latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, tokens: tokens, latency: latency}, nil
}

// RecordLLM records one completion. A nil receiver is a no-op so callers
// without a provider need no guard.
func (m *Metrics) RecordLLM(ctx context.Context, provider, model string, inputTokens, outputTokens int, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, d.Seconds(), attrs)
	if inputTokens > 0 {
		m.tokens.Add(ctx, int64(inputTokens), metric.WithAttributes(
			attribute.String("provider", provider), attribute.String("direction", "input")))
	}
	if outputTokens > 0 {
		m.tokens.Add(ctx, int64(outputTokens), metric.WithAttributes(
			attribute.String("provider", provider), attribute.String("direction", "output")))
	}
}
