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

package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aectech/rhcompute-mcp/internal/tracing"
)

const tracerName = "github.com/aectech/rhcompute-mcp/pkg/llm"

// InstrumentedProvider traces each completion and records token metrics.
type InstrumentedProvider struct {
	Provider
	metrics *tracing.Metrics
}

// Instrument wraps provider. metrics may be nil.
func Instrument(provider Provider, metrics *tracing.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: provider, metrics: metrics}
}

// Complete implements Provider.
func (p *InstrumentedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.Model()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm "+p.Name(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", p.Name()),
			attribute.String("gen_ai.request.model", model),
			attribute.Int("llm.messages", len(req.Messages)),
			attribute.Int("llm.tools", len(req.Tools)),
		))
	defer span.End()

	start := time.Now()
	resp, err := p.Provider.Complete(ctx, req)
	elapsed := time.Since(start)

	var in, out int
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
		span.SetAttributes(
			attribute.Int("gen_ai.usage.input_tokens", in),
			attribute.Int("gen_ai.usage.output_tokens", out),
			attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
		)
	}
	p.metrics.RecordLLM(ctx, p.Name(), model, in, out, elapsed, err)
	return resp, err
}
