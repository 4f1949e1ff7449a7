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
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aectech/rhcompute-mcp/internal/tracing"
)

const tracerName = "github.com/aectech/rhcompute-mcp/internal/mcp/server"

// correlationMiddleware makes sure every call has a correlation ID.
func (b *Base) correlationMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, _ = tracing.EnsureContext(ctx)
		return next(ctx, req)
	}
}

func (b *Base) rateLimitMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !b.limiter.Allow() {
			b.metrics.observe(b.cfg.Name, req.Params.Name, statusLimited, 0)
			b.logger.WarnContext(ctx, "tool call rate limited", "tool", req.Params.Name)
			return ErrorResult("Rate limit exceeded. Please try again later."), nil
		}
		return next(ctx, req)
	}
}

// observeMiddleware logs, times and traces each call.
func (b *Base) observeMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool := req.Params.Name
		ctx, span := otel.Tracer(tracerName).Start(ctx, "tool "+tool,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.server", b.cfg.Name),
				attribute.String("mcp.tool", tool),
			))
		defer span.End()

		start := time.Now()
		res, err := next(ctx, req)
		elapsed := time.Since(start)

		status := statusOK
		switch {
		case err != nil:
			status = statusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res != nil && res.IsError:
			status = statusError
			span.SetStatus(codes.Error, "tool returned error")
		}
		b.metrics.observe(b.cfg.Name, tool, status, elapsed)

		b.logger.InfoContext(ctx, "tool call",
			"tool", tool,
			"status", status,
			"duration_ms", elapsed.Milliseconds())
		return res, err
	}
}
