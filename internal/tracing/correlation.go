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

// Package tracing carries correlation IDs and OpenTelemetry setup for the
// MCP servers and the chat client.
package tracing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CorrelationIDHeader carries the ID on outbound HTTP and MCP requests.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID ties together the log lines and spans of one tool call or
// one chat turn.
type CorrelationID string

type correlationKey struct{}

// NewCorrelationID returns a random UUID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}

// String implements fmt.Stringer.
func (c CorrelationID) String() string { return string(c) }

// IsValid reports whether c parses as a UUID.
func (c CorrelationID) IsValid() bool {
	_, err := uuid.Parse(string(c))
	return err == nil
}

// ToContext stores id on ctx.
func ToContext(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// FromContextOrEmpty returns the ID stored on ctx, or "".
func FromContextOrEmpty(ctx context.Context) CorrelationID {
	if id, ok := ctx.Value(correlationKey{}).(CorrelationID); ok {
		return id
	}
	return ""
}

// EnsureContext returns ctx unchanged when it already carries an ID,
// otherwise a child context with a fresh one.
func EnsureContext(ctx context.Context) (context.Context, CorrelationID) {
	if id := FromContextOrEmpty(ctx); id != "" {
		return ctx, id
	}
	id := NewCorrelationID()
	return ToContext(ctx, id), id
}

// FromRequest reads a valid ID from the request header, or mints one.
// The streamable HTTP server uses it as its context hook so a chat turn's
// ID follows the call into the server logs.
func FromRequest(ctx context.Context, r *http.Request) context.Context {
	id := CorrelationID(r.Header.Get(CorrelationIDHeader))
	if !id.IsValid() {
		id = NewCorrelationID()
	}
	return ToContext(ctx, id)
}
