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

// Package log configures the slog loggers used by the MCP servers and the
// chat command.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aectech/rhcompute-mcp/internal/tracing"
)

// Format is the handler encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatText emits logfmt-style key=value lines.
	FormatText Format = "text"
)

// LevelTrace sits below debug and is used for request and response bodies.
const LevelTrace = slog.Level(-8)

// Field keys shared across packages.
const (
	ComponentKey = "component"
	ServerKey    = "server"
	ToolKey      = "tool"
	ProviderKey  = "provider"
	DurationKey  = "duration_ms"
)

// Config holds the logging configuration.
type Config struct {
	// Level is trace, debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format Format `yaml:"format"`

	// Output defaults to stderr. Stdout is reserved for the stdio transport.
	Output io.Writer `yaml:"-"`

	// AddSource adds file:line to each record.
	AddSource bool `yaml:"add_source"`
}

// DefaultConfig returns info-level text logging on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// FromEnv overlays environment variables on DefaultConfig:
//   - RHMCP_DEBUG=1|true forces debug with source locations
//   - RHMCP_LOG_LEVEL, falling back to LOG_LEVEL
//   - LOG_FORMAT
//   - LOG_SOURCE=1
func FromEnv() *Config {
	cfg := DefaultConfig()
	ApplyEnv(cfg)
	return cfg
}

// ApplyEnv overlays the environment on an existing config.
func ApplyEnv(cfg *Config) {
	debug := os.Getenv("RHMCP_DEBUG")
	if debug == "1" || debug == "true" {
		cfg.Level = "debug"
		cfg.AddSource = true
	} else if lvl := os.Getenv("RHMCP_LOG_LEVEL"); lvl != "" {
		cfg.Level = strings.ToLower(lvl)
	} else if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Level = strings.ToLower(lvl)
	}
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		cfg.Format = Format(strings.ToLower(f))
	}
	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}
}

// New builds a logger from cfg. Records logged with a context that carries a
// correlation ID get a correlation_id attribute.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(&correlationHandler{Handler: h})
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether ParseLevel knows level.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

type correlationHandler struct {
	slog.Handler
}

func (h *correlationHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := tracing.FromContextOrEmpty(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id.String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &correlationHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *correlationHandler) WithGroup(name string) slog.Handler {
	return &correlationHandler{Handler: h.Handler.WithGroup(name)}
}

// WithComponent tags logger with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(ComponentKey, component)
}

// WithServer tags logger with an MCP server name.
func WithServer(logger *slog.Logger, server string) *slog.Logger {
	return logger.With(ServerKey, server)
}

// WithTool tags logger with a tool name.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(ToolKey, tool)
}

// WithProvider tags logger with an LLM provider name.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(ProviderKey, provider)
}

// Error is the attribute form of an error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// SanitizeAPIKey keeps the last four characters of key.
func SanitizeAPIKey(key string) string {
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return "..." + key[len(key)-4:]
}

// Trace logs at LevelTrace.
func Trace(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, args...)
}
