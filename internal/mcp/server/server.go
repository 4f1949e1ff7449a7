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

// Package server holds the pieces shared by the rhino and weather MCP
// servers: construction, tool middleware and the stdio and streamable
// HTTP transports.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aectech/rhcompute-mcp/internal/auth"
	"github.com/aectech/rhcompute-mcp/internal/tracing"
)

// Transport names.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config configures a Base.
type Config struct {
	// Name is advertised to clients and labels metrics.
	Name    string
	Version string

	// Instructions is sent in the initialize response.
	Instructions string

	// Transport is http (default) or stdio.
	Transport string

	Host     string
	Port     int
	Endpoint string

	// RateLimit is tool calls per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	// AuthSecret enables bearer token checks on the HTTP endpoint.
	AuthSecret []byte

	// Metrics serves /metrics on the HTTP listener.
	Metrics bool

	ShutdownTimeout time.Duration

	Logger *slog.Logger

	// Registry receives the tool metrics. A private registry is used when nil.
	Registry *prometheus.Registry
}

// Base is an MCP server with the shared middleware installed.
type Base struct {
	cfg     Config
	mcp     *server.MCPServer
	logger  *slog.Logger
	limiter *RateLimiter
	metrics *Metrics
	reg     *prometheus.Registry
}

// New builds the server. Extra options are applied after the defaults so
// callers can enable elicitation or roots.
func New(cfg Config, opts ...server.ServerOption) *Base {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "/mcp"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	b := &Base{
		cfg:     cfg,
		logger:  logger.With("server", cfg.Name),
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		metrics: NewMetrics(reg),
		reg:     reg,
	}

	base := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
		server.WithToolHandlerMiddleware(b.correlationMiddleware),
		server.WithToolHandlerMiddleware(b.rateLimitMiddleware),
		server.WithToolHandlerMiddleware(b.observeMiddleware),
		server.WithRecovery(),
	}
	if cfg.Instructions != "" {
		base = append(base, server.WithInstructions(cfg.Instructions))
	}

	b.mcp = server.NewMCPServer(cfg.Name, cfg.Version, append(base, opts...)...)
	return b
}

// MCP returns the underlying server for registration.
func (b *Base) MCP() *server.MCPServer { return b.mcp }

// Logger returns the server's logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Addr is the HTTP listen address.
func (b *Base) Addr() string {
	return net.JoinHostPort(b.cfg.Host, strconv.Itoa(b.cfg.Port))
}

// Handler returns the HTTP handler: the MCP endpoint, behind the bearer
// check when a secret is configured, plus /metrics when enabled.
func (b *Base) Handler() http.Handler {
	streamable := server.NewStreamableHTTPServer(b.mcp,
		server.WithEndpointPath(b.cfg.Endpoint),
		server.WithHTTPContextFunc(tracing.FromRequest),
	)

	mux := http.NewServeMux()
	mux.Handle(b.cfg.Endpoint, streamable)
	if b.cfg.Metrics {
		mux.Handle("/metrics", promhttp.HandlerFor(
			prometheus.Gatherers{b.reg, prometheus.DefaultGatherer},
			promhttp.HandlerOpts{},
		))
	}

	var h http.Handler = mux
	if len(b.cfg.AuthSecret) > 0 {
		h = auth.Middleware(auth.Config{
			Secret:    b.cfg.AuthSecret,
			Issuer:    auth.DefaultIssuer,
			ClockSkew: 30 * time.Second,
		}, h, "/metrics")
	}
	return h
}

// Run serves until ctx is cancelled.
func (b *Base) Run(ctx context.Context) error {
	switch b.cfg.Transport {
	case TransportStdio:
		b.logger.Info("serving MCP over stdio")
		return server.NewStdioServer(b.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case TransportHTTP:
		return b.serveHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q (want http or stdio)", b.cfg.Transport)
	}
}

func (b *Base) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              b.Addr(),
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("serving MCP over streamable HTTP",
			"addr", srv.Addr,
			"endpoint", b.cfg.Endpoint,
			"auth", len(b.cfg.AuthSecret) > 0)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), b.cfg.ShutdownTimeout)
	defer cancel()
	b.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
