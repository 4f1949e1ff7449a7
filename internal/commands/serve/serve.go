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

// Package serve implements rhmcp serve, which runs the rhino and weather
// MCP servers.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/compute"
	"github.com/aectech/rhcompute-mcp/internal/config"
	"github.com/aectech/rhcompute-mcp/internal/log"
	"github.com/aectech/rhcompute-mcp/internal/mcp/rhino"
	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	mcpweather "github.com/aectech/rhcompute-mcp/internal/mcp/weather"
	"github.com/aectech/rhcompute-mcp/internal/runs"
	"github.com/aectech/rhcompute-mcp/internal/secrets"
	"github.com/aectech/rhcompute-mcp/internal/tracing"
	"github.com/aectech/rhcompute-mcp/internal/weather"
)

// serverFlags are the transport overrides shared by both subcommands.
type serverFlags struct {
	transport string
	host      string
	port      int
}

func (f *serverFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.transport, "transport", mcpserver.TransportHTTP, "Transport to serve on (http or stdio)")
	cmd.Flags().StringVar(&f.host, "host", "", "Bind address (default from config)")
	cmd.Flags().IntVar(&f.port, "port", 0, "Listen port (default from config)")
}

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP tool server",
		Long: `Run one of the rhmcp MCP tool servers.

The rhino server exposes Grasshopper definitions evaluated on Rhino.Compute.
The weather server exposes National Weather Service alerts, forecasts and
observations.

Both serve streamable HTTP by default. Use --transport stdio to run under an
MCP host that launches servers as subprocesses; logs then go to stderr only.`,
	}

	cmd.AddCommand(newRhinoCommand())
	cmd.AddCommand(newWeatherCommand())
	return cmd
}

func newRhinoCommand() *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "rhino",
		Short: "Serve the Rhino.Compute Grasshopper tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), "rhino", flags, buildRhino)
		},
	}
	flags.register(cmd)
	return cmd
}

func newWeatherCommand() *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Serve the National Weather Service tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), "weather", flags, buildWeather)
		},
	}
	flags.register(cmd)
	return cmd
}

// runner is a constructed server ready to Run.
type runner interface {
	Run(ctx context.Context) error
}

type buildFunc func(ctx context.Context, cfg *config.Config, base mcpserver.Config, logger *slog.Logger) (runner, func(), error)

func runServer(ctx context.Context, name string, flags serverFlags, build buildFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	// Stdout belongs to the stdio transport, so logs always go to stderr.
	logger := log.WithComponent(shared.NewLogger(cfg, os.Stderr), name)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	version, _, _ := shared.GetVersion()
	tracingCfg := cfg.Tracing
	tracingCfg.ServiceName = "rhmcp-" + name
	tracingCfg.ServiceVersion = version
	tp, err := tracing.Setup(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", log.Error(err))
		}
	}()

	base, err := baseConfig(ctx, cfg, flags, logger)
	if err != nil {
		return err
	}
	base.Version = version

	srv, cleanup, err := build(ctx, cfg, base, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// baseConfig maps the server config section and flag overrides onto the
// shared server settings. The JWT secret is optional: when it does not
// resolve the HTTP endpoint is unauthenticated.
func baseConfig(ctx context.Context, cfg *config.Config, flags serverFlags, logger *slog.Logger) (mcpserver.Config, error) {
	base := mcpserver.Config{
		Transport:       flags.transport,
		Host:            cfg.Server.Host,
		Endpoint:        cfg.Server.Endpoint,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		Metrics:         cfg.Server.Metrics,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	}
	if flags.host != "" {
		base.Host = flags.host
	}
	base.Port = flags.port

	if base.Transport != mcpserver.TransportHTTP && base.Transport != mcpserver.TransportStdio {
		return base, &shared.ExitError{
			Code:    shared.ExitConfigError,
			Message: fmt.Sprintf("unknown transport %q (want http or stdio)", base.Transport),
		}
	}

	if cfg.Server.AuthSecretRef != "" && base.Transport == mcpserver.TransportHTTP {
		secret, err := secrets.Default().Lookup(ctx, cfg.Server.AuthSecretRef)
		if err != nil {
			return base, fmt.Errorf("failed to resolve auth secret: %w", err)
		}
		if secret == "" {
			logger.Warn("auth secret not set, endpoint is unauthenticated", "secret", cfg.Server.AuthSecretRef)
		} else {
			base.AuthSecret = []byte(secret)
		}
	}
	return base, nil
}

func buildRhino(ctx context.Context, cfg *config.Config, base mcpserver.Config, logger *slog.Logger) (runner, func(), error) {
	if base.Port == 0 {
		base.Port = cfg.Server.RhinoPort
	}

	apiKey := cfg.Compute.APIKey
	if apiKey == "" {
		key, err := secrets.Default().Lookup(ctx, secrets.RhinoComputeAPIKey)
		if err != nil {
			logger.Warn("rhino compute api key lookup failed", log.Error(err))
		}
		apiKey = key
	}

	cc, err := compute.New(compute.Config{
		URL:          cfg.Compute.URL,
		APIKey:       apiKey,
		AuthToken:    cfg.Compute.AuthToken,
		InfoTimeout:  cfg.Compute.InfoTimeout,
		IOTimeout:    cfg.Compute.IOTimeout,
		SolveTimeout: cfg.Compute.SolveTimeout,
	}, log.WithComponent(logger, "compute"))
	if err != nil {
		return nil, nil, shared.NewConfigError("invalid compute settings", err)
	}

	store, err := runs.Open(cfg.Runs.Backend, cfg.Runs.Path)
	if err != nil {
		return nil, nil, shared.NewConfigError("failed to open run history", err)
	}

	srv, err := rhino.New(rhino.Config{
		Server:       base,
		AssetsDir:    cfg.Compute.AssetsDir,
		OutputDir:    cfg.Compute.OutputDir,
		AllowedPaths: cfg.Compute.AllowedPaths,
		WatchAssets:  cfg.Compute.WatchAssets,
	}, cc, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return srv, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close run history", log.Error(err))
		}
	}, nil
}

func buildWeather(_ context.Context, cfg *config.Config, base mcpserver.Config, logger *slog.Logger) (runner, func(), error) {
	if base.Port == 0 {
		base.Port = cfg.Server.WeatherPort
	}

	wc, err := weather.New(weather.Config{
		BaseURL:   cfg.Weather.BaseURL,
		UserAgent: cfg.Weather.UserAgent,
		Timeout:   cfg.Weather.Timeout,
	}, log.WithComponent(logger, "nws"))
	if err != nil {
		return nil, nil, shared.NewConfigError("invalid weather settings", err)
	}
	return mcpweather.New(base, wc), func() {}, nil
}
