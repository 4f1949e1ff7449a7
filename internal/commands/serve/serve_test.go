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

package serve

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/config"
	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	mcpweather "github.com/aectech/rhcompute-mcp/internal/mcp/weather"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCommand_Subcommands(t *testing.T) {
	cmd := NewCommand()
	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
		assert.NotNil(t, sub.Flags().Lookup("transport"))
		assert.NotNil(t, sub.Flags().Lookup("port"))
	}
	assert.ElementsMatch(t, []string{"rhino", "weather"}, names)
}

func TestBaseConfig(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name     string
		flags    serverFlags
		wantHost string
		wantCode int
	}{
		{name: "defaults", flags: serverFlags{transport: "http"}, wantHost: "0.0.0.0"},
		{name: "host override", flags: serverFlags{transport: "http", host: "127.0.0.1", port: 9000}, wantHost: "127.0.0.1"},
		{name: "stdio", flags: serverFlags{transport: "stdio"}, wantHost: "0.0.0.0"},
		{name: "bad transport", flags: serverFlags{transport: "sse"}, wantCode: shared.ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := baseConfig(context.Background(), cfg, tt.flags, discard())
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, shared.ExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, base.Host)
			assert.Equal(t, tt.flags.port, base.Port)
			assert.Equal(t, "/mcp", base.Endpoint)
			assert.Empty(t, base.AuthSecret)
		})
	}
}

func TestBaseConfig_AuthSecret(t *testing.T) {
	t.Setenv("RHMCP_SECRET_TEST_JWT", "s3cret")
	cfg := config.Default()
	cfg.Server.AuthSecretRef = "test_jwt"

	base, err := baseConfig(context.Background(), cfg, serverFlags{transport: mcpserver.TransportHTTP}, discard())
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), base.AuthSecret)

	base, err = baseConfig(context.Background(), cfg, serverFlags{transport: mcpserver.TransportStdio}, discard())
	require.NoError(t, err)
	assert.Empty(t, base.AuthSecret, "stdio has no HTTP endpoint to protect")
}

func TestBuildWeather_DefaultPort(t *testing.T) {
	cfg := config.Default()
	srv, cleanup, err := buildWeather(context.Background(), cfg, mcpserver.Config{Logger: discard()}, discard())
	require.NoError(t, err)
	defer cleanup()

	ws, ok := srv.(*mcpweather.Server)
	require.True(t, ok)
	assert.Equal(t, ":8000", ws.Base().Addr())
}
