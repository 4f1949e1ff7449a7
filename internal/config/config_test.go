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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rherrors "github.com/aectech/rhcompute-mcp/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RHMCP_PROVIDER", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:6500/", cfg.Compute.URL)
	assert.Equal(t, 300*time.Second, cfg.Compute.SolveTimeout)
	assert.Equal(t, "https://api.weather.gov", cfg.Weather.BaseURL)
	assert.Equal(t, "weather-app/1.0", cfg.Weather.UserAgent)
	assert.Equal(t, 8001, cfg.Server.RhinoPort)
	assert.Equal(t, 8000, cfg.Server.WeatherPort)
	assert.Equal(t, "/mcp", cfg.Server.Endpoint)
	assert.Equal(t, []string{"http://localhost:8000/mcp"}, cfg.Chat.Servers)
	assert.Equal(t, "openai", cfg.Chat.Provider)
	assert.Equal(t, DefaultSystemPrompt, cfg.Chat.SystemPrompt)
	assert.Equal(t, 20, cfg.Chat.MaxIterations)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
compute:
  url: http://compute.internal:6500/
  solve_timeout: 2m
chat:
  provider: ollama
  servers:
    - http://localhost:8000/mcp
    - http://localhost:8001/mcp
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://compute.internal:6500/", cfg.Compute.URL)
	assert.Equal(t, 2*time.Minute, cfg.Compute.SolveTimeout)
	assert.Equal(t, 10*time.Second, cfg.Compute.IOTimeout)
	assert.Equal(t, "ollama", cfg.Chat.Provider)
	assert.Len(t, cfg.Chat.Servers, 2)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "compute:\n  url: http://a:1/\n")
	t.Setenv("RHMCP_COMPUTE_URL", "http://b:2/")
	t.Setenv("RHMCP_PROVIDER", "anthropic")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://b:2/", cfg.Compute.URL)
	assert.Equal(t, "anthropic", cfg.Chat.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *rherrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config_file", cfgErr.Key)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"bad compute scheme", func(c *Config) { c.Compute.URL = "ftp://x/" }, "compute.url"},
		{"port range", func(c *Config) { c.Server.RhinoPort = 70000 }, "server.rhino_port"},
		{"endpoint slash", func(c *Config) { c.Server.Endpoint = "mcp" }, "server.endpoint"},
		{"runs backend", func(c *Config) { c.Runs.Backend = "redis" }, "runs.backend"},
		{"sqlite needs path", func(c *Config) { c.Runs.Backend = "sqlite" }, "runs.path"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"provider", func(c *Config) { c.Chat.Provider = "gemini" }, "chat.provider"},
		{"chat server", func(c *Config) { c.Chat.Servers = []string{"localhost"} }, "chat.servers[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *rherrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Chat.Model = "gpt-4o"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", loaded.Chat.Model)
}

func TestConfigDirHonorsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "rhmcp"), dir)
	assert.DirExists(t, dir)
}
