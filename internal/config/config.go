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

// Package config loads the rhmcp configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aectech/rhcompute-mcp/internal/tracing"
	rherrors "github.com/aectech/rhcompute-mcp/pkg/errors"
)

// Config is the complete rhmcp configuration.
type Config struct {
	Log     LogConfig      `yaml:"log"`
	Compute ComputeConfig  `yaml:"compute"`
	Weather WeatherConfig  `yaml:"weather"`
	Server  ServerConfig   `yaml:"server"`
	Runs    RunsConfig     `yaml:"runs"`
	Tracing tracing.Config `yaml:"tracing"`
	Chat    ChatConfig     `yaml:"chat"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`
}

// ComputeConfig configures the Rhino.Compute client and the rhino server.
type ComputeConfig struct {
	// URL is the Rhino.Compute base URL.
	// Environment: RHMCP_COMPUTE_URL
	URL string `yaml:"url"`

	// APIKey is sent as the RhinoComputeKey header. Usually left empty and
	// resolved from the rhino_compute_api_key secret.
	APIKey string `yaml:"api_key,omitempty"`

	// AuthToken is sent as a bearer token.
	AuthToken string `yaml:"auth_token,omitempty"`

	InfoTimeout  time.Duration `yaml:"info_timeout"`
	IOTimeout    time.Duration `yaml:"io_timeout"`
	SolveTimeout time.Duration `yaml:"solve_timeout"`

	// AssetsDir holds the bundled Grasshopper definitions.
	// Environment: RHMCP_ASSETS_DIR
	AssetsDir string `yaml:"assets_dir"`

	// OutputDir receives saved geometry bundles.
	// Environment: RHMCP_OUTPUT_DIR
	OutputDir string `yaml:"output_dir"`

	// AllowedPaths limits which files the tools may read. Empty allows any
	// path.
	AllowedPaths []string `yaml:"allowed_paths,omitempty"`

	// WatchAssets refreshes the definition catalog when AssetsDir changes.
	WatchAssets bool `yaml:"watch_assets"`
}

// WeatherConfig configures the National Weather Service client.
type WeatherConfig struct {
	// BaseURL is the NWS API root.
	// Environment: RHMCP_WEATHER_URL
	BaseURL string `yaml:"base_url"`

	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ServerConfig configures the MCP server transports.
type ServerConfig struct {
	// Host is the bind address.
	// Environment: RHMCP_HOST
	Host string `yaml:"host"`

	RhinoPort   int    `yaml:"rhino_port"`
	WeatherPort int    `yaml:"weather_port"`
	Endpoint    string `yaml:"endpoint"`

	// RateLimit is tool calls per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// AuthSecretRef names the secret holding the JWT signing key. When the
	// secret resolves, the HTTP transport requires a bearer token.
	AuthSecretRef string `yaml:"auth_secret"`

	// Metrics exposes /metrics next to the MCP endpoint.
	Metrics bool `yaml:"metrics"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RunsConfig configures the Grasshopper run history.
type RunsConfig struct {
	// Backend is memory or sqlite.
	Backend string `yaml:"backend"`

	// Path is the sqlite database file.
	Path string `yaml:"path,omitempty"`
}

// ChatConfig configures the chat agent.
type ChatConfig struct {
	// Servers are the MCP streamable HTTP endpoints to connect to.
	Servers []string `yaml:"servers"`

	// Provider is ollama, openai, anthropic or bedrock.
	// Environment: RHMCP_PROVIDER
	Provider string `yaml:"provider"`

	// Model overrides the provider default.
	// Environment: RHMCP_MODEL
	Model string `yaml:"model,omitempty"`

	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`

	// MaxIterations caps tool rounds per turn.
	MaxIterations int `yaml:"max_iterations"`

	// OllamaHost is the Ollama base URL.
	// Environment: OLLAMA_HOST
	OllamaHost string `yaml:"ollama_host"`

	// AWSRegion is used by the bedrock provider.
	// Environment: AWS_REGION
	AWSRegion string `yaml:"aws_region,omitempty"`

	// RequestTimeout bounds a single LLM call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultSystemPrompt is the chat agent's system prompt.
const DefaultSystemPrompt = "You are a helpful personal assistant that specializes in architectura design using Rhino and Grasshopper tools."

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Compute: ComputeConfig{
			URL:          "http://localhost:6500/",
			InfoTimeout:  5 * time.Second,
			IOTimeout:    10 * time.Second,
			SolveTimeout: 300 * time.Second,
			AssetsDir:    "assets",
			OutputDir:    "output",
			WatchAssets:  true,
		},
		Weather: WeatherConfig{
			BaseURL:   "https://api.weather.gov",
			UserAgent: "weather-app/1.0",
			Timeout:   10 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			RhinoPort:       8001,
			WeatherPort:     8000,
			Endpoint:        "/mcp",
			RateBurst:       10,
			Metrics:         true,
			ShutdownTimeout: 5 * time.Second,
		},
		Runs: RunsConfig{
			Backend: "memory",
		},
		Tracing: tracing.Config{
			ServiceName: "rhmcp",
			Exporter:    tracing.ExporterNone,
			SampleRate:  1.0,
		},
		Chat: ChatConfig{
			Servers:        []string{"http://localhost:8000/mcp"},
			Provider:       "openai",
			Temperature:    0.3,
			MaxTokens:      2048,
			SystemPrompt:   DefaultSystemPrompt,
			MaxIterations:  20,
			OllamaHost:     "http://localhost:11434",
			RequestTimeout: 5 * time.Minute,
		},
	}
}

// Load reads configuration from path. An empty path means the default
// location; a missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, &rherrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", path),
					Cause:  err,
				}
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	if c.Compute.URL == "" {
		c.Compute.URL = d.Compute.URL
	}
	if c.Compute.InfoTimeout == 0 {
		c.Compute.InfoTimeout = d.Compute.InfoTimeout
	}
	if c.Compute.IOTimeout == 0 {
		c.Compute.IOTimeout = d.Compute.IOTimeout
	}
	if c.Compute.SolveTimeout == 0 {
		c.Compute.SolveTimeout = d.Compute.SolveTimeout
	}
	if c.Compute.AssetsDir == "" {
		c.Compute.AssetsDir = d.Compute.AssetsDir
	}
	if c.Compute.OutputDir == "" {
		c.Compute.OutputDir = d.Compute.OutputDir
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = d.Weather.BaseURL
	}
	if c.Weather.UserAgent == "" {
		c.Weather.UserAgent = d.Weather.UserAgent
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = d.Weather.Timeout
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.RhinoPort == 0 {
		c.Server.RhinoPort = d.Server.RhinoPort
	}
	if c.Server.WeatherPort == 0 {
		c.Server.WeatherPort = d.Server.WeatherPort
	}
	if c.Server.Endpoint == "" {
		c.Server.Endpoint = d.Server.Endpoint
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = d.Server.RateBurst
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}

	if c.Runs.Backend == "" {
		c.Runs.Backend = d.Runs.Backend
	}
	if c.Runs.Backend == "sqlite" && c.Runs.Path == "" {
		if dir, err := DataDir(); err == nil {
			c.Runs.Path = filepath.Join(dir, "runs.db")
		}
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = d.Tracing.SampleRate
	}

	if len(c.Chat.Servers) == 0 {
		c.Chat.Servers = d.Chat.Servers
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = d.Chat.Provider
	}
	if c.Chat.MaxTokens == 0 {
		c.Chat.MaxTokens = d.Chat.MaxTokens
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = d.Chat.SystemPrompt
	}
	if c.Chat.MaxIterations == 0 {
		c.Chat.MaxIterations = d.Chat.MaxIterations
	}
	if c.Chat.OllamaHost == "" {
		c.Chat.OllamaHost = d.Chat.OllamaHost
	}
	if c.Chat.RequestTimeout == 0 {
		c.Chat.RequestTimeout = d.Chat.RequestTimeout
	}
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("RHMCP_COMPUTE_URL"); v != "" {
		c.Compute.URL = v
	}
	if v := os.Getenv("RHMCP_ASSETS_DIR"); v != "" {
		c.Compute.AssetsDir = v
	}
	if v := os.Getenv("RHMCP_OUTPUT_DIR"); v != "" {
		c.Compute.OutputDir = v
	}
	if v := os.Getenv("RHMCP_WEATHER_URL"); v != "" {
		c.Weather.BaseURL = v
	}
	if v := os.Getenv("RHMCP_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("RHMCP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.RateLimit = f
		}
	}
	if v := os.Getenv("RHMCP_RUNS_BACKEND"); v != "" {
		c.Runs.Backend = v
	}
	if v := os.Getenv("RHMCP_TRACING_EXPORTER"); v != "" {
		c.Tracing.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" && c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv("RHMCP_PROVIDER"); v != "" {
		c.Chat.Provider = v
	}
	if v := os.Getenv("RHMCP_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Chat.OllamaHost = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && c.Chat.AWSRegion == "" {
		c.Chat.AWSRegion = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := validateURL("compute.url", c.Compute.URL); err != nil {
		return err
	}
	if err := validateURL("weather.base_url", c.Weather.BaseURL); err != nil {
		return err
	}
	for i, s := range c.Chat.Servers {
		if err := validateURL(fmt.Sprintf("chat.servers[%d]", i), s); err != nil {
			return err
		}
	}

	for key, port := range map[string]int{
		"server.rhino_port":   c.Server.RhinoPort,
		"server.weather_port": c.Server.WeatherPort,
	} {
		if port < 1 || port > 65535 {
			return &rherrors.ConfigError{Key: key, Reason: fmt.Sprintf("port %d out of range", port)}
		}
	}
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		return &rherrors.ConfigError{Key: "server.endpoint", Reason: "must start with /"}
	}
	if c.Server.RateLimit < 0 {
		return &rherrors.ConfigError{Key: "server.rate_limit", Reason: "must not be negative"}
	}

	switch c.Runs.Backend {
	case "memory":
	case "sqlite":
		if c.Runs.Path == "" {
			return &rherrors.ConfigError{Key: "runs.path", Reason: "required for the sqlite backend"}
		}
	default:
		return &rherrors.ConfigError{Key: "runs.backend", Reason: fmt.Sprintf("unknown backend %q (want memory or sqlite)", c.Runs.Backend)}
	}

	switch c.Tracing.Exporter {
	case tracing.ExporterNone, tracing.ExporterConsole, tracing.ExporterOTLP, tracing.ExporterOTLPHTTP:
	default:
		return &rherrors.ConfigError{Key: "tracing.exporter", Reason: fmt.Sprintf("unknown exporter %q", c.Tracing.Exporter)}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return &rherrors.ConfigError{Key: "tracing.sample_rate", Reason: "must be between 0 and 1"}
	}

	switch c.Chat.Provider {
	case "ollama", "openai", "anthropic", "bedrock":
	default:
		return &rherrors.ConfigError{Key: "chat.provider", Reason: fmt.Sprintf("unknown provider %q", c.Chat.Provider)}
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return &rherrors.ConfigError{Key: "chat.temperature", Reason: "must be between 0 and 2"}
	}
	if c.Chat.MaxTokens < 1 {
		return &rherrors.ConfigError{Key: "chat.max_tokens", Reason: "must be positive"}
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &rherrors.ConfigError{Key: key, Reason: "not a valid URL", Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &rherrors.ConfigError{Key: key, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &rherrors.ConfigError{Key: key, Reason: "missing host"}
	}
	return nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
