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

package shared

import (
	"io"
	"log/slog"

	"github.com/aectech/rhcompute-mcp/internal/config"
	"github.com/aectech/rhcompute-mcp/internal/log"
)

// LoadConfig reads the config named by --config, or the default location.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load config", err)
	}
	return cfg, nil
}

// NewLogger builds the command logger on out. The config sets the base
// level, the environment overrides it, and --verbose or --quiet win.
func NewLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Output = out
	if cfg != nil {
		if cfg.Log.Level != "" {
			logCfg.Level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			logCfg.Format = log.Format(cfg.Log.Format)
		}
		logCfg.AddSource = cfg.Log.AddSource
	}
	log.ApplyEnv(logCfg)

	switch {
	case GetVerbose():
		logCfg.Level = "debug"
	case GetQuiet():
		logCfg.Level = "error"
	}
	return log.New(logCfg)
}
