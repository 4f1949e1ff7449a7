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

package agent

// Config controls the agent's tool loop.
type Config struct {
	// SystemPrompt is the first message of every conversation
	SystemPrompt string

	// MaxIterations caps the model calls made for a single prompt
	MaxIterations int

	// TokenLimit is the estimated context budget. Older turns are dropped
	// from what is sent once the history passes 80% of it.
	TokenLimit int

	// Temperature and MaxTokens override the provider defaults when set
	Temperature *float64
	MaxTokens   *int
}

const (
	defaultMaxIterations = 20
	defaultTokenLimit    = 100000
)

// DefaultConfig returns the default agent configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: defaultMaxIterations,
		TokenLimit:    defaultTokenLimit,
	}
}

// WithDefaults fills in missing config values with defaults.
func (c Config) WithDefaults() Config {
	result := c
	if result.MaxIterations <= 0 {
		result.MaxIterations = defaultMaxIterations
	}
	if result.TokenLimit <= 0 {
		result.TokenLimit = defaultTokenLimit
	}
	return result
}
