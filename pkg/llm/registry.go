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

package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrFactoryNotFound indicates no factory is registered for the provider.
var ErrFactoryNotFound = errors.New("provider factory not found")

// Config is everything a provider factory may need. Each provider reads
// the fields that apply to it.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int

	// APIKey authenticates against hosted APIs.
	APIKey string

	// BaseURL overrides the API endpoint (the Ollama host, a proxy).
	BaseURL string

	// Region is the AWS region for Bedrock.
	Region string

	// Timeout bounds a single completion request.
	Timeout time.Duration
}

// Factory builds a provider from config.
type Factory func(cfg Config) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterFactory makes a provider available under name. Registering the
// same name twice replaces the earlier factory.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New builds the provider registered under name.
func New(name string, cfg Config) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrFactoryNotFound, name, Registered())
	}
	return f(cfg)
}

// Registered lists the registered provider names, sorted.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
