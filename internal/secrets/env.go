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

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvBackendPriority puts the environment ahead of the keychain so
	// exported variables always win.
	EnvBackendPriority = 100

	envSecretPrefix = "RHMCP_SECRET_"
)

// envAliases maps well-known keys to the variables other tools already use.
var envAliases = map[string]string{
	OpenAIAPIKey:       "OPENAI_API_KEY",
	AnthropicAPIKey:    "ANTHROPIC_API_KEY",
	RhinoComputeAPIKey: "RHINO_COMPUTE_KEY",
	JWTSecret:          "RHMCP_JWT_SECRET",
}

// EnvBackend reads RHMCP_SECRET_<KEY> and the provider aliases.
type EnvBackend struct{}

// NewEnvBackend returns the environment backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (e *EnvBackend) Name() string { return "env" }

func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(EnvName(key)); value != "" {
		return value, nil
	}
	if alias, ok := envAliases[key]; ok {
		if value := os.Getenv(alias); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: environment variable not set", ErrSecretNotFound)
}

func (e *EnvBackend) Set(ctx context.Context, key, value string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Available() bool { return true }

func (e *EnvBackend) Priority() int { return EnvBackendPriority }

// EnvName is the RHMCP_SECRET_ variable that holds key.
func EnvName(key string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	return envSecretPrefix + strings.ToUpper(r.Replace(key))
}
