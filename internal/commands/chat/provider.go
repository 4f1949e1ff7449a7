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

package chat

import (
	"context"
	"fmt"

	"github.com/aectech/rhcompute-mcp/internal/config"
	"github.com/aectech/rhcompute-mcp/internal/secrets"
	"github.com/aectech/rhcompute-mcp/internal/tracing"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
	_ "github.com/aectech/rhcompute-mcp/pkg/llm/providers"
)

// secretLookup is the part of the secrets resolver the chat needs.
type secretLookup interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// providerKeys names the secret holding each hosted provider's API key.
var providerKeys = map[string]string{
	"openai":    secrets.OpenAIAPIKey,
	"anthropic": secrets.AnthropicAPIKey,
}

// newProvider builds the configured provider, wrapped with retries and
// tracing. Bedrock takes AWS credentials from the default chain instead
// of a stored key.
func newProvider(ctx context.Context, cfg config.ChatConfig, keys secretLookup, metrics *tracing.Metrics) (llm.Provider, error) {
	llmCfg := llm.Config{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Region:      cfg.AWSRegion,
		Timeout:     cfg.RequestTimeout,
	}
	if cfg.Provider == "ollama" {
		llmCfg.BaseURL = cfg.OllamaHost
	}

	if key, ok := providerKeys[cfg.Provider]; ok {
		apiKey, err := keys.Lookup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", key, err)
		}
		llmCfg.APIKey = apiKey
	}

	p, err := llm.New(cfg.Provider, llmCfg)
	if err != nil {
		return nil, err
	}
	return llm.Instrument(llm.WithRetry(p, llm.DefaultRetryConfig()), metrics), nil
}
