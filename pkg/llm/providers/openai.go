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

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

// DefaultOpenAIModel is used when the config names no model.
const DefaultOpenAIModel = "gpt-4o-mini"

// ChatClient is the subset of the go-openai client the provider uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements llm.Provider on the Chat Completions API.
type OpenAIProvider struct {
	chat        ChatClient
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI creates an OpenAI provider from cfg. BaseURL points it at any
// OpenAI-compatible endpoint.
func NewOpenAI(cfg llm.Config) (llm.Provider, error) {
	if cfg.APIKey == "" {
		return nil, &errors.ConfigError{Key: "openai_api_key", Reason: "OpenAI API key is required"}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(oc), cfg), nil
}

// NewOpenAIWithClient wraps an existing chat client.
func NewOpenAIWithClient(chat ChatClient, cfg llm.Config) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		chat:        chat,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the default model.
func (p *OpenAIProvider) Model() string { return p.model }

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	names := newToolNames(req.Tools)

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		Temperature: float32(pick(req.Temperature, p.temperature)),
		MaxTokens:   pick(req.MaxTokens, p.maxTokens),
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      names.provider(tc.Name),
					Arguments: tc.Arguments,
				},
			})
		}
		request.Messages = append(request.Messages, msg)
	}
	for _, t := range req.Tools {
		params, err := json.Marshal(schemaOrEmpty(t.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("openai: encode schema for %s: %w", t.Name, err)
		}
		request.Tools = append(request.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        names.provider(t.Name),
				Description: t.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}

	resp, err := p.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &errors.UpstreamError{Service: "openai", Message: "response has no choices"}
	}

	choice := resp.Choices[0]
	out := &llm.CompletionResponse{
		Content: choice.Message.Content,
		Model:   resp.Model,
		Usage: llm.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      names.canonical(tc.Function.Name),
			Arguments: tc.Function.Arguments,
		})
	}
	out.FinishReason = finishReason(len(out.ToolCalls) > 0, choice.FinishReason == openai.FinishReasonLength)
	return out, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &errors.UpstreamError{Service: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &errors.UpstreamError{Service: "openai", StatusCode: reqErr.HTTPStatusCode, Cause: reqErr.Err}
	}
	return &errors.UpstreamError{Service: "openai", Message: "request failed", Cause: err}
}

func schemaOrEmpty(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return schema
}
