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

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

const (
	// DefaultAnthropicModel is used when the config names no model
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens = 2048
)

// MessagesClient is the subset of the Anthropic SDK used by the provider.
// *sdk.MessageService satisfies it.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicProvider implements llm.Provider on the Messages API.
type AnthropicProvider struct {
	msg         MessagesClient
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropic creates an Anthropic provider from cfg.
func NewAnthropic(cfg llm.Config) (llm.Provider, error) {
	if cfg.APIKey == "" {
		return nil, &errors.ConfigError{Key: "anthropic_api_key", Reason: "Anthropic API key is required"}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := sdk.NewClient(opts...)
	return NewAnthropicWithClient(&client.Messages, cfg), nil
}

// NewAnthropicWithClient wraps an existing messages client.
func NewAnthropicWithClient(msg MessagesClient, cfg llm.Config) *AnthropicProvider {
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicProvider{msg: msg, model: model, temperature: cfg.Temperature, maxTokens: maxTokens}
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Model returns the default model.
func (p *AnthropicProvider) Model() string { return p.model }

// Complete sends a non-streaming Messages.New request.
func (p *AnthropicProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	names := newToolNames(req.Tools)

	system, rest := systemPrompt(req.Messages)
	params := sdk.MessageNewParams{
		MaxTokens: int64(pick(req.MaxTokens, p.maxTokens)),
		Messages:  encodeAnthropicMessages(rest, names),
		Model:     sdk.Model(model),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if t := pick(req.Temperature, p.temperature); t > 0 {
		params.Temperature = sdk.Float(t)
	}
	for _, t := range req.Tools {
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaOrEmpty(t.InputSchema)}, names.provider(t.Name))
		if t.Description != "" {
			u.OfTool.Description = sdk.String(t.Description)
		}
		params.Tools = append(params.Tools, u)
	}

	msg, err := p.msg.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &errors.UpstreamError{Service: "anthropic", StatusCode: apiErr.StatusCode, Cause: err}
		}
		return nil, &errors.UpstreamError{Service: "anthropic", Message: "messages.new failed", Cause: err}
	}
	if msg == nil {
		return nil, &errors.UpstreamError{Service: "anthropic", Message: "response message is nil"}
	}

	out := &llm.CompletionResponse{
		Model: string(msg.Model),
		Usage: llm.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      names.canonical(block.Name),
				Arguments: args,
			})
		}
	}
	out.FinishReason = finishReason(len(out.ToolCalls) > 0, msg.StopReason == sdk.StopReasonMaxTokens)
	return out, nil
}

// encodeAnthropicMessages folds consecutive tool results into one user
// turn, which the Messages API requires after a multi-tool assistant turn.
func encodeAnthropicMessages(msgs []llm.Message, names *toolNames) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(msgs))
	var results []sdk.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, sdk.NewUserMessage(results...))
			results = nil
		}
	}
	for _, m := range msgs {
		switch m.Role {
		case llm.MessageRoleTool:
			results = append(results, sdk.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
		case llm.MessageRoleAssistant:
			flush()
			blocks := make([]sdk.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, rawArgs(tc.Arguments), names.provider(tc.Name)))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func rawArgs(args string) json.RawMessage {
	if args == "" || !json.Valid([]byte(args)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(args)
}
