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

// Package llm defines the provider-neutral chat completion types used by
// the agent, and the registry the concrete providers plug into.
package llm

import (
	"context"
)

// Provider is a chat model backend.
type Provider interface {
	// Name returns the provider identifier ("ollama", "openai", ...).
	Name() string

	// Model returns the model used when a request does not name one.
	Model() string

	// Complete sends the conversation and waits for the full reply.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains all parameters for an LLM completion request.
type CompletionRequest struct {
	// Messages is the conversation history including the current prompt.
	// System messages are hoisted by providers that take them separately.
	Messages []Message

	// Model overrides the provider's default model.
	Model string

	// Temperature controls randomness. Nil uses the provider default.
	Temperature *float64

	// MaxTokens limits the response length. Nil uses the provider default.
	MaxTokens *int

	// Tools defines available functions the model can call.
	Tools []Tool
}

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`

	// ToolCalls contains any tool invocations made by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool result to the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Name identifies the tool that produced this result.
	Name string `json:"name,omitempty"`

	// IsError marks a failed tool result.
	IsError bool `json:"is_error,omitempty"`
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// ToolCall represents a function invocation by the LLM.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Arguments is the JSON-encoded input object.
	Arguments string `json:"arguments"`
}

// Tool defines a function the LLM can invoke.
type Tool struct {
	Name        string
	Description string

	// InputSchema is a JSON Schema object describing the parameters.
	InputSchema map[string]any
}

// CompletionResponse contains the full response from a completion.
type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        TokenUsage

	// Model is the model that actually answered.
	Model string
}

// FinishReason indicates why completion generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
)

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Float returns a pointer to v, for CompletionRequest.Temperature.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for CompletionRequest.MaxTokens.
func Int(v int) *int { return &v }
