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

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

// ErrSamplingDeclined is returned to the server when the user refuses a
// sampling request.
var ErrSamplingDeclined = errors.New("sampling request declined by user")

// SamplingRequest is what the user is asked to approve.
type SamplingRequest struct {
	SystemPrompt string
	Messages     []llm.Message
	MaxTokens    int
}

// Sampler answers sampling/createMessage with the chat's provider.
type Sampler struct {
	Provider llm.Provider

	// Approve is asked before each request. nil approves everything.
	Approve func(ctx context.Context, req SamplingRequest) (bool, error)
}

// CreateMessage implements client.SamplingHandler.
func (s *Sampler) CreateMessage(ctx context.Context, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	params := request.CreateMessageParams

	var msgs []llm.Message
	if params.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.MessageRoleSystem, Content: params.SystemPrompt})
	}
	for i, m := range params.Messages {
		text, ok := samplingText(m.Content)
		if !ok {
			return nil, fmt.Errorf("message %d: only text content can be sampled", i)
		}
		role := llm.MessageRoleUser
		if m.Role == mcp.RoleAssistant {
			role = llm.MessageRoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: text})
	}

	req := SamplingRequest{SystemPrompt: params.SystemPrompt, Messages: msgs, MaxTokens: params.MaxTokens}
	if s.Approve != nil {
		ok, err := s.Approve(ctx, req)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSamplingDeclined
		}
	}

	completion := llm.CompletionRequest{Messages: msgs}
	if params.Temperature > 0 {
		completion.Temperature = llm.Float(params.Temperature)
	}
	if params.MaxTokens > 0 {
		completion.MaxTokens = llm.Int(params.MaxTokens)
	}

	resp, err := s.Provider.Complete(ctx, completion)
	if err != nil {
		return nil, fmt.Errorf("sampling failed: %w", err)
	}

	model := resp.Model
	if model == "" {
		model = s.Provider.Model()
	}
	stop := "endTurn"
	if resp.FinishReason == llm.FinishReasonLength {
		stop = "maxTokens"
	}
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(resp.Content),
		},
		Model:      model,
		StopReason: stop,
	}, nil
}

func samplingText(content any) (string, bool) {
	if tc, ok := content.(*mcp.TextContent); ok {
		return tc.Text, true
	}
	if tc, ok := mcp.AsTextContent(content); ok {
		return tc.Text, true
	}
	return "", false
}

// ElicitFunc asks the user for the values described by schema. It returns
// accept with the values, or decline or cancel with nil.
type ElicitFunc func(ctx context.Context, message string, schema map[string]any) (mcp.ElicitationResponseAction, map[string]any, error)

// Elicit implements client.ElicitationHandler.
func (f ElicitFunc) Elicit(ctx context.Context, request mcp.ElicitationRequest) (*mcp.ElicitationResult, error) {
	schema, err := schemaMap(request.Params.RequestedSchema)
	if err != nil {
		return nil, fmt.Errorf("invalid requested schema: %w", err)
	}

	action, values, err := f(ctx, request.Params.Message, schema)
	if err != nil {
		return nil, err
	}

	result := &mcp.ElicitationResult{ElicitationResponse: mcp.ElicitationResponse{Action: action}}
	if action == mcp.ElicitationResponseActionAccept {
		result.Content = values
	}
	return result, nil
}

func schemaMap(v any) (map[string]any, error) {
	switch s := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Roots answers roots/list with a fixed set of local directories.
type Roots []string

// ListRoots implements client.RootsHandler.
func (r Roots) ListRoots(ctx context.Context, request mcp.ListRootsRequest) (*mcp.ListRootsResult, error) {
	roots := make([]mcp.Root, 0, len(r))
	for _, dir := range r {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("root %s: %w", dir, err)
		}
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		roots = append(roots, mcp.Root{URI: u.String(), Name: filepath.Base(abs)})
	}
	return &mcp.ListRootsResult{Roots: roots}, nil
}
