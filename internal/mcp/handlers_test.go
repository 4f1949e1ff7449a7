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
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

type recordingProvider struct {
	last llm.CompletionRequest
	resp *llm.CompletionResponse
}

func (p *recordingProvider) Name() string  { return "recording" }
func (p *recordingProvider) Model() string { return "rec-1" }

func (p *recordingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.last = req
	return p.resp, nil
}

func samplingRequest() mcp.CreateMessageRequest {
	return mcp.CreateMessageRequest{CreateMessageParams: mcp.CreateMessageParams{
		SystemPrompt: "You write short descriptions.",
		Messages: []mcp.SamplingMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent("Describe this geometry")},
		},
		MaxTokens:   200,
		Temperature: 0.5,
	}}
}

func TestSampler_CreateMessage(t *testing.T) {
	p := &recordingProvider{resp: &llm.CompletionResponse{Content: "A twisted tower.", FinishReason: llm.FinishReasonStop}}
	var asked SamplingRequest
	s := &Sampler{Provider: p, Approve: func(ctx context.Context, req SamplingRequest) (bool, error) {
		asked = req
		return true, nil
	}}

	res, err := s.CreateMessage(context.Background(), samplingRequest())
	require.NoError(t, err)

	assert.Equal(t, mcp.RoleAssistant, res.Role)
	text, ok := mcp.AsTextContent(res.Content)
	require.True(t, ok)
	assert.Equal(t, "A twisted tower.", text.Text)
	assert.Equal(t, "rec-1", res.Model)
	assert.Equal(t, "endTurn", res.StopReason)

	assert.Equal(t, 200, asked.MaxTokens)
	require.Len(t, p.last.Messages, 2)
	assert.Equal(t, llm.MessageRoleSystem, p.last.Messages[0].Role)
	assert.Equal(t, "Describe this geometry", p.last.Messages[1].Content)
	assert.Equal(t, 0.5, *p.last.Temperature)
	assert.Equal(t, 200, *p.last.MaxTokens)
}

func TestSampler_Declined(t *testing.T) {
	p := &recordingProvider{}
	s := &Sampler{Provider: p, Approve: func(ctx context.Context, req SamplingRequest) (bool, error) {
		return false, nil
	}}

	_, err := s.CreateMessage(context.Background(), samplingRequest())
	assert.ErrorIs(t, err, ErrSamplingDeclined)
	assert.Empty(t, p.last.Messages)
}

func TestSampler_MaxTokensStop(t *testing.T) {
	p := &recordingProvider{resp: &llm.CompletionResponse{Content: "cut", Model: "m2", FinishReason: llm.FinishReasonLength}}
	s := &Sampler{Provider: p}

	res, err := s.CreateMessage(context.Background(), samplingRequest())
	require.NoError(t, err)
	assert.Equal(t, "maxTokens", res.StopReason)
	assert.Equal(t, "m2", res.Model)
}

func TestElicitFunc(t *testing.T) {
	var gotSchema map[string]any
	f := ElicitFunc(func(ctx context.Context, message string, schema map[string]any) (mcp.ElicitationResponseAction, map[string]any, error) {
		gotSchema = schema
		if strings.Contains(message, "decline") {
			return mcp.ElicitationResponseActionDecline, map[string]any{"ignored": true}, nil
		}
		return mcp.ElicitationResponseActionAccept, map[string]any{"amplitude": 2.5}, nil
	})

	req := mcp.ElicitationRequest{Params: mcp.ElicitationParams{
		Message: "Pick an amplitude",
		RequestedSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"amplitude": map[string]any{"type": "number"}},
		},
	}}
	res, err := f.Elicit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, mcp.ElicitationResponseActionAccept, res.Action)
	assert.Equal(t, map[string]any{"amplitude": 2.5}, res.Content)
	assert.Equal(t, "object", gotSchema["type"])

	req.Params.Message = "please decline"
	res, err = f.Elicit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, mcp.ElicitationResponseActionDecline, res.Action)
	assert.Nil(t, res.Content)
}

func TestRoots(t *testing.T) {
	dir := t.TempDir()
	res, err := Roots{dir}.ListRoots(context.Background(), mcp.ListRootsRequest{})
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	assert.True(t, strings.HasPrefix(res.Roots[0].URI, "file://"))
	assert.True(t, strings.HasSuffix(res.Roots[0].URI, filepath.ToSlash(dir)))
	assert.Equal(t, filepath.Base(dir), res.Roots[0].Name)
}
