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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

// conversation is a finished tool round: the assistant called two tools and
// both results are in.
func conversation() []llm.Message {
	return []llm.Message{
		{Role: llm.MessageRoleSystem, Content: "be brief"},
		{Role: llm.MessageRoleUser, Content: "weather?"},
		{Role: llm.MessageRoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c1", Name: "weather.get_forecast", Arguments: `{"latitude":40.7,"longitude":-74}`},
			{ID: "c2", Name: "current_time", Arguments: `{}`},
		}},
		{Role: llm.MessageRoleTool, ToolCallID: "c1", Name: "weather.get_forecast", Content: "sunny"},
		{Role: llm.MessageRoleTool, ToolCallID: "c2", Name: "current_time", Content: "boom", IsError: true},
	}
}

func forecastTool() llm.Tool {
	return llm.Tool{
		Name:        "weather.get_forecast",
		Description: "Get weather forecast",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"latitude": map[string]any{"type": "number"}},
		},
	}
}

func TestSanitizeToolName(t *testing.T) {
	assert.Equal(t, "weather_get_forecast", sanitizeToolName("weather.get_forecast"))
	assert.Equal(t, "run-grasshopper_1", sanitizeToolName("run-grasshopper_1"))

	long := sanitizeToolName(strings.Repeat("a.", 60))
	assert.Len(t, long, maxToolNameLen)
	assert.NotEqual(t, long, sanitizeToolName(strings.Repeat("a.", 61)))

	names := newToolNames([]llm.Tool{forecastTool()})
	assert.Equal(t, "weather.get_forecast", names.canonical("weather_get_forecast"))
	assert.Equal(t, "made_up", names.canonical("made_up"))
}

func TestRegistered(t *testing.T) {
	assert.Subset(t, llm.Registered(), []string{"anthropic", "bedrock", "ollama", "openai"})

	_, err := llm.New("gemini", llm.Config{})
	assert.ErrorIs(t, err, llm.ErrFactoryNotFound)
}

func TestOllama_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-oss:120b",
			"message": {"role": "assistant", "content": "", "tool_calls": [
				{"function": {"name": "weather.get_forecast", "arguments": {"latitude": 1}}}
			]},
			"done": true, "done_reason": "stop",
			"prompt_eval_count": 12, "eval_count": 3
		}`))
	}))
	defer srv.Close()

	p, err := NewOllama(llm.Config{BaseURL: srv.URL + "/", Temperature: 0.3, MaxTokens: 2048})
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaModel, p.Model())

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: conversation(),
		Tools:    []llm.Tool{forecastTool()},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-oss:120b", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, map[string]any{"temperature": 0.3, "num_predict": float64(2048)}, got["options"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 5)
	assert.Equal(t, "weather.get_forecast", msgs[3].(map[string]any)["tool_name"])
	call := msgs[2].(map[string]any)["tool_calls"].([]any)[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, map[string]any{"latitude": 40.7, "longitude": float64(-74)}, call["arguments"])

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, llm.ToolCall{ID: "call_0", Name: "weather.get_forecast", Arguments: `{"latitude": 1}`}, resp.ToolCalls[0])
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason)
	assert.Equal(t, llm.TokenUsage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15}, resp.Usage)
}

func TestOllama_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	p, err := NewOllama(llm.Config{BaseURL: srv.URL, Model: "nope"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.MessageRoleUser, Content: "hi"}},
	})
	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	assert.Equal(t, `model "nope" not found`, ue.Message)
	assert.False(t, errors.IsRetryable(err))
}

func TestOpenAI_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": "",
				"tool_calls": [{"id": "call_9", "type": "function",
					"function": {"name": "weather_get_forecast", "arguments": "{\"latitude\":1}"}}]
			}}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 5, "total_tokens": 25}
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(llm.Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Temperature: 0.3, MaxTokens: 2048})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, p.Model())

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: conversation(),
		Tools:    []llm.Tool{forecastTool()},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, float64(2048), got["max_tokens"])
	assert.InDelta(t, 0.3, got["temperature"], 1e-6)
	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "weather_get_forecast", tools[0].(map[string]any)["function"].(map[string]any)["name"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 5)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "c1", msgs[3].(map[string]any)["tool_call_id"])

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, llm.ToolCall{ID: "call_9", Name: "weather.get_forecast", Arguments: `{"latitude":1}`}, resp.ToolCalls[0])
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason)
	assert.Equal(t, 25, resp.Usage.TotalTokens)
}

func TestOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(llm.Config{})
	var ce *errors.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestOpenAI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(llm.Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.MessageRoleUser, Content: "hi"}},
	})
	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.Equal(t, "slow down", ue.Message)
	assert.True(t, errors.IsRetryable(err))
}

type stubMessages struct {
	params sdk.MessageNewParams
	resp   *sdk.Message
	err    error
}

func (s *stubMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.params = body
	return s.resp, s.err
}

func TestAnthropic_Complete(t *testing.T) {
	stub := &stubMessages{resp: &sdk.Message{
		Model: "claude-sonnet-4-5-20250929",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Checking."},
			{Type: "tool_use", ID: "toolu_1", Name: "weather_get_forecast", Input: json.RawMessage(`{"latitude":1}`)},
		},
		StopReason: sdk.StopReasonToolUse,
		Usage:      sdk.Usage{InputTokens: 30, OutputTokens: 7},
	}}
	p := NewAnthropicWithClient(stub, llm.Config{Temperature: 0.3})

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: conversation(),
		Tools:    []llm.Tool{forecastTool()},
	})
	require.NoError(t, err)

	assert.Equal(t, sdk.Model(DefaultAnthropicModel), stub.params.Model)
	assert.Equal(t, int64(defaultMaxTokens), stub.params.MaxTokens)
	require.Len(t, stub.params.System, 1)
	assert.Equal(t, "be brief", stub.params.System[0].Text)
	// user, assistant(tool uses), user(both tool results)
	require.Len(t, stub.params.Messages, 3)
	assert.Len(t, stub.params.Messages[1].Content, 2)
	assert.Len(t, stub.params.Messages[2].Content, 2)
	require.Len(t, stub.params.Tools, 1)
	assert.Equal(t, "weather_get_forecast", stub.params.Tools[0].OfTool.Name)

	assert.Equal(t, "Checking.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "weather.get_forecast", resp.ToolCalls[0].Name)
	assert.Equal(t, `{"latitude":1}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason)
	assert.Equal(t, llm.TokenUsage{InputTokens: 30, OutputTokens: 7, TotalTokens: 37}, resp.Usage)
}

func TestAnthropic_Error(t *testing.T) {
	stub := &stubMessages{err: context.DeadlineExceeded}
	p := NewAnthropicWithClient(stub, llm.Config{})

	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.MessageRoleUser, Content: "hi"}},
	})
	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "anthropic", ue.Service)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type stubRuntime struct {
	input  *bedrockruntime.ConverseInput
	output *bedrockruntime.ConverseOutput
}

func (s *stubRuntime) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.input = in
	return s.output, nil
}

func TestBedrock_Complete(t *testing.T) {
	stub := &stubRuntime{output: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: "It is sunny."},
			},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(40), OutputTokens: aws.Int32(4), TotalTokens: aws.Int32(44)},
	}}
	p := NewBedrockWithClient(stub, llm.Config{Temperature: 0.3})
	assert.Equal(t, DefaultBedrockModel, p.Model())

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: conversation(),
		Tools:    []llm.Tool{forecastTool()},
	})
	require.NoError(t, err)

	in := stub.input
	assert.Equal(t, DefaultBedrockModel, aws.ToString(in.ModelId))
	assert.Equal(t, int32(defaultMaxTokens), aws.ToInt32(in.InferenceConfig.MaxTokens))
	require.Len(t, in.System, 1)
	require.Len(t, in.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleUser, in.Messages[2].Role)
	require.Len(t, in.Messages[2].Content, 2)
	failed := in.Messages[2].Content[1].(*brtypes.ContentBlockMemberToolResult)
	assert.Equal(t, brtypes.ToolResultStatusError, failed.Value.Status)
	spec := in.ToolConfig.Tools[0].(*brtypes.ToolMemberToolSpec)
	assert.Equal(t, "weather_get_forecast", aws.ToString(spec.Value.Name))

	assert.Equal(t, "It is sunny.", resp.Content)
	assert.Equal(t, llm.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 44, resp.Usage.TotalTokens)
}

func TestBedrock_ToolUse(t *testing.T) {
	stub := &stubRuntime{output: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
					ToolUseId: aws.String("tooluse_1"),
					Name:      aws.String("weather_get_forecast"),
					Input:     document.NewLazyDocument(map[string]any{"latitude": 1}),
				}},
			},
		}},
		StopReason: brtypes.StopReasonToolUse,
	}}
	p := NewBedrockWithClient(stub, llm.Config{})

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.MessageRoleUser, Content: "weather?"}},
		Tools:    []llm.Tool{forecastTool()},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "weather.get_forecast", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"latitude":1}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, llm.FinishReasonToolCalls, resp.FinishReason)
}

type stubIdentity struct{ err error }

func (s stubIdentity) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{}, s.err
}

func TestValidateCredentials(t *testing.T) {
	require.NoError(t, validateCredentials(context.Background(), stubIdentity{}))

	err := validateCredentials(context.Background(), stubIdentity{err: errors.New("expired token")})
	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "AWS credential validation failed")
}
