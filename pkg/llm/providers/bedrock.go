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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

const (
	// DefaultBedrockModel is the Claude inference profile used on Bedrock
	DefaultBedrockModel = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"

	// DefaultBedrockRegion is used when neither config nor environment names one
	DefaultBedrockRegion = "us-east-1"
)

// RuntimeClient is the subset of *bedrockruntime.Client the provider uses.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// IdentityClient is the subset of *sts.Client used to check credentials.
type IdentityClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// BedrockProvider implements llm.Provider on the Bedrock Converse API.
type BedrockProvider struct {
	rt          RuntimeClient
	model       string
	temperature float64
	maxTokens   int
}

// NewBedrock loads AWS credentials from the default chain, checks them with
// STS and creates a Converse client for cfg.Region.
func NewBedrock(cfg llm.Config) (llm.Provider, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultBedrockRegion
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, &errors.ConfigError{Key: "chat.aws_region", Reason: "failed to load AWS configuration", Cause: err}
	}
	if err := validateCredentials(ctx, sts.NewFromConfig(awsCfg)); err != nil {
		return nil, err
	}

	var opts []func(*bedrockruntime.Options)
	if cfg.BaseURL != "" {
		opts = append(opts, func(o *bedrockruntime.Options) { o.BaseEndpoint = aws.String(cfg.BaseURL) })
	}
	return NewBedrockWithClient(bedrockruntime.NewFromConfig(awsCfg, opts...), cfg), nil
}

// validateCredentials calls STS GetCallerIdentity so a missing or expired
// profile fails at startup instead of on the first prompt.
func validateCredentials(ctx context.Context, id IdentityClient) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := id.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return &errors.ConfigError{Key: "aws credentials", Reason: "AWS credential validation failed", Cause: err}
	}
	return nil
}

// NewBedrockWithClient wraps an existing runtime client.
func NewBedrockWithClient(rt RuntimeClient, cfg llm.Config) *BedrockProvider {
	model := cfg.Model
	if model == "" {
		model = DefaultBedrockModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &BedrockProvider{rt: rt, model: model, temperature: cfg.Temperature, maxTokens: maxTokens}
}

// Name returns the provider identifier.
func (p *BedrockProvider) Name() string { return "bedrock" }

// Model returns the default model.
func (p *BedrockProvider) Model() string { return p.model }

// Complete sends one Converse request.
func (p *BedrockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	names := newToolNames(req.Tools)

	system, rest := systemPrompt(req.Messages)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: encodeBedrockMessages(rest, names),
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(pick(req.MaxTokens, p.maxTokens))), //nolint:gosec // AWS SDK requires int32
			Temperature: aws.Float32(float32(pick(req.Temperature, p.temperature))),
		},
	}
	if system != "" {
		input.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: system}}
	}
	if len(req.Tools) > 0 {
		tools := make([]brtypes.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			desc := t.Description
			if desc == "" {
				desc = t.Name
			}
			tools = append(tools, &brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
				Name:        aws.String(names.provider(t.Name)),
				Description: aws.String(desc),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaOrEmpty(t.InputSchema))},
			}})
		}
		input.ToolConfig = &brtypes.ToolConfiguration{Tools: tools}
	}

	output, err := p.rt.Converse(ctx, input)
	if err != nil {
		return nil, bedrockError(err)
	}

	out := &llm.CompletionResponse{Model: model}
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				out.Content += v.Value
			case *brtypes.ContentBlockMemberToolUse:
				out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
					ID:        aws.ToString(v.Value.ToolUseId),
					Name:      names.canonical(aws.ToString(v.Value.Name)),
					Arguments: documentJSON(v.Value.Input),
				})
			}
		}
	}
	if u := output.Usage; u != nil {
		out.Usage = llm.TokenUsage{
			InputTokens:  int(aws.ToInt32(u.InputTokens)),
			OutputTokens: int(aws.ToInt32(u.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(u.TotalTokens)),
		}
	}
	out.FinishReason = finishReason(len(out.ToolCalls) > 0, output.StopReason == brtypes.StopReasonMaxTokens)
	return out, nil
}

// encodeBedrockMessages mirrors encodeAnthropicMessages: Converse also
// wants every tool result of a turn in a single user message.
func encodeBedrockMessages(msgs []llm.Message, names *toolNames) []brtypes.Message {
	out := make([]brtypes.Message, 0, len(msgs))
	var results []brtypes.ContentBlock
	flush := func() {
		if len(results) > 0 {
			out = append(out, brtypes.Message{Role: brtypes.ConversationRoleUser, Content: results})
			results = nil
		}
	}
	for _, m := range msgs {
		switch m.Role {
		case llm.MessageRoleTool:
			status := brtypes.ToolResultStatusSuccess
			if m.IsError {
				status = brtypes.ToolResultStatusError
			}
			results = append(results, &brtypes.ContentBlockMemberToolResult{Value: brtypes.ToolResultBlock{
				ToolUseId: aws.String(m.ToolCallID),
				Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.Content}},
				Status:    status,
			}})
		case llm.MessageRoleAssistant:
			flush()
			blocks := make([]brtypes.ContentBlock, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(names.provider(tc.Name)),
					Input:     document.NewLazyDocument(argsMap(tc.Arguments)),
				}})
			}
			if len(blocks) > 0 {
				out = append(out, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks})
			}
		default:
			flush()
			out = append(out, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		}
	}
	flush()
	return out
}

// argsMap decodes tool arguments for a smithy document, which would
// otherwise encode json.RawMessage as a byte string.
func argsMap(args string) map[string]any {
	m := map[string]any{}
	_ = json.Unmarshal(rawArgs(args), &m)
	return m
}

func documentJSON(doc document.Interface) string {
	if doc == nil {
		return "{}"
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return "{}"
	}
	return string(data)
}

func bedrockError(err error) error {
	ue := &errors.UpstreamError{Service: "bedrock", Cause: err}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		ue.StatusCode = respErr.HTTPStatusCode()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ue.Message = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		if ue.StatusCode == 0 && apiErr.ErrorCode() == "ThrottlingException" {
			ue.StatusCode = 429
		}
	}
	return ue
}
