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

// Package agent runs the chat tool loop: it sends the conversation to an
// LLM provider, executes the tool calls the model asks for through a tool
// registry, and feeds the results back until the model answers in text.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aectech/rhcompute-mcp/internal/log"
	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

const tracerName = "github.com/aectech/rhcompute-mcp/pkg/agent"

// ErrMaxIterations is returned when the model keeps calling tools past the
// iteration cap.
var ErrMaxIterations = errors.New("max iterations reached")

// Tool result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StepKind identifies an entry in a turn's transcript.
type StepKind string

const (
	StepText       StepKind = "text"
	StepToolUse    StepKind = "tool_use"
	StepToolResult StepKind = "tool_result"
)

// Step is one visible event of a turn, in the order it happened.
type Step struct {
	Kind StepKind

	// Text is set for StepText
	Text string

	// ToolUseID links a tool result to its tool use
	ToolUseID string
	Tool      string

	// Input is set for StepToolUse
	Input map[string]interface{}

	// Status and Content are set for StepToolResult
	Status  string
	Content string
}

// Turn is the outcome of one Send.
type Turn struct {
	// Reply is the model's final text
	Reply string

	// Messages are the history entries added by this turn, starting with
	// the user prompt
	Messages []llm.Message

	// Steps is the transcript of text, tool uses and tool results
	Steps []Step

	Iterations int
	Usage      llm.TokenUsage
}

// Agent holds a conversation with one provider and a set of tools. The
// history persists across Send calls until Reset.
type Agent struct {
	provider       llm.Provider
	registry       *tools.Registry
	config         Config
	contextManager *ContextManager
	redactor       *tools.Redactor
	logger         *slog.Logger
	observer       func(Step)

	mu      sync.Mutex
	history []llm.Message
}

// NewAgent creates an agent with the default configuration.
func NewAgent(provider llm.Provider, registry *tools.Registry) *Agent {
	return New(provider, registry, DefaultConfig())
}

// New creates an agent. registry may be nil for a tool-less conversation.
func New(provider llm.Provider, registry *tools.Registry, cfg Config) *Agent {
	cfg = cfg.WithDefaults()
	if registry == nil {
		registry = tools.NewRegistry()
	}
	a := &Agent{
		provider:       provider,
		registry:       registry,
		config:         cfg,
		contextManager: NewContextManager(cfg.TokenLimit),
		redactor:       tools.NewRedactor(),
		logger:         log.WithComponent(slog.Default(), "agent"),
	}
	a.history = a.initialHistory()
	return a
}

// WithMaxIterations sets the maximum number of model calls per prompt.
func (a *Agent) WithMaxIterations(max int) *Agent {
	if max > 0 {
		a.config.MaxIterations = max
	}
	return a
}

// WithRedactor replaces the redactor applied to tool output. nil disables
// redaction.
func (a *Agent) WithRedactor(r *tools.Redactor) *Agent {
	a.redactor = r
	return a
}

// WithLogger sets the logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = log.WithComponent(logger, "agent")
	}
	return a
}

// WithObserver registers fn to receive each step as it happens. fn runs on
// the goroutine calling Send.
func (a *Agent) WithObserver(fn func(Step)) *Agent {
	a.observer = fn
	return a
}

// Provider returns the agent's provider.
func (a *Agent) Provider() llm.Provider {
	return a.provider
}

// History returns a copy of the conversation, system prompt included.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// Reset drops everything but the system prompt.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = a.initialHistory()
}

func (a *Agent) initialHistory() []llm.Message {
	if a.config.SystemPrompt == "" {
		return nil
	}
	return []llm.Message{{Role: llm.MessageRoleSystem, Content: a.config.SystemPrompt}}
}

// Send adds prompt to the conversation and runs the tool loop until the
// model replies without tool calls. If the provider fails the history is
// rolled back to where it was before the call. When the iteration cap is
// hit the partial turn is returned with ErrMaxIterations and kept in the
// history.
func (a *Agent) Send(ctx context.Context, prompt string) (*Turn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.turn")
	defer span.End()

	start := len(a.history)
	a.history = append(a.history, llm.Message{Role: llm.MessageRoleUser, Content: prompt})

	defs := a.toolDefinitions()
	turn := &Turn{}
	logger := log.WithProvider(a.logger, a.provider.Name())

	for turn.Iterations < a.config.MaxIterations {
		turn.Iterations++

		messages := a.history
		if a.contextManager.ShouldPrune(messages) {
			messages = a.contextManager.Prune(messages)
			logger.Debug("pruned context",
				slog.Int("kept", len(messages)),
				slog.Int("total", len(a.history)))
		}

		resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
			Messages:    messages,
			Temperature: a.config.Temperature,
			MaxTokens:   a.config.MaxTokens,
			Tools:       defs,
		})
		if err != nil {
			a.history = a.history[:start]
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("LLM request failed (iteration %d): %w", turn.Iterations, err)
		}

		turn.Usage.InputTokens += resp.Usage.InputTokens
		turn.Usage.OutputTokens += resp.Usage.OutputTokens
		turn.Usage.TotalTokens += resp.Usage.TotalTokens

		a.history = append(a.history, llm.Message{
			Role:      llm.MessageRoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Content != "" {
			a.emit(turn, Step{Kind: StepText, Text: resp.Content})
		}

		if len(resp.ToolCalls) == 0 {
			if resp.FinishReason == llm.FinishReasonLength {
				logger.Warn("reply truncated at max tokens")
			}
			turn.Reply = resp.Content
			turn.Messages = a.since(start)
			span.SetAttributes(
				attribute.Int("agent.iterations", turn.Iterations),
				attribute.Int("agent.tool_calls", countToolUses(turn.Steps)))
			return turn, nil
		}

		for _, call := range resp.ToolCalls {
			a.history = append(a.history, a.runTool(ctx, turn, call))
		}
	}

	turn.Messages = a.since(start)
	span.SetStatus(codes.Error, ErrMaxIterations.Error())
	return turn, fmt.Errorf("%w (%d)", ErrMaxIterations, a.config.MaxIterations)
}

// runTool executes one tool call and returns the tool message for it.
// Failures become error results for the model to read; they never abort
// the turn.
func (a *Agent) runTool(ctx context.Context, turn *Turn, call llm.ToolCall) llm.Message {
	logger := log.WithTool(a.logger, call.Name)
	input, parseErr := parseArguments(call.Arguments)
	a.emit(turn, Step{Kind: StepToolUse, ToolUseID: call.ID, Tool: call.Name, Input: input})

	result := Step{Kind: StepToolResult, ToolUseID: call.ID, Tool: call.Name, Status: StatusSuccess}
	started := time.Now()

	if parseErr != nil {
		result.Status = StatusError
		result.Content = fmt.Sprintf("Error executing %s: invalid tool arguments: %v", call.Name, parseErr)
	} else {
		out, err := a.registry.Execute(ctx, call.Name, input)
		if err != nil {
			result.Status = StatusError
			result.Content = fmt.Sprintf("Error executing %s: %v", call.Name, err)
		} else {
			tr := tools.NewToolResult(out)
			result.Content = tr.Content()
			if tr.Failed() {
				result.Status = StatusError
				if result.Content == "" {
					result.Content = tr.Error
				}
			}
		}
	}
	if a.redactor != nil {
		result.Content = a.redactor.Redact(result.Content)
	}

	logger.Debug("tool finished",
		slog.String("status", result.Status),
		slog.Duration("duration", time.Since(started)))

	a.emit(turn, result)
	return llm.Message{
		Role:       llm.MessageRoleTool,
		Content:    result.Content,
		ToolCallID: call.ID,
		Name:       call.Name,
		IsError:    result.Status == StatusError,
	}
}

func (a *Agent) emit(turn *Turn, step Step) {
	turn.Steps = append(turn.Steps, step)
	if a.observer != nil {
		a.observer(step)
	}
}

func (a *Agent) since(start int) []llm.Message {
	out := make([]llm.Message, len(a.history)-start)
	copy(out, a.history[start:])
	return out
}

func (a *Agent) toolDefinitions() []llm.Tool {
	list := a.registry.ListTools()
	defs := make([]llm.Tool, 0, len(list))
	for _, t := range list {
		def := llm.Tool{Name: t.Name(), Description: t.Description()}
		if s := t.Schema(); s != nil && s.Inputs != nil {
			def.InputSchema = s.Inputs.JSONSchema()
		}
		if def.InputSchema == nil {
			def.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, def)
	}
	return defs
}

// parseArguments decodes a tool call's JSON arguments. Empty arguments are
// an empty object.
func parseArguments(args string) (map[string]interface{}, error) {
	input := map[string]interface{}{}
	if args == "" {
		return input, nil
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return map[string]interface{}{}, err
	}
	if input == nil {
		input = map[string]interface{}{}
	}
	return input, nil
}

func countToolUses(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Kind == StepToolUse {
			n++
		}
	}
	return n
}
