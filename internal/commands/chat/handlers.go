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
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/internal/cli/prompt"
	"github.com/aectech/rhcompute-mcp/internal/mcp"
	"github.com/aectech/rhcompute-mcp/pkg/tools/approval"
)

// Answers for the tool approval prompt.
const (
	answerAllow  = "Allow"
	answerAlways = "Always allow this tool"
	answerDeny   = "Deny"
)

// Asker shows yes/no and multiple choice questions.
type Asker interface {
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Choose(ctx context.Context, message string, options []string) (string, error)
}

// surveyAsker implements Asker on the terminal.
type surveyAsker struct{}

func (surveyAsker) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return answer, err
}

func (surveyAsker) Choose(ctx context.Context, message string, options []string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		return "", nil
	}
	return answer, err
}

// requests answers everything that interrupts a turn to ask the user:
// tool approvals, sampling and elicitation. Each one pauses the spinner
// and holds the terminal until answered.
type requests struct {
	term     *display
	asker    Asker
	prompter prompt.Prompter
}

// approveSampling shows what the server wants to send to the model.
func (r *requests) approveSampling(ctx context.Context, req mcp.SamplingRequest) (bool, error) {
	if !r.prompter.IsInteractive() {
		return false, nil
	}
	release := r.term.hold()
	defer release()

	r.term.notice("The server wants to use the model:")
	if req.SystemPrompt != "" {
		r.term.printf("  %s %s\n", r.term.label("system:"), firstLine(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		if m.Role == "system" {
			continue
		}
		r.term.printf("  %s %s\n", r.term.label(string(m.Role)+":"), firstLine(m.Content))
	}
	return r.asker.Confirm(ctx, "Allow this sampling request?", true)
}

// elicit turns the requested schema into a form. Declining the first
// question declines the request; leaving the form cancels it.
func (r *requests) elicit(ctx context.Context, message string, schema map[string]any) (mcpproto.ElicitationResponseAction, map[string]any, error) {
	if !r.prompter.IsInteractive() {
		return mcpproto.ElicitationResponseActionDecline, nil, nil
	}
	fields, err := prompt.FieldsFromSchema(schema)
	if err != nil {
		return mcpproto.ElicitationResponseActionDecline, nil, nil
	}

	release := r.term.hold()
	defer release()

	r.term.notice("The server is asking for input: " + message)
	ok, err := r.asker.Confirm(ctx, "Respond?", true)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return mcpproto.ElicitationResponseActionDecline, nil, nil
	}

	values, err := r.prompter.Collect(ctx, message, fields)
	if errors.Is(err, prompt.ErrAborted) {
		return mcpproto.ElicitationResponseActionCancel, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return mcpproto.ElicitationResponseActionAccept, values, nil
}

// askTool is the approval.AskFunc used with --confirm-tools.
func (r *requests) askTool(ctx context.Context, text string) (approval.Decision, error) {
	if !r.prompter.IsInteractive() {
		return approval.Deny, nil
	}
	release := r.term.hold()
	defer release()

	r.term.printf("%s\n", strings.TrimRight(text, "\n"))
	answer, err := r.asker.Choose(ctx, "Run this tool?", []string{answerAllow, answerAlways, answerDeny})
	if err != nil {
		return approval.Deny, err
	}
	switch answer {
	case answerAllow:
		return approval.Allow, nil
	case answerAlways:
		return approval.AllowAlways, nil
	default:
		return approval.Deny, nil
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
