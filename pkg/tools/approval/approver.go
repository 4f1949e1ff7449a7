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

// Package approval gates tool execution behind a user decision.
package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// ErrDenied is returned when the user declines a tool call.
var ErrDenied = errors.New("denied by user")

// Decision is the answer to an approval prompt.
type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowAlways approves this call and every later call to the same tool.
	AllowAlways
)

// Approver handles tool execution approval decisions.
type Approver interface {
	// Approve returns true if the tool execution should proceed.
	Approve(ctx context.Context, toolName string, toolDescription string, inputs map[string]interface{}) (bool, error)
}

// AskFunc shows prompt to the user and returns their decision.
type AskFunc func(ctx context.Context, prompt string) (Decision, error)

// PromptApprover asks the user through ask, remembering "always" answers
// for the rest of the session.
type PromptApprover struct {
	ask AskFunc

	mu            sync.Mutex
	alwaysApprove map[string]bool
}

// NewPromptApprover creates a PromptApprover. Tools named in preapproved
// never prompt.
func NewPromptApprover(ask AskFunc, preapproved ...string) *PromptApprover {
	p := &PromptApprover{ask: ask, alwaysApprove: make(map[string]bool)}
	for _, name := range preapproved {
		p.alwaysApprove[name] = true
	}
	return p
}

// Approve implements Approver.
func (p *PromptApprover) Approve(ctx context.Context, toolName string, toolDescription string, inputs map[string]interface{}) (bool, error) {
	p.mu.Lock()
	always := p.alwaysApprove[toolName]
	p.mu.Unlock()
	if always {
		return true, nil
	}

	decision, err := p.ask(ctx, Prompt(toolName, toolDescription, inputs))
	if err != nil {
		return false, fmt.Errorf("failed to read approval: %w", err)
	}

	switch decision {
	case AllowAlways:
		p.mu.Lock()
		p.alwaysApprove[toolName] = true
		p.mu.Unlock()
		return true, nil
	case Allow:
		return true, nil
	default:
		return false, nil
	}
}

// Prompt renders the text shown when asking about a tool call.
func Prompt(toolName, toolDescription string, inputs map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool approval required: %s\n", toolName)
	if desc := firstLine(toolDescription); desc != "" {
		fmt.Fprintf(&b, "  %s\n", desc)
	}
	if len(inputs) > 0 {
		data, err := json.MarshalIndent(inputs, "  ", "  ")
		if err == nil {
			fmt.Fprintf(&b, "  Inputs: %s\n", data)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// AllowList approves only the named tools, for non-interactive sessions.
type AllowList map[string]bool

// Approve implements Approver.
func (a AllowList) Approve(ctx context.Context, toolName string, toolDescription string, inputs map[string]interface{}) (bool, error) {
	if a[toolName] {
		return true, nil
	}
	return false, fmt.Errorf("tool %s requires approval but the session is not interactive", toolName)
}

// Interceptor adapts an Approver to tools.Interceptor.
type Interceptor struct {
	approver Approver
}

// NewInterceptor wraps approver for tools.Registry.SetInterceptor.
func NewInterceptor(approver Approver) *Interceptor {
	return &Interceptor{approver: approver}
}

// Intercept implements tools.Interceptor.
func (i *Interceptor) Intercept(ctx context.Context, tool tools.Tool, inputs map[string]interface{}) error {
	ok, err := i.approver.Approve(ctx, tool.Name(), tool.Description(), inputs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDenied
	}
	return nil
}

// PostExecute implements tools.Interceptor.
func (i *Interceptor) PostExecute(context.Context, tools.Tool, map[string]interface{}, error) {}
