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

package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

type scriptedAsk struct {
	answers []Decision
	prompts []string
}

func (s *scriptedAsk) ask(_ context.Context, prompt string) (Decision, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return Deny, errors.New("no more answers")
	}
	d := s.answers[0]
	s.answers = s.answers[1:]
	return d, nil
}

func TestPromptApprover(t *testing.T) {
	ctx := context.Background()
	s := &scriptedAsk{answers: []Decision{Deny, Allow, AllowAlways}}
	p := NewPromptApprover(s.ask, "calculator")

	ok, err := p.Approve(ctx, "calculator", "", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, s.prompts)

	ok, err = p.Approve(ctx, "http_request", "Make HTTP requests", map[string]interface{}{"url": "https://example.com"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, s.prompts[0], "Tool approval required: http_request")
	assert.Contains(t, s.prompts[0], `"url": "https://example.com"`)

	ok, _ = p.Approve(ctx, "http_request", "", nil)
	assert.True(t, ok)
	ok, _ = p.Approve(ctx, "http_request", "", nil)
	assert.True(t, ok)
	ok, _ = p.Approve(ctx, "http_request", "", nil)
	assert.True(t, ok, "always is remembered")
	assert.Len(t, s.prompts, 3)

	_, err = p.Approve(ctx, "other", "", nil)
	assert.ErrorContains(t, err, "failed to read approval")
}

func TestAllowList(t *testing.T) {
	a := AllowList{"current_time": true}
	ok, err := a.Approve(context.Background(), "current_time", "", nil)
	assert.True(t, ok)
	assert.NoError(t, err)

	_, err = a.Approve(context.Background(), "http_request", "", nil)
	assert.ErrorContains(t, err, "not interactive")
}

type noopTool struct{ ran bool }

func (n *noopTool) Name() string        { return "noop" }
func (n *noopTool) Description() string { return "does nothing\nsecond line" }
func (n *noopTool) Schema() *tools.Schema {
	return &tools.Schema{Inputs: &tools.ParameterSchema{Type: "object"}}
}
func (n *noopTool) Execute(context.Context, map[string]interface{}) (map[string]interface{}, error) {
	n.ran = true
	return map[string]interface{}{}, nil
}

func TestInterceptor_WithRegistry(t *testing.T) {
	reg := tools.NewRegistry()
	tool := &noopTool{}
	require.NoError(t, reg.Register(tool))

	s := &scriptedAsk{answers: []Decision{Deny, Allow}}
	reg.SetInterceptor(NewInterceptor(NewPromptApprover(s.ask)))

	_, err := reg.Execute(context.Background(), "noop", nil)
	assert.ErrorIs(t, err, ErrDenied)
	assert.False(t, tool.ran)
	assert.Contains(t, s.prompts[0], "  does nothing")
	assert.NotContains(t, s.prompts[0], "second line")

	_, err = reg.Execute(context.Background(), "noop", nil)
	require.NoError(t, err)
	assert.True(t, tool.ran)
}
