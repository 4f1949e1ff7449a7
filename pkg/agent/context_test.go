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

package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

func TestContextManager_PruneKeepsSystemAndNewest(t *testing.T) {
	cm := NewContextManager(300)

	messages := []llm.Message{
		{Role: llm.MessageRoleSystem, Content: "You are helpful"},
		{Role: llm.MessageRoleUser, Content: strings.Repeat("a", 500)},
		{Role: llm.MessageRoleAssistant, Content: strings.Repeat("b", 500)},
		{Role: llm.MessageRoleUser, Content: strings.Repeat("c", 400)},
		{Role: llm.MessageRoleAssistant, Content: strings.Repeat("d", 400)},
	}

	pruned := cm.Prune(messages)
	require.Len(t, pruned, 3)
	assert.Equal(t, llm.MessageRoleSystem, pruned[0].Role)
	assert.Equal(t, messages[3], pruned[1])
	assert.Equal(t, messages[4], pruned[2])
	assert.LessOrEqual(t, cm.EstimateTokens(pruned), 300)
}

func TestContextManager_PruneNeverOrphansToolResults(t *testing.T) {
	cm := NewContextManager(120)

	messages := []llm.Message{
		{Role: llm.MessageRoleSystem, Content: "sys"},
		{Role: llm.MessageRoleUser, Content: strings.Repeat("q", 200)},
		{Role: llm.MessageRoleAssistant, ToolCalls: []llm.ToolCall{{ID: "1", Name: "calculator", Arguments: `{"expression":"1+1"}`}}},
		{Role: llm.MessageRoleTool, ToolCallID: "1", Content: "2"},
		{Role: llm.MessageRoleAssistant, Content: "It is 2"},
		{Role: llm.MessageRoleUser, Content: "thanks"},
	}

	pruned := cm.Prune(messages)
	require.NotEmpty(t, pruned)
	assert.Equal(t, llm.MessageRoleSystem, pruned[0].Role)
	require.Greater(t, len(pruned), 1)
	assert.Equal(t, llm.MessageRoleUser, pruned[1].Role)
	for _, m := range pruned[1:] {
		assert.NotEqual(t, llm.MessageRoleTool, m.Role)
	}
}

func TestContextManager_PruneKeepsLastPromptWhenNothingFits(t *testing.T) {
	cm := NewContextManager(20)

	messages := []llm.Message{
		{Role: llm.MessageRoleSystem, Content: "sys"},
		{Role: llm.MessageRoleUser, Content: strings.Repeat("x", 1000)},
	}

	pruned := cm.Prune(messages)
	require.Len(t, pruned, 2)
	assert.Equal(t, messages[1], pruned[1])
}

func TestContextManager_PruneEmpty(t *testing.T) {
	cm := NewContextManager(1000)
	assert.Empty(t, cm.Prune(nil))
}

func TestContextManager_EstimateTokens(t *testing.T) {
	cm := NewContextManager(1000)

	tests := []struct {
		name string
		msg  llm.Message
		want int
	}{
		{"empty", llm.Message{Role: llm.MessageRoleUser}, 10},
		{"content", llm.Message{Role: llm.MessageRoleUser, Content: strings.Repeat("a", 40)}, 20},
		{
			name: "tool call",
			msg: llm.Message{
				Role:      llm.MessageRoleAssistant,
				ToolCalls: []llm.ToolCall{{Name: "abcdefgh", Arguments: strings.Repeat("z", 16)}},
			},
			want: 10 + 2 + 4 + 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cm.EstimateTokens([]llm.Message{tt.msg}))
		})
	}
}

func TestContextManager_ShouldPrune(t *testing.T) {
	cm := NewContextManager(100)

	small := []llm.Message{{Role: llm.MessageRoleUser, Content: "hi"}}
	assert.False(t, cm.ShouldPrune(small))

	large := []llm.Message{{Role: llm.MessageRoleUser, Content: strings.Repeat("a", 400)}}
	assert.True(t, cm.ShouldPrune(large))
}

func TestContextManager_TruncateContent(t *testing.T) {
	cm := NewContextManager(1000)

	assert.Equal(t, "short", cm.TruncateContent("short", 10))

	long := strings.Repeat("word ", 20)
	got := cm.TruncateContent(long, 5)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 20)
	assert.Equal(t, "...", cm.TruncateContent(long, 0))
}

func TestContextManager_GetStats(t *testing.T) {
	cm := NewContextManager(100)

	stats := cm.GetStats([]llm.Message{{Role: llm.MessageRoleUser, Content: strings.Repeat("a", 160)}})
	assert.Equal(t, 1, stats.MessageCount)
	assert.Equal(t, 50, stats.EstimatedTokens)
	assert.Equal(t, 100, stats.MaxTokens)
	assert.InDelta(t, 50.0, stats.UtilizationPct, 0.001)
}
