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

	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

// ContextManager keeps the messages sent to the model inside a token
// budget. Token counts are estimated at four characters per token.
type ContextManager struct {
	maxTokens      int
	pruneThreshold int
}

// NewContextManager creates a new context manager.
func NewContextManager(maxTokens int) *ContextManager {
	return &ContextManager{
		maxTokens:      maxTokens,
		pruneThreshold: int(float64(maxTokens) * 0.8),
	}
}

// ShouldPrune checks if the message history should be pruned.
func (cm *ContextManager) ShouldPrune(messages []llm.Message) bool {
	return cm.EstimateTokens(messages) > cm.pruneThreshold
}

// Prune reduces messages to fit within the budget. Leading system messages
// are always kept. Newer messages win over older ones, and the kept tail
// always starts at a user message so no tool result is separated from the
// assistant message that asked for it.
func (cm *ContextManager) Prune(messages []llm.Message) []llm.Message {
	if len(messages) == 0 {
		return messages
	}

	head := 0
	for head < len(messages) && messages[head].Role == llm.MessageRoleSystem {
		head++
	}
	remaining := cm.maxTokens - cm.EstimateTokens(messages[:head])

	start := len(messages)
	for i := len(messages) - 1; i >= head; i-- {
		t := cm.estimateMessageTokens(&messages[i])
		if remaining-t < 0 {
			break
		}
		remaining -= t
		start = i
	}
	for start < len(messages) && messages[start].Role != llm.MessageRoleUser {
		start++
	}

	// Nothing fits: keep the newest user message so the model still has
	// something to answer.
	if start == len(messages) {
		for i := len(messages) - 1; i >= head; i-- {
			if messages[i].Role == llm.MessageRoleUser {
				start = i
				break
			}
		}
	}

	pruned := make([]llm.Message, 0, head+len(messages)-start)
	pruned = append(pruned, messages[:head]...)
	return append(pruned, messages[start:]...)
}

// EstimateTokens estimates the total token count for a list of messages.
func (cm *ContextManager) EstimateTokens(messages []llm.Message) int {
	total := 0
	for i := range messages {
		total += cm.estimateMessageTokens(&messages[i])
	}
	return total
}

func (cm *ContextManager) estimateMessageTokens(msg *llm.Message) int {
	// 10 for role and framing
	tokens := len(msg.Content)/4 + 10
	for _, call := range msg.ToolCalls {
		tokens += len(call.Name)/4 + len(call.Arguments)/4 + 20
	}
	return tokens
}

// TruncateContent truncates content to roughly maxTokens, cutting at a
// word boundary when there is one.
func (cm *ContextManager) TruncateContent(content string, maxTokens int) string {
	maxChars := maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	if maxChars <= 3 {
		return "..."
	}

	truncated := content[:maxChars-3]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}

// ContextStats describes how much of the budget a history uses.
type ContextStats struct {
	MessageCount    int
	EstimatedTokens int
	MaxTokens       int
	UtilizationPct  float64
}

// GetStats returns statistics about the context usage.
func (cm *ContextManager) GetStats(messages []llm.Message) ContextStats {
	estimated := cm.EstimateTokens(messages)
	var pct float64
	if cm.maxTokens > 0 {
		pct = float64(estimated) / float64(cm.maxTokens) * 100
	}
	return ContextStats{
		MessageCount:    len(messages),
		EstimatedTokens: estimated,
		MaxTokens:       cm.maxTokens,
		UtilizationPct:  pct,
	}
}
