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

// Package providers contains the chat backends registered with pkg/llm.
package providers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

const maxToolNameLen = 64

// toolNames maps between the tool names the agent uses ("weather.get_forecast")
// and the restricted form model APIs accept ([a-zA-Z0-9_-], 64 bytes).
type toolNames struct {
	toProvider map[string]string
	toCanon    map[string]string
}

func newToolNames(tools []llm.Tool) *toolNames {
	n := &toolNames{
		toProvider: make(map[string]string, len(tools)),
		toCanon:    make(map[string]string, len(tools)),
	}
	for _, t := range tools {
		s := sanitizeToolName(t.Name)
		n.toProvider[t.Name] = s
		n.toCanon[s] = t.Name
	}
	return n
}

// provider returns the wire name for canonical. Unknown names are sanitized
// so replayed history never carries a name the API rejects.
func (n *toolNames) provider(canonical string) string {
	if s, ok := n.toProvider[canonical]; ok {
		return s
	}
	return sanitizeToolName(canonical)
}

// canonical maps a name the model returned back to the agent's name. A name
// the model invented is passed through so the registry reports it unknown.
func (n *toolNames) canonical(name string) string {
	if c, ok := n.toCanon[name]; ok {
		return c
	}
	return name
}

func sanitizeToolName(in string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, in)
	if len(out) <= maxToolNameLen {
		return out
	}
	sum := sha256.Sum256([]byte(in))
	suffix := hex.EncodeToString(sum[:])[:8]
	return out[:maxToolNameLen-len(suffix)-1] + "_" + suffix
}

// systemPrompt joins system messages and returns the rest of the conversation.
func systemPrompt(msgs []llm.Message) (string, []llm.Message) {
	var parts []string
	rest := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.MessageRoleSystem {
			if m.Content != "" {
				parts = append(parts, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(parts, "\n\n"), rest
}

func finishReason(hasTools bool, truncated bool) llm.FinishReason {
	switch {
	case hasTools:
		return llm.FinishReasonToolCalls
	case truncated:
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}

func pick[T comparable](override *T, fallback T) T {
	if override != nil {
		return *override
	}
	return fallback
}
