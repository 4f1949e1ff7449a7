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

package tools

import (
	"regexp"
	"sync"
)

// Redactor masks credentials in text before it is shown or sent to a model.
// http_request responses and MCP tool output can echo back headers and
// connection strings the user never meant to share with a provider.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*redactionPattern
}

// redactionPattern represents a compiled pattern with its replacement string.
type redactionPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor for the credentials this tool chain handles.
func NewRedactor() *Redactor {
	r := &Redactor{}

	// Anthropic keys first, the OpenAI pattern would eat their prefix
	r.addPattern(`sk-ant-[A-Za-z0-9_\-]{20,}`, "[REDACTED]")
	r.addPattern(`sk-(?:proj-)?[A-Za-z0-9_\-]{20,}`, "[REDACTED]")

	// AWS access key IDs
	r.addPattern(`(?:AKIA|ASIA)[A-Z0-9]{16}`, "[REDACTED]")
	r.addPattern(`(?i)(aws[_-]?secret[_-]?access[_-]?key|aws[_-]?session[_-]?token)\s*[=:]\s*['"]?([A-Za-z0-9/+=]{40,})['"]?`, "$1=[REDACTED]")

	// JWTs, such as the bearer tokens the MCP servers accept
	r.addPattern(`eyJ[A-Za-z0-9_\-]{8,}\.eyJ[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]{8,}`, "[REDACTED]")
	r.addPattern(`(?i)Bearer\s+([a-zA-Z0-9_\-\.]{10,})`, "Bearer [REDACTED]")

	// Rhino.Compute sends its key in a custom header
	r.addPattern(`(?i)(RhinoComputeKey|api[_-]?key|apikey)(["']?\s*[=:]\s*['"]?)([a-zA-Z0-9_\-]{16,})`, "$1$2[REDACTED]")

	// Passwords in URLs (://user:password@host)
	r.addPattern(`://([^:@\s/]+):([^@\s]+)@`, "://$1:[REDACTED]@")

	return r
}

// addPattern compiles and adds a new redaction pattern.
func (r *Redactor) addPattern(pattern, replacement string) {
	r.patterns = append(r.patterns, &redactionPattern{
		regex:       regexp.MustCompile(pattern),
		replacement: replacement,
	})
}

// AddPattern registers an extra pattern. Matches are replaced by
// replacement, which may reference capture groups.
func (r *Redactor) AddPattern(pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, &redactionPattern{regex: re, replacement: replacement})
	return nil
}

// Redact applies every pattern in order. Safe for concurrent use.
func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
