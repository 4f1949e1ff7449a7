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

// Package format renders chat output for the terminal: replies as
// markdown, tool inputs and results as indented JSON. Styling is applied
// only when stdout is a TTY.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

const (
	maxJSONSize     = 10 * 1024 * 1024 // 10MB
	maxMarkdownSize = 5 * 1024 * 1024  // 5MB
	maxCodeSize     = 2 * 1024 * 1024  // 2MB
)

// ansiEscapeRegex matches ANSI escape sequences for sanitization.
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Sanitize removes ANSI escape sequences. Model and tool output pass
// through it before any styling is added.
func Sanitize(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// enforceSize checks if content exceeds the maximum size for its format.
func enforceSize(content string, format string, maxSize int) error {
	if len(content) > maxSize {
		return fmt.Errorf("output size (%d bytes) exceeds maximum for %s format (%d bytes)", len(content), format, maxSize)
	}
	return nil
}

// Markdown renders markdown with glamour if isTTY. Falls back to the
// plain text if glamour fails or stdout is not a TTY.
func Markdown(content string, isTTY bool) (string, error) {
	if err := enforceSize(content, "markdown", maxMarkdownSize); err != nil {
		return "", err
	}
	content = Sanitize(content)
	if !isTTY {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, nil
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content, nil
	}
	return strings.TrimRight(rendered, "\n"), nil
}

// JSON pretty-prints v with 2-space indentation, highlighted if isTTY.
// A string or []byte is treated as encoded JSON; when it does not parse it
// is returned unchanged.
func JSON(v any, isTTY bool) (string, error) {
	var obj any
	switch raw := v.(type) {
	case string:
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return Sanitize(raw), nil
		}
	case []byte:
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Sanitize(string(raw)), nil
		}
	default:
		obj = v
	}

	formatted, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	if err := enforceSize(string(formatted), "json", maxJSONSize); err != nil {
		return "", err
	}
	return Code(Sanitize(string(formatted)), "json", isTTY)
}

// Code applies syntax highlighting with chroma if isTTY. Unknown
// languages come back plain.
func Code(content string, language string, isTTY bool) (string, error) {
	if err := enforceSize(content, "code", maxCodeSize); err != nil {
		return "", err
	}
	if !isTTY || language == "" {
		return content, nil
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, content, language, "terminal256", "monokai"); err != nil {
		return content, nil
	}
	return buf.String(), nil
}
