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

// Package prompt collects typed values from the terminal. The chat command
// uses it to answer MCP elicitation requests: the server's schema becomes
// a list of fields, each shown with validation, and the answers come back
// typed.
package prompt

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned when the user leaves the form (ctrl+c or esc).
	ErrAborted = errors.New("prompt aborted by user")

	// ErrNonInteractive is returned when no terminal is available.
	ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")
)

// Prompter collects values for fields.
// Implementations include FormPrompter (production) and MockPrompter (testing).
type Prompter interface {
	// Collect shows title and fields and returns the answers keyed by
	// field name. Optional fields left blank are omitted.
	Collect(ctx context.Context, title string, fields []Field) (map[string]any, error)

	// IsInteractive returns true if prompts can be displayed
	IsInteractive() bool
}

// coerceAll converts raw answers into typed values.
func coerceAll(fields []Field, raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, ok, err := Coerce(f, raw[f.Name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if ok {
			out[f.Name] = v
		}
	}
	return out, nil
}

// defaultText renders a schema default as the initial input text.
func defaultText(f Field) string {
	if f.Default == nil {
		return ""
	}
	return fmt.Sprint(f.Default)
}
