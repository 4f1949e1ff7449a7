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

package prompt

import (
	"context"
	"fmt"
)

// MockPrompter implements Prompter with scripted answers for testing.
// Answers are raw text keyed by field name and go through the same
// coercion as FormPrompter.
type MockPrompter struct {
	answers     map[string]string
	err         error
	interactive bool
	callLog     []string
}

// NewMockPrompter creates a mock prompter that answers from answers.
func NewMockPrompter(interactive bool, answers map[string]string) *MockPrompter {
	return &MockPrompter{answers: answers, interactive: interactive}
}

// WithError makes every Collect call fail with err.
func (mp *MockPrompter) WithError(err error) *MockPrompter {
	mp.err = err
	return mp
}

// Collect implements Prompter.
func (mp *MockPrompter) Collect(ctx context.Context, title string, fields []Field) (map[string]any, error) {
	mp.callLog = append(mp.callLog, fmt.Sprintf("Collect(%s)", title))
	if !mp.interactive {
		return nil, ErrNonInteractive
	}
	if mp.err != nil {
		return nil, mp.err
	}

	raw := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := mp.answers[f.Name]; ok {
			raw[f.Name] = v
		} else {
			raw[f.Name] = defaultText(f)
		}
	}
	return coerceAll(fields, raw)
}

// IsInteractive returns the configured interactive state.
func (mp *MockPrompter) IsInteractive() bool {
	return mp.interactive
}

// GetCallLog returns the log of all prompt calls made.
func (mp *MockPrompter) GetCallLog() []string {
	return mp.callLog
}
