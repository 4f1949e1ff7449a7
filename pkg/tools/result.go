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
	"encoding/json"
	"fmt"
)

// ToolResult is a tool's output reduced to what the model and the chat
// transcript need.
type ToolResult struct {
	// Text is the primary textual output, if the tool produced one
	Text string

	// Data is the raw output map
	Data map[string]interface{}

	// Error is a failure the tool reported in its output rather than as a
	// Go error (an HTTP 404, a failed geometry solve)
	Error string
}

// NewToolResult creates a ToolResult from a map output.
func NewToolResult(rawOutput map[string]interface{}) ToolResult {
	result := ToolResult{Data: rawOutput}

	if text, ok := rawOutput["text"].(string); ok {
		result.Text = text
	} else if text, ok := rawOutput["result"].(string); ok {
		result.Text = text
	} else if text, ok := rawOutput["response"].(string); ok {
		result.Text = text
	}

	if err, ok := rawOutput["error"].(string); ok {
		result.Error = err
	}
	return result
}

// Content is the string handed back to the model: the text output when
// there is one, else the whole map as JSON.
func (r ToolResult) Content() string {
	if r.Text != "" {
		return r.Text
	}
	if len(r.Data) == 0 {
		return ""
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Sprintf("%v", r.Data)
	}
	return string(b)
}

// Failed reports whether the tool signalled failure in its output.
func (r ToolResult) Failed() bool {
	if r.Error != "" {
		return true
	}
	ok, present := r.Data["success"].(bool)
	return present && !ok
}
