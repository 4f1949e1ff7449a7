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

package mcp

import "encoding/json"

// ToolDefinition is a tool as listed by a server.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolCallResponse is the result of a tool call.
type ToolCallResponse struct {
	Content []ContentItem `json:"content"`

	// Structured is the structuredContent field, when the server sent one
	Structured any `json:"structuredContent,omitempty"`

	IsError bool `json:"isError,omitempty"`
}

// Text joins the text items of the response with newlines.
func (r *ToolCallResponse) Text() string {
	var out []byte
	for _, item := range r.Content {
		if item.Type != "text" || item.Text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, item.Text...)
	}
	return string(out)
}

// ContentItem is one piece of tool output.
type ContentItem struct {
	// Type is text, image, audio or resource
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	// Data is base64 for images and audio
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ResourceDefinition is a resource as listed by a server.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent is one entry of a resource read. Exactly one of Text and
// Blob is set.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}
