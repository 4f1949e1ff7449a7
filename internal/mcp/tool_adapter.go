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

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// ToolCaller runs a tool on a server. *Client implements it.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*ToolCallResponse, error)
}

// MCPTool adapts an MCP tool to the tools.Tool interface.
type MCPTool struct {
	// name is what the agent sees. It differs from toolDef.Name when the
	// hub had to prefix it with the server name.
	name   string
	server string

	toolDef ToolDefinition
	caller  ToolCaller
}

// NewMCPTool creates a tool adapter. An empty name uses the server's name
// for the tool.
func NewMCPTool(name, server string, toolDef ToolDefinition, caller ToolCaller) *MCPTool {
	if name == "" {
		name = toolDef.Name
	}
	return &MCPTool{name: name, server: server, toolDef: toolDef, caller: caller}
}

// Name returns the name the agent calls the tool by.
func (t *MCPTool) Name() string {
	return t.name
}

// Server is the name of the server providing the tool.
func (t *MCPTool) Server() string {
	return t.server
}

// Description returns the tool description from the MCP definition.
func (t *MCPTool) Description() string {
	return t.toolDef.Description
}

// Schema converts the MCP input schema. The server's JSON Schema is kept
// as Raw so nested objects and arrays reach the model unchanged.
func (t *MCPTool) Schema() *tools.Schema {
	var inputSchema map[string]interface{}
	if len(t.toolDef.InputSchema) > 0 {
		if err := json.Unmarshal(t.toolDef.InputSchema, &inputSchema); err != nil {
			return &tools.Schema{
				Inputs: &tools.ParameterSchema{
					Type:        "object",
					Description: "Tool input parameters",
				},
			}
		}
	}

	params := convertJSONSchemaToParameterSchema(inputSchema)
	if inputSchema != nil {
		if _, ok := inputSchema["properties"]; !ok {
			inputSchema["properties"] = map[string]interface{}{}
		}
		params.Raw = inputSchema
	}
	return &tools.Schema{
		Inputs: params,
		Outputs: &tools.ParameterSchema{
			Type:        "object",
			Description: "Tool execution result",
		},
	}
}

// Execute calls the tool on its server. A result the server flags as an
// error comes back as output with success false, not as a Go error, so
// the model can read the message.
func (t *MCPTool) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	resp, err := t.caller.CallTool(ctx, t.toolDef.Name, inputs)
	if err != nil {
		return nil, fmt.Errorf("mcp tool call failed: %w", err)
	}

	text := resp.Text()
	result := map[string]interface{}{
		"success": !resp.IsError,
		"text":    text,
	}
	if resp.IsError {
		msg := text
		if msg == "" {
			msg = "tool execution failed"
		}
		result["error"] = msg
	}
	if resp.Structured != nil {
		result["structured"] = resp.Structured
	}

	// Keep non-text items so images are not silently lost.
	var other []map[string]interface{}
	for _, item := range resp.Content {
		if item.Type == "text" {
			continue
		}
		m := map[string]interface{}{"type": item.Type}
		if item.Data != "" {
			m["data"] = item.Data
		}
		if item.MimeType != "" {
			m["mimeType"] = item.MimeType
		}
		other = append(other, m)
	}
	if len(other) > 0 {
		result["content"] = other
	}
	return result, nil
}

// convertJSONSchemaToParameterSchema handles the common top-level cases;
// anything deeper is only carried in Raw.
func convertJSONSchemaToParameterSchema(schema map[string]interface{}) *tools.ParameterSchema {
	if schema == nil {
		return &tools.ParameterSchema{Type: "object"}
	}

	params := &tools.ParameterSchema{Type: "object"}
	if schemaType, ok := schema["type"].(string); ok {
		params.Type = schemaType
	}
	if desc, ok := schema["description"].(string); ok {
		params.Description = desc
	}
	if params.Type != "object" {
		return params
	}

	if props, ok := schema["properties"].(map[string]interface{}); ok {
		params.Properties = make(map[string]*tools.Property, len(props))
		for name, raw := range props {
			propMap, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			prop := &tools.Property{}
			if v, ok := propMap["type"].(string); ok {
				prop.Type = v
			}
			if v, ok := propMap["description"].(string); ok {
				prop.Description = v
			}
			if v, ok := propMap["enum"].([]interface{}); ok {
				prop.Enum = v
			}
			if v, ok := propMap["default"]; ok {
				prop.Default = v
			}
			if v, ok := propMap["format"].(string); ok {
				prop.Format = v
			}
			params.Properties[name] = prop
		}
	}

	if required, ok := schema["required"].([]interface{}); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				params.Required = append(params.Required, s)
			}
		}
	}
	return params
}
