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

// Package tools defines the tool contract the chat agent calls, and the
// registry that holds builtin and MCP-backed tools side by side.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
)

// Tool represents an executable tool that can be called by the agent.
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns a human-readable description of what the tool does
	Description() string

	// Schema returns the JSON schema defining the tool's inputs and outputs
	Schema() *Schema

	// Execute runs the tool with the given inputs and returns outputs
	Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error)
}

// Schema defines the input and output schema for a tool using JSON Schema.
type Schema struct {
	// Inputs defines the expected input parameters
	Inputs *ParameterSchema `json:"inputs"`

	// Outputs defines the structure of returned data
	Outputs *ParameterSchema `json:"outputs,omitempty"`
}

// ParameterSchema defines a set of parameters using JSON Schema conventions.
type ParameterSchema struct {
	// Type is the JSON type (e.g., "object", "string", "number")
	Type string `json:"type"`

	// Properties defines nested properties (for type="object")
	Properties map[string]*Property `json:"properties,omitempty"`

	// Required lists the required property names
	Required []string `json:"required,omitempty"`

	// Description provides human-readable context
	Description string `json:"description,omitempty"`

	// Raw is the schema as received from an MCP server. When set it is
	// what the model sees, so nested objects survive.
	Raw map[string]any `json:"-"`
}

// Property defines a single property in a parameter schema.
type Property struct {
	// Type is the JSON type of this property
	Type string `json:"type"`

	// Description explains what this property represents
	Description string `json:"description,omitempty"`

	// Enum lists allowed values (for validation)
	Enum []interface{} `json:"enum,omitempty"`

	// Default provides a default value if not specified
	Default interface{} `json:"default,omitempty"`

	// Format specifies a format hint (e.g., "uri", "date-time")
	Format string `json:"format,omitempty"`
}

// JSONSchema renders the schema as a JSON Schema object for model APIs.
func (p *ParameterSchema) JSONSchema() map[string]any {
	if p == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	if p.Raw != nil {
		return p.Raw
	}

	props := make(map[string]any, len(p.Properties))
	for name, prop := range p.Properties {
		m := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			m["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			m["enum"] = prop.Enum
		}
		if prop.Default != nil {
			m["default"] = prop.Default
		}
		if prop.Format != "" {
			m["format"] = prop.Format
		}
		props[name] = m
	}
	out := map[string]any{"type": p.Type, "properties": props}
	if out["type"] == "" {
		out["type"] = "object"
	}
	if len(p.Required) > 0 {
		out["required"] = p.Required
	}
	if p.Description != "" {
		out["description"] = p.Description
	}
	return out
}

// Interceptor runs around every tool execution. The chat command uses it
// to ask for approval before a tool runs.
type Interceptor interface {
	// Intercept is called before tool execution. An error blocks the call.
	Intercept(ctx context.Context, tool Tool, inputs map[string]interface{}) error

	// PostExecute is called after tool execution
	PostExecute(ctx context.Context, tool Tool, outputs map[string]interface{}, err error)
}

// Registry maintains a collection of registered tools.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	interceptor Interceptor
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// SetInterceptor sets the interceptor for this registry.
func (r *Registry) SetInterceptor(interceptor Interceptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interceptor = interceptor
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Schema() == nil {
		return fmt.Errorf("tool schema cannot be nil: %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	return nil
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return &errors.NotFoundError{Resource: "tool", ID: name}
	}
	delete(r.tools, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "tool", ID: name}
	}
	return tool, nil
}

// Has checks if a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTools returns all registered tools sorted by name, so the model sees
// a stable tool list from turn to turn.
func (r *Registry) ListTools() []Tool {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := r.tools[name]; ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// Execute executes a tool by name with the given inputs.
func (r *Registry) Execute(ctx context.Context, name string, inputs map[string]interface{}) (map[string]interface{}, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if inputs == nil {
		inputs = map[string]interface{}{}
	}

	if err := r.validateInputs(tool, inputs); err != nil {
		return nil, &errors.ValidationError{
			Field:      "inputs",
			Message:    fmt.Sprintf("input validation failed for tool %s: %v", name, err),
			Suggestion: "Check the tool schema for required inputs and correct types",
		}
	}

	r.mu.RLock()
	interceptor := r.interceptor
	r.mu.RUnlock()

	if interceptor != nil {
		if err := interceptor.Intercept(ctx, tool, inputs); err != nil {
			return nil, fmt.Errorf("tool %s was not run: %w", name, err)
		}
	}

	outputs, err := tool.Execute(ctx, inputs)

	if interceptor != nil {
		interceptor.PostExecute(ctx, tool, outputs, err)
	}

	if err != nil {
		return nil, fmt.Errorf("tool execution failed for %s: %w", name, err)
	}
	return outputs, nil
}

// validateInputs checks required fields. Type checking is left to the
// tool, which knows how lenient it wants to be with model output.
func (r *Registry) validateInputs(tool Tool, inputs map[string]interface{}) error {
	schema := tool.Schema()
	if schema == nil || schema.Inputs == nil {
		return nil
	}

	required := schema.Inputs.Required
	if schema.Inputs.Raw != nil {
		required = rawRequired(schema.Inputs.Raw)
	}
	for _, name := range required {
		if _, exists := inputs[name]; !exists {
			return fmt.Errorf("required input missing: %s", name)
		}
	}
	return nil
}

func rawRequired(raw map[string]any) []string {
	switch v := raw["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExpandToolPatterns expands tool name patterns into concrete tool names.
// Supports:
//   - Exact names: "rhino.rhino_version" -> ["rhino.rhino_version"]
//   - Namespace wildcards: "weather.*" -> ["weather.get_forecast", ...]
//   - All tools: "*" -> [all registered tools]
//
// The chat command uses it to resolve --tool filters.
func (r *Registry) ExpandToolPatterns(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}

	names := r.List()
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	for _, pattern := range patterns {
		switch {
		case pattern == "*":
			for _, name := range names {
				add(name)
			}
		case strings.HasSuffix(pattern, ".*") && len(pattern) > 2:
			prefix := strings.TrimSuffix(pattern, "*")
			for _, name := range names {
				if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
					add(name)
				}
			}
		case r.Has(pattern):
			add(pattern)
		}
	}
	return result
}

// Filter creates a new registry containing only the specified tools.
// Returns an error if the tools array is empty or if any tool name is not found.
func (r *Registry) Filter(allowedNames []string) (*Registry, error) {
	if len(allowedNames) == 0 {
		return nil, &errors.ValidationError{
			Field:      "tools",
			Message:    "tools array cannot be empty",
			Suggestion: "specify at least one tool name",
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := NewRegistry()
	filtered.interceptor = r.interceptor

	for _, name := range allowedNames {
		tool, exists := r.tools[name]
		if !exists {
			return nil, &errors.ValidationError{
				Field:      "tools",
				Message:    fmt.Sprintf("unknown tool: %s", name),
				Suggestion: "run /tools in chat to see what is available",
			}
		}
		filtered.tools[name] = tool
	}
	return filtered, nil
}
