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
	"fmt"
	"sort"
)

// InputType is the kind of value a field collects.
type InputType string

const (
	InputTypeString  InputType = "string"
	InputTypeNumber  InputType = "number"
	InputTypeInteger InputType = "integer"
	InputTypeBoolean InputType = "boolean"

	// InputTypeEnum is a string restricted to Options
	InputTypeEnum InputType = "enum"
)

// MaxInputSize is the maximum allowed input size in bytes.
const MaxInputSize = 65536

// Field is one value requested from the user.
type Field struct {
	Name        string
	Title       string
	Description string
	Type        InputType
	Options     []string // For enum types
	Default     any
	Required    bool
}

// Label is the title shown for the field, falling back to its name.
func (f Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// FieldsFromSchema converts a flat JSON schema object, as sent in an MCP
// elicitation request, into fields. Required fields come first, then the
// rest, each group sorted by name. Nested objects and arrays are rejected.
func FieldsFromSchema(schema map[string]any) ([]Field, error) {
	props, _ := schema["properties"].(map[string]any)

	required := map[string]bool{}
	switch req := schema["required"].(type) {
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	case []string:
		for _, name := range req {
			required[name] = true
		}
	}

	fields := make([]Field, 0, len(props))
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("property %q is not an object", name)
		}

		f := Field{Name: name, Required: required[name], Default: prop["default"]}
		f.Title, _ = prop["title"].(string)
		f.Description, _ = prop["description"].(string)

		typ, _ := prop["type"].(string)
		switch InputType(typ) {
		case InputTypeNumber, InputTypeInteger, InputTypeBoolean:
			f.Type = InputType(typ)
		case InputTypeString, "":
			f.Type = InputTypeString
			if opts := stringList(prop["enum"]); len(opts) > 0 {
				f.Type = InputTypeEnum
				f.Options = opts
			}
		default:
			return nil, fmt.Errorf("property %q has unsupported type %q", name, typ)
		}
		fields = append(fields, f)
	}

	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Required != fields[j].Required {
			return fields[i].Required
		}
		return fields[i].Name < fields[j].Name
	})
	return fields, nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
