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

package compute

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultTreePath is the first branch of a data tree.
const DefaultTreePath = "{0}"

// Kind groups geometry types the way a Rhino model stores them.
type Kind string

const (
	KindCurve   Kind = "curve"
	KindPoint   Kind = "point"
	KindSurface Kind = "surface"
	KindMesh    Kind = "mesh"
	KindBrep    Kind = "brep"
	KindSubD    Kind = "subd"
	KindUnknown Kind = ""
)

// kindRules is checked in order; the first match wins. Extrusion derives
// from Surface in rhino3dm.
var kindRules = []struct {
	kind    Kind
	markers []string
}{
	{KindCurve, []string{"Curve"}},
	{KindPoint, []string{"Point"}},
	{KindSurface, []string{"Surface", "Extrusion"}},
	{KindMesh, []string{"Mesh"}},
	{KindBrep, []string{"Brep"}},
	{KindSubD, []string{"SubD"}},
}

// Classify maps a Rhino type name such as Rhino.Geometry.NurbsCurve to a Kind.
// PointCloud has no model table of its own and is reported as unknown.
func Classify(typeName string) Kind {
	if strings.Contains(typeName, "PointCloud") {
		return KindUnknown
	}
	for _, rule := range kindRules {
		for _, m := range rule.markers {
			if strings.Contains(typeName, m) {
				return rule.kind
			}
		}
	}
	return KindUnknown
}

// Geometry is an encoded Rhino object as produced by CommonObject.Encode.
type Geometry struct {
	Type string
	Kind Kind
	Data json.RawMessage
}

// DecodeOutput converts one branch of a /grasshopper response into Go
// values. Each item becomes a *Geometry, an int64, a float64 or a string,
// tried in that order.
func DecodeOutput(output map[string]any, treePath string) ([]any, error) {
	if treePath == "" {
		treePath = DefaultTreePath
	}

	values, ok := output["values"].([]any)
	if !ok || len(values) == 0 {
		return nil, fmt.Errorf("output has no values")
	}
	first, ok := values[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output value is not an object")
	}
	inner, ok := first["InnerTree"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output value has no InnerTree")
	}
	branch, ok := inner[treePath].([]any)
	if !ok {
		return nil, fmt.Errorf("branch %s not found in output", treePath)
	}

	results := make([]any, 0, len(branch))
	for i, raw := range branch {
		item, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d in %s is not an object", i, treePath)
		}
		itemType, _ := item["type"].(string)
		results = append(results, DecodeItem(item["data"], itemType))
	}
	return results, nil
}

// DecodeItem decodes a single data value. itemType is the type reported
// next to the data, used when the encoded object does not name its own.
func DecodeItem(data any, itemType string) any {
	s, ok := data.(string)
	if !ok {
		return data
	}

	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if len(s) == 1 {
			s = ""
		} else {
			s = s[1 : len(s)-1]
		}
	}

	if g := decodeGeometry(s, itemType); g != nil {
		return g
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	return s
}

func decodeGeometry(s, itemType string) *Geometry {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil
	}
	if _, ok := obj["archive3dm"]; !ok {
		return nil
	}

	typeName := itemType
	if raw, ok := obj["type"]; ok {
		var t string
		if json.Unmarshal(raw, &t) == nil && t != "" {
			typeName = t
		}
	}
	return &Geometry{
		Type: typeName,
		Kind: Classify(typeName),
		Data: json.RawMessage(trimmed),
	}
}
