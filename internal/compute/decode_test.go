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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encodedCurve = `{"version":10000,"archive3dm":70,"opennurbs":-1910998424,"data":"+n8CAI4D"}`

func outputWith(items ...map[string]any) map[string]any {
	branch := make([]any, len(items))
	for i, it := range items {
		branch[i] = it
	}
	return map[string]any{
		"values": []any{
			map[string]any{
				"ParamName": "RH_OUT:result",
				"InnerTree": map[string]any{"{0}": branch},
			},
		},
	}
}

func TestDecodeItem(t *testing.T) {
	tests := []struct {
		name string
		data any
		want any
	}{
		{"integer", "10", int64(10)},
		{"quoted integer", `"10"`, int64(10)},
		{"float", "3.25", 3.25},
		{"quoted float", `"0.5"`, 0.5},
		{"text", "hello", "hello"},
		{"quoted text", `"hello"`, "hello"},
		{"dotted text stays text", "v1.2.3", "v1.2.3"},
		{"only outer quotes stripped", `""10""`, `"10"`},
		{"lone quote is empty", `"`, ""},
		{"non-string passes through", 4.0, 4.0},
		{"json without archive is text", `{"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeItem(tt.data, ""))
		})
	}
}

func TestDecodeItem_Geometry(t *testing.T) {
	got := DecodeItem(encodedCurve, "Rhino.Geometry.NurbsCurve")
	g, ok := got.(*Geometry)
	require.True(t, ok)
	assert.Equal(t, KindCurve, g.Kind)
	assert.Equal(t, "Rhino.Geometry.NurbsCurve", g.Type)
	assert.JSONEq(t, encodedCurve, string(g.Data))

	own := `{"type":"Rhino.Geometry.Mesh","archive3dm":70,"data":"x"}`
	g, ok = DecodeItem(own, "").(*Geometry)
	require.True(t, ok)
	assert.Equal(t, KindMesh, g.Kind)
}

func TestDecodeOutput(t *testing.T) {
	out := outputWith(
		map[string]any{"type": "Rhino.Geometry.NurbsCurve", "data": encodedCurve},
		map[string]any{"type": "System.Int32", "data": "42"},
		map[string]any{"type": "System.String", "data": `"done"`},
	)

	items, err := DecodeOutput(out, "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.IsType(t, &Geometry{}, items[0])
	assert.Equal(t, int64(42), items[1])
	assert.Equal(t, "done", items[2])
}

func TestDecodeOutput_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		output map[string]any
		path   string
	}{
		{"no values", map[string]any{}, ""},
		{"empty values", map[string]any{"values": []any{}}, ""},
		{"no inner tree", map[string]any{"values": []any{map[string]any{}}}, ""},
		{"missing branch", outputWith(), "{1}"},
		{"item not object", map[string]any{"values": []any{map[string]any{"InnerTree": map[string]any{"{0}": []any{"x"}}}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOutput(tt.output, tt.path)
			assert.Error(t, err)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"Rhino.Geometry.NurbsCurve":    KindCurve,
		"Rhino.Geometry.PolylineCurve": KindCurve,
		"Rhino.Geometry.Point":         KindPoint,
		"Rhino.Geometry.PointCloud":    KindUnknown,
		"Rhino.Geometry.NurbsSurface":  KindSurface,
		"Rhino.Geometry.Mesh":          KindMesh,
		"Rhino.Geometry.Brep":          KindBrep,
		"Rhino.Geometry.Extrusion":     KindSurface,
		"Rhino.Geometry.SubD":          KindSubD,
		"Rhino.Geometry.Hatch":         KindUnknown,
	}
	for typeName, want := range tests {
		assert.Equal(t, want, Classify(typeName), typeName)
	}
}
