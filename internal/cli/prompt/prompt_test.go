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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsFromSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"units": map[string]any{"type": "string", "enum": []any{"metric", "imperial"}},
			"city":  map[string]any{"type": "string", "title": "City", "description": "US city"},
			"days":  map[string]any{"type": "integer", "default": float64(3)},
			"alert": map[string]any{"type": "boolean"},
		},
		"required": []any{"city", "units"},
	}

	fields, err := FieldsFromSchema(schema)
	require.NoError(t, err)
	require.Len(t, fields, 4)

	names := []string{}
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"city", "units", "alert", "days"}, names)

	assert.Equal(t, "City", fields[0].Label())
	assert.True(t, fields[0].Required)
	assert.Equal(t, InputTypeEnum, fields[1].Type)
	assert.Equal(t, []string{"metric", "imperial"}, fields[1].Options)
	assert.Equal(t, InputTypeBoolean, fields[2].Type)
	assert.Equal(t, "days", fields[3].Label())
	assert.Equal(t, float64(3), fields[3].Default)
}

func TestFieldsFromSchema_Rejects(t *testing.T) {
	_, err := FieldsFromSchema(map[string]any{
		"properties": map[string]any{"tags": map[string]any{"type": "array"}},
	})
	assert.ErrorContains(t, err, "unsupported type")

	_, err = FieldsFromSchema(map[string]any{
		"properties": map[string]any{"bad": "string"},
	})
	assert.ErrorContains(t, err, "not an object")
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		raw     string
		want    any
		wantOK  bool
		wantErr string
	}{
		{"string", Field{Type: InputTypeString}, "Boston", "Boston", true, ""},
		{"number", Field{Type: InputTypeNumber}, " 2.5 ", 2.5, true, ""},
		{"integer", Field{Type: InputTypeInteger}, "7", int64(7), true, ""},
		{"integer rejects fraction", Field{Type: InputTypeInteger}, "7.5", nil, false, "whole number"},
		{"boolean", Field{Type: InputTypeBoolean}, "yes", true, true, ""},
		{"enum by index", Field{Type: InputTypeEnum, Options: []string{"a", "b"}}, "2", "b", true, ""},
		{"enum by name", Field{Type: InputTypeEnum, Options: []string{"Metric"}}, "metric", "Metric", true, ""},
		{"optional blank", Field{Type: InputTypeNumber}, "", nil, false, ""},
		{"required blank", Field{Name: "city", Type: InputTypeString, Required: true}, "  ", nil, false, "city is required"},
		{"control char", Field{Type: InputTypeString}, "a\x01b", nil, false, "control character"},
		{"not a number", Field{Type: InputTypeNumber}, "NaN", nil, false, "must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Coerce(tt.field, tt.raw)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateString_Oversized(t *testing.T) {
	assert.Error(t, ValidateString(strings.Repeat("x", MaxInputSize+1)))
	assert.NoError(t, ValidateString("line one\nline two\t"))
}

func TestMockPrompter_Collect(t *testing.T) {
	fields := []Field{
		{Name: "city", Type: InputTypeString, Required: true},
		{Name: "days", Type: InputTypeInteger, Default: 3},
		{Name: "note", Type: InputTypeString},
	}

	mp := NewMockPrompter(true, map[string]string{"city": "Denver"})
	got, err := mp.Collect(context.Background(), "Where?", fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Denver", "days": int64(3)}, got)
	assert.Equal(t, []string{"Collect(Where?)"}, mp.GetCallLog())

	_, err = NewMockPrompter(true, nil).Collect(context.Background(), "Where?", fields)
	assert.ErrorContains(t, err, "city is required")

	_, err = NewMockPrompter(false, nil).Collect(context.Background(), "Where?", fields)
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = NewMockPrompter(true, nil).WithError(ErrAborted).Collect(context.Background(), "Where?", fields)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestFormPrompter_NonInteractive(t *testing.T) {
	p := NewFormPrompter(false)
	assert.False(t, p.IsInteractive())
	_, err := p.Collect(context.Background(), "t", nil)
	assert.ErrorIs(t, err, ErrNonInteractive)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "number, optional", describe(Field{Type: InputTypeNumber}))
	assert.Equal(t, "Latitude (number)", describe(Field{Type: InputTypeNumber, Description: "Latitude", Required: true}))
}
