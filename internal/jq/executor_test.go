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

package jq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	data := map[string]any{
		"properties": map[string]any{
			"periods": []any{
				map[string]any{"name": "Tonight", "temperature": 61},
				map[string]any{"name": "Monday", "temperature": 75},
			},
		},
	}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"empty passes through", "", data},
		{"single value", ".properties.periods[0].name", "Tonight"},
		{"multiple values", ".properties.periods[].temperature", []any{float64(61), float64(75)}},
		{"no output", "empty", nil},
	}

	e := NewExecutor(0, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Execute(context.Background(), tt.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	e := NewExecutor(0, 16)
	_, err := e.Execute(context.Background(), ".a", map[string]any{"a": "this is longer than sixteen bytes"})
	assert.ErrorContains(t, err, "exceeds maximum")

	_, err = NewExecutor(0, 0).Execute(context.Background(), ".[", map[string]any{})
	assert.ErrorContains(t, err, "invalid jq expression")

	_, err = NewExecutor(0, 0).Execute(context.Background(), `error("boom")`, map[string]any{})
	assert.ErrorContains(t, err, "boom")
}
