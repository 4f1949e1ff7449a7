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

package builtin

import (
	"context"
	"time"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// ClockTool reports the current time.
type ClockTool struct {
	now func() time.Time
}

// NewClockTool creates the current_time tool.
func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

func (t *ClockTool) Name() string { return "current_time" }

func (t *ClockTool) Description() string {
	return "Get the current date and time in ISO 8601 format, in UTC or an IANA timezone such as America/New_York."
}

func (t *ClockTool) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"timezone": {
					Type:        "string",
					Description: "IANA timezone name (default UTC)",
					Default:     "UTC",
				},
			},
		},
		Outputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"result":   {Type: "string", Description: "Current time", Format: "date-time"},
				"timezone": {Type: "string", Description: "Timezone used"},
			},
		},
	}
}

func (t *ClockTool) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	name, _ := inputs["timezone"].(string)
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:      "timezone",
			Message:    err.Error(),
			Suggestion: "Use an IANA name such as UTC or Europe/London",
		}
	}
	return map[string]interface{}{
		"result":   t.now().In(loc).Format(time.RFC3339),
		"timezone": name,
	}, nil
}
