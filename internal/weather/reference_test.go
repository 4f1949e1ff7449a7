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

package weather

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationPrompt(t *testing.T) {
	tests := []struct {
		reportType  string
		wantCurrent bool
		wantFcst    bool
	}{
		{"current", true, false},
		{"", true, false},
		{"forecast", false, true},
		{"both", true, true},
		{"weekly", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.reportType, func(t *testing.T) {
			got := LocationPrompt("Chicago", tt.reportType)
			assert.Contains(t, got, "I need weather information for Chicago.")
			assert.Contains(t, got, "1. First determine the coordinates for Chicago")
			assert.Equal(t, tt.wantCurrent, strings.Contains(got, "get_current_weather(latitude, longitude)"))
			assert.Equal(t, tt.wantFcst, strings.Contains(got, "get_forecast(latitude, longitude)"))
		})
	}
}

func TestTrendAnalysisPrompt(t *testing.T) {
	got := TrendAnalysisPrompt(5, map[string]any{"properties": map[string]any{}})
	assert.Contains(t, got, "Analyze this 5-day weather forecast")
	assert.Contains(t, got, `{"properties":{}}`)
	assert.Contains(t, TrendAnalysisPrompt(7, nil), "\n\nNone\n\n")
}

func TestParseTravelPreferences(t *testing.T) {
	prefs, err := ParseTravelPreferences(map[string]any{
		"departure_date": "2025-06-01",
		"return_date":    "2025-06-07",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultActivityType, prefs.ActivityType)
	assert.Equal(t, DefaultWeatherSensitivity, prefs.WeatherSensitivity)

	_, err = ParseTravelPreferences(map[string]any{"departure_date": "2025-06-01"})
	assert.Error(t, err)
}

func TestTravelPlan(t *testing.T) {
	got := TravelPlan("New York", "Los Angeles", TravelPreferences{
		DepartureDate:      "2025-06-01",
		ReturnDate:         "2025-06-07",
		ActivityType:       "outdoor",
		WeatherSensitivity: "high",
	})
	assert.Equal(t, "Travel weather plan:\n"+
		"Route: New York → Los Angeles\n"+
		"Dates: 2025-06-01 to 2025-06-07\n"+
		"Activity focus: outdoor\n"+
		"Weather sensitivity: high\n"+
		"[Weather analysis would go here...]", got)
}

func TestReferenceTables(t *testing.T) {
	assert.Contains(t, Conversions(), "temperature")
	assert.Contains(t, Conversions(), "wind")
	assert.Equal(t, "United States only", Coverage()["geographic_coverage"])
}
