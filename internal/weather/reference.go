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
	"encoding/json"
	"fmt"
	"strings"
)

// Conversions is the unit conversion reference served as a resource.
func Conversions() map[string]any {
	return map[string]any{
		"temperature": map[string]any{
			"nws_unit":      "celsius",
			"display_units": []string{"celsius", "fahrenheit"},
			"formulas": map[string]string{
				"c_to_f": "(°C × 9/5) + 32",
				"f_to_c": "(°F - 32) × 5/9",
			},
		},
		"wind": map[string]any{
			"nws_unit":      "meters_per_second",
			"display_units": []string{"ms", "mph", "kmh"},
			"formulas": map[string]string{
				"ms_to_mph": "m/s × 2.237",
				"ms_to_kmh": "m/s × 3.6",
			},
		},
	}
}

// Coverage describes where the NWS API has data.
func Coverage() map[string]any {
	return map[string]any{
		"geographic_coverage":  "United States only",
		"territories_included": []string{"Puerto Rico", "US Virgin Islands", "Guam"},
		"coordinate_system":    "WGS84 (latitude/longitude)",
		"data_sources":         "National Weather Service observation stations",
	}
}

// Report types accepted by LocationPrompt.
const (
	ReportCurrent  = "current"
	ReportForecast = "forecast"
	ReportBoth     = "both"
)

// LocationPrompt tells a model how to go from a place name to the
// coordinate-based weather tools.
func LocationPrompt(location, reportType string) string {
	if reportType == "" {
		reportType = ReportCurrent
	}
	current, forecast := "", ""
	if reportType == ReportCurrent || reportType == ReportBoth {
		current = "- Use get_current_weather(latitude, longitude) for current conditions"
	}
	if reportType == ReportForecast || reportType == ReportBoth {
		forecast = "- Use get_forecast(latitude, longitude) for the forecast"
	}

	return fmt.Sprintf(`I need weather information for %[1]s.

Since the weather tools require latitude and longitude coordinates, please:

1. First determine the coordinates for %[1]s
   - Look up the latitude and longitude for this location
   - For cities, use the city center coordinates
   - For addresses, convert to precise coordinates

2. Then get the weather data:
   %[2]s
   %[3]s

3. Present the results clearly:
   - Show the location name and coordinates used
   - Display weather information in user-friendly format
   - Convert units to local preferences (Fahrenheit for US locations)

Example coordinates for reference:
- New York City: 40.7128, -74.0060
- Los Angeles: 34.0522, -118.2437
- Chicago: 41.8781, -87.6298`, location, current, forecast)
}

// TrendAnalysisPrompt asks a model to analyse a forecast document.
func TrendAnalysisPrompt(days int, forecast map[string]any) string {
	data := "None"
	if forecast != nil {
		if b, err := json.Marshal(forecast); err == nil {
			data = string(b)
		}
	}
	return fmt.Sprintf(`Analyze this %d-day weather forecast and identify key patterns:

%s

Provide analysis on:
1. Overall weather trend (improving, deteriorating, stable)
2. Temperature patterns and any unusual changes
3. Precipitation likelihood and timing
4. Best days for outdoor activities
5. Days to avoid for travel or outdoor events
6. Any notable weather systems approaching

Focus on actionable insights for planning.`, days, data)
}

// TravelPreferences is what the travel planner asks the user for.
type TravelPreferences struct {
	DepartureDate      string `json:"departure_date"`
	ReturnDate         string `json:"return_date"`
	ActivityType       string `json:"activity_type"`
	WeatherSensitivity string `json:"weather_sensitivity"`
}

// Defaults for optional travel preferences.
const (
	DefaultActivityType       = "general"
	DefaultWeatherSensitivity = "moderate"
)

// TravelPreferencesSchema is the JSON schema sent with the elicitation.
func TravelPreferencesSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"departure_date": map[string]any{
				"type":        "string",
				"description": "Departure date (YYYY-MM-DD)",
			},
			"return_date": map[string]any{
				"type":        "string",
				"description": "Return date (YYYY-MM-DD)",
			},
			"activity_type": map[string]any{
				"type":        "string",
				"description": "Type of activities planned (outdoor, business, vacation, etc.)",
				"default":     DefaultActivityType,
			},
			"weather_sensitivity": map[string]any{
				"type":        "string",
				"description": "Weather sensitivity (low, moderate, high)",
				"default":     DefaultWeatherSensitivity,
			},
		},
		"required": []string{"departure_date", "return_date"},
	}
}

// ParseTravelPreferences reads elicited content and fills defaults.
func ParseTravelPreferences(content any) (TravelPreferences, error) {
	var prefs TravelPreferences
	b, err := json.Marshal(content)
	if err != nil {
		return prefs, err
	}
	if err := json.Unmarshal(b, &prefs); err != nil {
		return prefs, fmt.Errorf("decode travel preferences: %w", err)
	}
	if prefs.DepartureDate == "" || prefs.ReturnDate == "" {
		return prefs, fmt.Errorf("departure_date and return_date are required")
	}
	if prefs.ActivityType == "" {
		prefs.ActivityType = DefaultActivityType
	}
	if prefs.WeatherSensitivity == "" {
		prefs.WeatherSensitivity = DefaultWeatherSensitivity
	}
	return prefs, nil
}

// TravelPlanMessage is the elicitation prompt for a route.
func TravelPlanMessage(from, to string) string {
	return fmt.Sprintf("Help me plan weather considerations for your trip from %s to %s", from, to)
}

// TravelPlan renders the plan summary.
func TravelPlan(from, to string, prefs TravelPreferences) string {
	var b strings.Builder
	b.WriteString("Travel weather plan:\n")
	fmt.Fprintf(&b, "Route: %s → %s\n", from, to)
	fmt.Fprintf(&b, "Dates: %s to %s\n", prefs.DepartureDate, prefs.ReturnDate)
	fmt.Fprintf(&b, "Activity focus: %s\n", prefs.ActivityType)
	fmt.Fprintf(&b, "Weather sensitivity: %s\n", prefs.WeatherSensitivity)
	b.WriteString("[Weather analysis would go here...]")
	return b.String()
}
