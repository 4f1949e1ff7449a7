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
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Messages returned instead of data when a lookup fails.
const (
	MsgNoForecastData    = "Unable to fetch forecast data for this location."
	MsgNoDetailed        = "Unable to fetch detailed forecast."
	MsgNoWeatherData     = "Unable to fetch weather data for this location."
	MsgNoStations        = "Unable to find nearby weather stations."
	MsgNoObservations    = "Unable to fetch current observations."
	defaultDescription   = "No description available"
	maxForecastPeriods   = 10
	forecastPeriodJoiner = "\n---\n"
)

// GetForecast returns the next ten forecast periods for a US coordinate.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) string {
	points := c.Get(ctx, c.PointsURL(lat, lon))
	if points == nil {
		return MsgNoForecastData
	}

	forecast := c.Get(ctx, str(dig(points, "properties", "forecast")))
	if forecast == nil {
		return MsgNoDetailed
	}
	return FormatForecast(forecast)
}

// ForecastData fetches the raw forecast document. ok is false when the
// points lookup fails; data may still be nil when only the forecast fails.
func (c *Client) ForecastData(ctx context.Context, lat, lon float64) (data map[string]any, ok bool) {
	points := c.Get(ctx, c.PointsURL(lat, lon))
	if points == nil {
		return nil, false
	}
	return c.Get(ctx, str(dig(points, "properties", "forecast"))), true
}

// FormatForecast renders at most ten periods of a forecast document.
func FormatForecast(forecast map[string]any) string {
	periods, _ := dig(forecast, "properties", "periods").([]any)
	if len(periods) > maxForecastPeriods {
		periods = periods[:maxForecastPeriods]
	}

	out := make([]string, 0, len(periods))
	for _, p := range periods {
		period, _ := p.(map[string]any)
		out = append(out, fmt.Sprintf("\n%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s\n",
			display(period["name"]),
			display(period["temperature"]),
			display(period["temperatureUnit"]),
			display(period["windSpeed"]),
			display(period["windDirection"]),
			display(period["detailedForecast"]),
		))
	}
	return strings.Join(out, forecastPeriodJoiner)
}

// GetCurrentWeather returns the latest observation from the station
// nearest a US coordinate.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) string {
	points := c.Get(ctx, c.PointsURL(lat, lon))
	if points == nil {
		return MsgNoWeatherData
	}

	stations := c.Get(ctx, str(dig(points, "properties", "observationStations")))
	features, _ := dig(stations, "features").([]any)
	if stations == nil || len(features) == 0 {
		return MsgNoStations
	}

	first, _ := features[0].(map[string]any)
	stationID := str(dig(first, "properties", "stationIdentifier"))

	obs := c.Get(ctx, c.ObservationsURL(stationID))
	if obs == nil {
		return MsgNoObservations
	}

	props, _ := obs["properties"].(map[string]any)
	return FormatObservation(props)
}

// FormatObservation renders an observation's properties. Missing numbers
// print as None.
func FormatObservation(props map[string]any) string {
	tempC, hasTemp := number(dig(props, "temperature", "value"))

	tempCText, tempFText := "None", "None"
	if hasTemp {
		tempCText = strconv.FormatFloat(tempC, 'f', 1, 64)
		tempFText = strconv.FormatFloat(tempC*9/5+32, 'f', 1, 64)
	}

	description := defaultDescription
	if v, ok := props["textDescription"]; ok {
		description = display(v)
	}

	result := fmt.Sprintf(`
Current Weather Conditions:
Description: %s
Temperature: %s°C (%s°F)
Humidity: %s%%
Wind Speed: %s m/s
Wind Direction: %s°
`,
		description,
		tempCText, tempFText,
		display(dig(props, "relativeHumidity", "value")),
		display(dig(props, "windSpeed", "value")),
		display(dig(props, "windDirection", "value")),
	)
	return strings.TrimSpace(result)
}

// dig walks nested objects and returns nil at the first missing key.
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// display renders a decoded JSON value for text output.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}
