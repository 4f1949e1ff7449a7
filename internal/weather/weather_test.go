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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNWS serves canned NWS documents keyed by path.
type fakeNWS struct {
	srv    *httptest.Server
	bodies map[string]string
}

func newFakeNWS(t *testing.T) *fakeNWS {
	t.Helper()
	f := &fakeNWS{bodies: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		body, ok := f.bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNWS) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: f.srv.URL}, nil)
	require.NoError(t, err)
	return c
}

func (f *fakeNWS) withPoints() {
	f.bodies["/points/40.7128,-74.006"] = fmt.Sprintf(`{"properties":{
		"forecast":"%[1]s/gridpoints/OKX/33,35/forecast",
		"observationStations":"%[1]s/gridpoints/OKX/33,35/stations"}}`, f.srv.URL)
}

func periods(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf(`{"name":"P%d","temperature":%d,"temperatureUnit":"F","windSpeed":"5 mph","windDirection":"NW","detailedForecast":"Sunny."}`, i, 60+i)
	}
	return `{"properties":{"periods":[` + strings.Join(ps, ",") + `]}}`
}

func TestGetForecast(t *testing.T) {
	f := newFakeNWS(t)
	f.withPoints()
	f.bodies["/gridpoints/OKX/33,35/forecast"] = periods(12)

	got := f.client(t).GetForecast(context.Background(), 40.7128, -74.0060)

	parts := strings.Split(got, "\n---\n")
	assert.Len(t, parts, 10)
	assert.Equal(t, "\nP0:\nTemperature: 60°F\nWind: 5 mph NW\nForecast: Sunny.\n", parts[0])
	assert.NotContains(t, got, "P10")
}

func TestGetForecast_Failures(t *testing.T) {
	f := newFakeNWS(t)
	c := f.client(t)
	assert.Equal(t, MsgNoForecastData, c.GetForecast(context.Background(), 40.7128, -74.0060))

	f.withPoints()
	assert.Equal(t, MsgNoDetailed, c.GetForecast(context.Background(), 40.7128, -74.0060))
}

func TestGetCurrentWeather(t *testing.T) {
	f := newFakeNWS(t)
	f.withPoints()
	f.bodies["/gridpoints/OKX/33,35/stations"] = `{"features":[{"properties":{"stationIdentifier":"KNYC"}}]}`
	f.bodies["/stations/KNYC/observations/latest"] = `{"properties":{
		"textDescription":"Clear",
		"temperature":{"value":21.5},
		"relativeHumidity":{"value":48.2},
		"windSpeed":{"value":3.6},
		"windDirection":{"value":270}}}`

	got := f.client(t).GetCurrentWeather(context.Background(), 40.7128, -74.0060)
	assert.Equal(t, strings.Join([]string{
		"Current Weather Conditions:",
		"Description: Clear",
		"Temperature: 21.5°C (70.7°F)",
		"Humidity: 48.2%",
		"Wind Speed: 3.6 m/s",
		"Wind Direction: 270°",
	}, "\n"), got)
}

func TestGetCurrentWeather_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFakeNWS(t)
	c := f.client(t)

	assert.Equal(t, MsgNoWeatherData, c.GetCurrentWeather(ctx, 40.7128, -74.0060))

	f.withPoints()
	assert.Equal(t, MsgNoStations, c.GetCurrentWeather(ctx, 40.7128, -74.0060))

	f.bodies["/gridpoints/OKX/33,35/stations"] = `{"features":[]}`
	assert.Equal(t, MsgNoStations, c.GetCurrentWeather(ctx, 40.7128, -74.0060))

	f.bodies["/gridpoints/OKX/33,35/stations"] = `{"features":[{"properties":{"stationIdentifier":"KNYC"}}]}`
	assert.Equal(t, MsgNoObservations, c.GetCurrentWeather(ctx, 40.7128, -74.0060))
}

func TestFormatObservation_MissingValues(t *testing.T) {
	got := FormatObservation(map[string]any{
		"temperature":      map[string]any{"value": nil},
		"relativeHumidity": map[string]any{"value": json.Number("80")},
	})
	assert.Contains(t, got, "Description: No description available")
	assert.Contains(t, got, "Temperature: None°C (None°F)")
	assert.Contains(t, got, "Humidity: 80%")
	assert.Contains(t, got, "Wind Speed: None m/s")
}

func TestFormatObservation_ZeroCelsius(t *testing.T) {
	got := FormatObservation(map[string]any{"temperature": map[string]any{"value": json.Number("0")}})
	assert.Contains(t, got, "Temperature: 0.0°C (32.0°F)")
}

func TestPointsURL(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.weather.gov/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.weather.gov/points/40.0,-74.006", c.PointsURL(40, -74.006))
}
