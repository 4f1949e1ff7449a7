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
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	mcptesting "github.com/aectech/rhcompute-mcp/internal/mcp/testing"
	"github.com/aectech/rhcompute-mcp/internal/weather"
)

var nyc = map[string]any{"latitude": 40.7128, "longitude": -74.006}

func newNWS(t *testing.T, withPoints bool) *weather.Client {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/points/40.7128,-74.006":
			if !withPoints {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintf(w, `{"properties":{"forecast":"%[1]s/forecast","observationStations":"%[1]s/stations"}}`, srv.URL)
		case "/forecast":
			_, _ = w.Write([]byte(`{"properties":{"periods":[{"name":"Tonight","temperature":48,"temperatureUnit":"F","windSpeed":"5 mph","windDirection":"NW","detailedForecast":"Clear."}]}}`))
		case "/stations":
			_, _ = w.Write([]byte(`{"features":[{"properties":{"stationIdentifier":"KNYC"}}]}`))
		case "/stations/KNYC/observations/latest":
			_, _ = w.Write([]byte(`{"properties":{"textDescription":"Cloudy","temperature":{"value":20},"relativeHumidity":{"value":55},"windSpeed":{"value":3.1},"windDirection":{"value":270}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := weather.New(weather.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return c
}

func newServer(t *testing.T, withPoints bool) *Server {
	t.Helper()
	return New(mcpserver.Config{Name: "weather-test"}, newNWS(t, withPoints))
}

type sampler struct {
	mu  sync.Mutex
	got []mcp.CreateMessageRequest
}

func (s *sampler) CreateMessage(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	s.mu.Lock()
	s.got = append(s.got, req)
	s.mu.Unlock()
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{Role: mcp.RoleAssistant, Content: mcp.NewTextContent("Dry and mild all week.")},
		Model:           "test-model",
	}, nil
}

type elicitor struct {
	action  mcp.ElicitationResponseAction
	content any
	message string
}

func (e *elicitor) Elicit(ctx context.Context, req mcp.ElicitationRequest) (*mcp.ElicitationResult, error) {
	e.message = req.Params.Message
	return &mcp.ElicitationResult{ElicitationResponse: mcp.ElicitationResponse{Action: e.action, Content: e.content}}, nil
}

type rootsLister []mcp.Root

func (r rootsLister) ListRoots(ctx context.Context, req mcp.ListRootsRequest) (*mcp.ListRootsResult, error) {
	return &mcp.ListRootsResult{Roots: r}, nil
}

func TestForecastAndCurrent(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP())

	text := mcptesting.Text(mcptesting.CallTool(t, c, "get_forecast", nyc))
	assert.Equal(t, "\nTonight:\nTemperature: 48°F\nWind: 5 mph NW\nForecast: Clear.\n", text)

	text = mcptesting.Text(mcptesting.CallTool(t, c, "get_current_weather", nyc))
	assert.Contains(t, text, "Current Weather Conditions:")
	assert.Contains(t, text, "Temperature: 20.0°C (68.0°F)")
	assert.Contains(t, text, "Wind Direction: 270°")
}

func TestForecast_NoPoints(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, false).Base().MCP())

	assert.Equal(t, weather.MsgNoForecastData, mcptesting.Text(mcptesting.CallTool(t, c, "get_forecast", nyc)))
	assert.Equal(t, weather.MsgNoWeatherData, mcptesting.Text(mcptesting.CallTool(t, c, "get_current_weather", nyc)))
	assert.Equal(t, weather.MsgNoForecastData, mcptesting.Text(mcptesting.CallTool(t, c, "sampling_analyze_weather_trends", nyc)))
}

func TestForecast_MissingArgs(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP())
	res := mcptesting.CallTool(t, c, "get_forecast", map[string]any{"latitude": 40.0})
	assert.True(t, res.IsError)
}

func TestSamplingTrends(t *testing.T) {
	smp := &sampler{}
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP(), transport.WithSamplingHandler(smp))

	args := map[string]any{"latitude": 40.7128, "longitude": -74.006, "days": 3}
	text := mcptesting.Text(mcptesting.CallTool(t, c, "sampling_analyze_weather_trends", args))
	assert.Equal(t, "Dry and mild all week.", text)

	require.Len(t, smp.got, 1)
	req := smp.got[0]
	assert.Equal(t, 400, req.MaxTokens)
	assert.Equal(t, 0.2, req.Temperature)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, mcp.RoleUser, req.Messages[0].Role)
	prompt := contentText(req.Messages[0].Content)
	assert.Contains(t, prompt, "Analyze this 3-day weather forecast")
	assert.Contains(t, prompt, `"Tonight"`)
}

func TestSampling_Unsupported(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP())
	res := mcptesting.CallTool(t, c, "sampling_analyze_weather_trends", nyc)
	assert.True(t, res.IsError)
}

func TestElicitationTravel(t *testing.T) {
	route := map[string]any{"departure_city": "New York", "destination_city": "Los Angeles"}

	t.Run("accept", func(t *testing.T) {
		e := &elicitor{
			action:  mcp.ElicitationResponseActionAccept,
			content: map[string]any{"departure_date": "2025-06-01", "return_date": "2025-06-08"},
		}
		c := mcptesting.Connect(t, newServer(t, true).Base().MCP(), transport.WithElicitationHandler(e))

		text := mcptesting.Text(mcptesting.CallTool(t, c, "elicitation_plan_travel_weather", route))
		assert.Equal(t, "Help me plan weather considerations for your trip from New York to Los Angeles", e.message)
		assert.Contains(t, text, "Route: New York → Los Angeles")
		assert.Contains(t, text, "Dates: 2025-06-01 to 2025-06-08")
		assert.Contains(t, text, "Activity focus: general")
		assert.Contains(t, text, "Weather sensitivity: moderate")
	})

	for _, action := range []mcp.ElicitationResponseAction{mcp.ElicitationResponseActionDecline, mcp.ElicitationResponseActionCancel} {
		t.Run(string(action), func(t *testing.T) {
			c := mcptesting.Connect(t, newServer(t, true).Base().MCP(), transport.WithElicitationHandler(&elicitor{action: action}))
			text := mcptesting.Text(mcptesting.CallTool(t, c, "elicitation_plan_travel_weather", route))
			assert.Equal(t, "Travel planning cancelled", text)
		})
	}
}

func TestRoots(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c := mcptesting.Connect(t, newServer(t, true).Base().MCP(), transport.WithRootsHandler(rootsLister(nil)))
		assert.Equal(t, "No project roots found", mcptesting.Text(mcptesting.CallTool(t, c, "roots_get_project_roots", nil)))
	})

	t.Run("some", func(t *testing.T) {
		roots := rootsLister{{URI: "file:///home/user/projects/tower"}, {URI: "file:///home/user/projects/facade"}}
		c := mcptesting.Connect(t, newServer(t, true).Base().MCP(), transport.WithRootsHandler(roots))
		assert.Equal(t,
			"Project roots: file:///home/user/projects/tower, file:///home/user/projects/facade",
			mcptesting.Text(mcptesting.CallTool(t, c, "roots_get_project_roots", nil)))
	})
}

func TestResources(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP())

	for uri, want := range map[string]string{
		ConversionsURI: "c_to_f",
		CoverageURI:    "United States only",
	} {
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri
		res, err := c.ReadResource(context.Background(), req)
		require.NoError(t, err, uri)
		require.Len(t, res.Contents, 1)
		text, ok := res.Contents[0].(mcp.TextResourceContents)
		require.True(t, ok)
		assert.Contains(t, text.Text, want)
	}
}

func TestLocationPrompt(t *testing.T) {
	c := mcptesting.Connect(t, newServer(t, true).Base().MCP())

	req := mcp.GetPromptRequest{}
	req.Params.Name = PromptName
	req.Params.Arguments = map[string]string{"location": "Chicago", "report_type": "both"}
	res, err := c.GetPrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)

	text, ok := mcp.AsTextContent(res.Messages[0].Content)
	require.True(t, ok)
	assert.Contains(t, text.Text, "I need weather information for Chicago.")
	assert.Contains(t, text.Text, "get_current_weather(latitude, longitude)")
	assert.Contains(t, text.Text, "get_forecast(latitude, longitude)")
}
