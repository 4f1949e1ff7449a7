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

// Package weather is the MCP server over the US National Weather Service.
// Besides plain lookups it demonstrates the client-side MCP features:
// sampling, elicitation and roots.
package weather

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	"github.com/aectech/rhcompute-mcp/internal/weather"
)

// Name is advertised to MCP clients.
const Name = "Simple MCP Server-US Weather Service"

// DefaultPort is the streamable HTTP port.
const DefaultPort = 8000

// Resource URIs.
const (
	ConversionsURI = "weather://reference/conversions"
	CoverageURI    = "weather://reference/coverage"
)

// PromptName is the location prompt.
const PromptName = "weather-by-location"

// Sampling parameters for trend analysis.
const (
	trendMaxTokens   = 400
	trendTemperature = 0.2
	trendDefaultDays = 7
)

const coordinateNote = `

Note: This tool only works for coordinates within the United States as it uses the National Weather Service API.`

// Server is the weather MCP server.
type Server struct {
	base    *mcpserver.Base
	weather *weather.Client
	logger  *slog.Logger
}

// New builds the server and registers its tools, resources and prompt.
func New(cfg mcpserver.Config, wc *weather.Client) *Server {
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	base := mcpserver.New(cfg, server.WithElicitation(), server.WithRoots())
	base.MCP().EnableSampling()

	s := &Server{base: base, weather: wc, logger: base.Logger()}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Base returns the underlying server.
func (s *Server) Base() *mcpserver.Base { return s.base }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error { return s.base.Run(ctx) }

func coordinates() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("latitude", mcp.Required(),
			mcp.Description("Latitude of the US location (e.g. 40.7128 for NYC)")),
		mcp.WithNumber("longitude", mcp.Required(),
			mcp.Description("Longitude of the US location (e.g. -74.0060 for NYC)")),
	}
}

func (s *Server) registerTools() {
	m := s.base.MCP()

	m.AddTool(mcp.NewTool("get_forecast", append([]mcp.ToolOption{
		mcp.WithDescription("Get weather forecast for a US location. Only supports US coordinates." + coordinateNote),
		mcp.WithReadOnlyHintAnnotation(true),
	}, coordinates()...)...), s.handleForecast)

	m.AddTool(mcp.NewTool("get_current_weather", append([]mcp.ToolOption{
		mcp.WithDescription("Get current weather conditions for a US location. Only supports US coordinates." + coordinateNote),
		mcp.WithReadOnlyHintAnnotation(true),
	}, coordinates()...)...), s.handleCurrent)

	m.AddTool(mcp.NewTool("sampling_analyze_weather_trends", append([]mcp.ToolOption{
		mcp.WithDescription(`Analyze weather patterns and provide insights.

Requires sampling enabled on the MCP client. The forecast is sent to the client's model, which returns the analysis.`),
		mcp.WithNumber("days", mcp.DefaultNumber(trendDefaultDays),
			mcp.Description("Number of days to analyze (default is 7)")),
	}, coordinates()...)...), s.handleTrends)

	m.AddTool(mcp.NewTool("elicitation_plan_travel_weather",
		mcp.WithDescription(`Plan travel with detailed weather considerations.

Requires elicitation enabled on the MCP client. The user is asked for dates, activity type and weather sensitivity.`),
		mcp.WithString("departure_city", mcp.Required(), mcp.Description("Departure city (e.g. New York)")),
		mcp.WithString("destination_city", mcp.Required(), mcp.Description("Destination city (e.g. Los Angeles)")),
	), s.handleTravel)

	m.AddTool(mcp.NewTool("roots_get_project_roots",
		mcp.WithDescription(`Get the project roots from the client.

Requires roots enabled on the MCP client.`),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleRoots)
}

func (s *Server) handleForecast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, lon, errRes := latLon(req)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(s.weather.GetForecast(ctx, lat, lon)), nil
}

func (s *Server) handleCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, lon, errRes := latLon(req)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(s.weather.GetCurrentWeather(ctx, lat, lon)), nil
}

func (s *Server) handleTrends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, lon, errRes := latLon(req)
	if errRes != nil {
		return errRes, nil
	}
	days := req.GetInt("days", trendDefaultDays)

	forecast, ok := s.weather.ForecastData(ctx, lat, lon)
	if !ok {
		return mcp.NewToolResultText(weather.MsgNoForecastData), nil
	}

	sampleReq := mcp.CreateMessageRequest{}
	sampleReq.Messages = []mcp.SamplingMessage{{
		Role:    mcp.RoleUser,
		Content: mcp.NewTextContent(weather.TrendAnalysisPrompt(days, forecast)),
	}}
	sampleReq.MaxTokens = trendMaxTokens
	sampleReq.Temperature = trendTemperature

	res, err := s.base.MCP().RequestSampling(ctx, sampleReq)
	if err != nil {
		s.logger.WarnContext(ctx, "sampling failed", "error", err)
		return mcpserver.ErrorResult("Sampling failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(contentText(res.Content)), nil
}

func (s *Server) handleTravel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("departure_city")
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	to, err := req.RequireString("destination_city")
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}

	elicitReq := mcp.ElicitationRequest{}
	elicitReq.Params.Message = weather.TravelPlanMessage(from, to)
	elicitReq.Params.RequestedSchema = weather.TravelPreferencesSchema()

	res, err := s.base.MCP().RequestElicitation(ctx, elicitReq)
	if err != nil {
		s.logger.WarnContext(ctx, "elicitation failed", "error", err)
		return mcpserver.ErrorResult("Elicitation failed: " + err.Error()), nil
	}
	if res.Action != mcp.ElicitationResponseActionAccept {
		return mcp.NewToolResultText("Travel planning cancelled"), nil
	}

	prefs, err := weather.ParseTravelPreferences(res.Content)
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	return mcp.NewToolResultText(weather.TravelPlan(from, to, prefs)), nil
}

func (s *Server) handleRoots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.base.MCP().RequestRoots(ctx, mcp.ListRootsRequest{})
	if err != nil {
		s.logger.WarnContext(ctx, "roots request failed", "error", err)
		return mcpserver.ErrorResult("Roots request failed: " + err.Error()), nil
	}
	if res == nil || len(res.Roots) == 0 {
		return mcp.NewToolResultText("No project roots found"), nil
	}

	uris := make([]string, 0, len(res.Roots))
	for _, r := range res.Roots {
		uris = append(uris, r.URI)
	}
	return mcp.NewToolResultText("Project roots: " + strings.Join(uris, ", ")), nil
}

func (s *Server) registerResources() {
	m := s.base.MCP()
	m.AddResource(mcp.NewResource(ConversionsURI, "Unit conversions",
		mcp.WithResourceDescription("Unit conversion formulas for weather data"),
		mcp.WithMIMEType("application/json"),
	), jsonResource(ConversionsURI, weather.Conversions))
	m.AddResource(mcp.NewResource(CoverageURI, "API coverage",
		mcp.WithResourceDescription("NWS API coverage information"),
		mcp.WithMIMEType("application/json"),
	), jsonResource(CoverageURI, weather.Coverage))
}

func jsonResource(uri string, fn func() map[string]any) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(fn(), "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}}, nil
	}
}

func (s *Server) registerPrompts() {
	s.base.MCP().AddPrompt(mcp.NewPrompt(PromptName,
		mcp.WithPromptDescription("Get weather for a location by converting it to coordinates first"),
		mcp.WithArgument("location", mcp.RequiredArgument(),
			mcp.ArgumentDescription("City, address or place name")),
		mcp.WithArgument("report_type",
			mcp.ArgumentDescription("current, forecast or both (default current)")),
	), func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		location := req.Params.Arguments["location"]
		text := weather.LocationPrompt(location, req.Params.Arguments["report_type"])
		return mcp.NewGetPromptResult("Weather for "+location, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	})
}

func latLon(req mcp.CallToolRequest) (float64, float64, *mcp.CallToolResult) {
	lat, err := req.RequireFloat("latitude")
	if err != nil {
		return 0, 0, mcpserver.ErrorResult(err.Error())
	}
	lon, err := req.RequireFloat("longitude")
	if err != nil {
		return 0, 0, mcpserver.ErrorResult(err.Error())
	}
	return lat, lon, nil
}

// contentText pulls the text out of sampled content, which arrives as a
// TextContent in process and as a decoded map over the wire.
func contentText(content any) string {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	case map[string]any:
		if t, ok := c["text"].(string); ok {
			return t
		}
	case string:
		return c
	}
	return ""
}
