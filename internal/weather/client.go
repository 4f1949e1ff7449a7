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

// Package weather queries the US National Weather Service API and formats
// forecasts and observations as plain text.
package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aectech/rhcompute-mcp/pkg/httpclient"
)

const (
	// DefaultBaseURL is the NWS API root.
	DefaultBaseURL = "https://api.weather.gov"

	// DefaultUserAgent identifies the client to NWS, which rejects
	// requests without one.
	DefaultUserAgent = "weather-app/1.0"
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client is a National Weather Service client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a Client. Zero values select the defaults and a 10s timeout.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.UserAgent = cfg.UserAgent
	hc.Headers = map[string]string{
		"User-Agent": cfg.UserAgent,
		"Accept":     "application/geo+json",
	}
	httpClient, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger.With("component", "weather"),
	}, nil
}

// Get fetches url and decodes the JSON body. Any failure, including a
// non-200 status, yields nil; transport and decode errors are logged.
// Numbers are kept as json.Number so they render as NWS sent them.
func (c *Client) Get(ctx context.Context, url string) map[string]any {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "bad NWS url", "url", url, "error", err)
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "NWS request failed", "url", url, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.DebugContext(ctx, "NWS non-200 response", "url", url, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WarnContext(ctx, "NWS body read failed", "url", url, "error", err)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		c.logger.WarnContext(ctx, "NWS body is not JSON", "url", url, "error", err)
		return nil
	}
	return out
}

// PointsURL is the grid lookup for a coordinate.
func (c *Client) PointsURL(lat, lon float64) string {
	return fmt.Sprintf("%s/points/%s,%s", c.baseURL, formatCoord(lat), formatCoord(lon))
}

// ObservationsURL is the latest observation for a station.
func (c *Client) ObservationsURL(stationID string) string {
	return fmt.Sprintf("%s/stations/%s/observations/latest", c.baseURL, stationID)
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
