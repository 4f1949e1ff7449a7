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

// Package compute talks to a Rhino.Compute server and converts between
// Grasshopper data trees and Go values.
package compute

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	rherrors "github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/httpclient"
)

const serviceName = "rhino.compute"

// DefaultURL is where a local Rhino.Compute listens.
const DefaultURL = "http://localhost:6500/"

// Config configures a Client.
type Config struct {
	// URL is the server root. A trailing slash is added if missing.
	URL string

	// APIKey is sent as the RhinoComputeKey header.
	APIKey string

	// AuthToken is sent as a bearer token.
	AuthToken string

	// InfoTimeout bounds version and plugin lookups.
	InfoTimeout time.Duration

	// IOTimeout bounds /io requests.
	IOTimeout time.Duration

	// SolveTimeout bounds /grasshopper evaluations.
	SolveTimeout time.Duration
}

// Client is a Rhino.Compute HTTP client.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// IOResult describes a definition's parameters as reported by /io.
type IOResult struct {
	Description string `json:"description"`
	Inputs      []any  `json:"inputs"`
	Outputs     []any  `json:"outputs"`
	Icon        any    `json:"icon"`
}

// New builds a Client. Zero timeouts get the defaults of 5s, 10s and 300s.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if !strings.HasSuffix(cfg.URL, "/") {
		cfg.URL += "/"
	}
	if cfg.InfoTimeout == 0 {
		cfg.InfoTimeout = 5 * time.Second
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = 10 * time.Second
	}
	if cfg.SolveTimeout == 0 {
		cfg.SolveTimeout = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.SolveTimeout + 10*time.Second
	hc.AllowNonIdempotentRetry = true
	hc.Headers = map[string]string{"Content-Type": "application/json"}
	if cfg.APIKey != "" {
		hc.Headers["RhinoComputeKey"] = cfg.APIKey
	}
	if cfg.AuthToken != "" {
		hc.Headers["Authorization"] = "Bearer " + cfg.AuthToken
	}

	httpClient, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	return &Client{cfg: cfg, http: httpClient, logger: logger.With("component", "compute")}, nil
}

// URL returns the server root with its trailing slash.
func (c *Client) URL() string { return c.cfg.URL }

// Version returns the server's version document.
func (c *Client) Version(ctx context.Context) (any, error) {
	var out any
	err := c.do(ctx, http.MethodGet, "version", nil, c.cfg.InfoTimeout, &out)
	return out, err
}

// RhinoPlugins lists the Rhino plug-ins installed on the server.
func (c *Client) RhinoPlugins(ctx context.Context) (any, error) {
	var out any
	err := c.do(ctx, http.MethodGet, "plugins/rhino/installed", nil, c.cfg.InfoTimeout, &out)
	return out, err
}

// GrasshopperPlugins lists the Grasshopper plug-ins installed on the server.
func (c *Client) GrasshopperPlugins(ctx context.Context) (any, error) {
	var out any
	err := c.do(ctx, http.MethodGet, "plugins/gh/installed", nil, c.cfg.InfoTimeout, &out)
	return out, err
}

// IO asks the server for the inputs and outputs of the definition at
// pointer. The server reads the file itself, so pointer must be a path the
// server can see.
func (c *Client) IO(ctx context.Context, pointer string) (*IOResult, error) {
	body := map[string]any{"algo": nil, "pointer": pointer}

	var raw struct {
		Description *string `json:"Description"`
		Inputs      []any   `json:"Inputs"`
		Outputs     []any   `json:"Outputs"`
		Icon        any     `json:"Icon"`
	}
	if err := c.do(ctx, http.MethodPost, "io", body, c.cfg.IOTimeout, &raw); err != nil {
		return nil, err
	}

	res := &IOResult{
		Description: "Grasshopper definition",
		Inputs:      raw.Inputs,
		Outputs:     raw.Outputs,
		Icon:        raw.Icon,
	}
	if raw.Description != nil {
		res.Description = *raw.Description
	}
	if res.Inputs == nil {
		res.Inputs = []any{}
	}
	if res.Outputs == nil {
		res.Outputs = []any{}
	}
	return res, nil
}

// Evaluate solves the definition at definitionPath with the given input
// trees. The file is sent inline as base64 so the server does not need
// access to it.
func (c *Client) Evaluate(ctx context.Context, definitionPath string, trees []DataTree) (map[string]any, error) {
	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	if trees == nil {
		trees = []DataTree{}
	}

	body := map[string]any{
		"algo":    base64.StdEncoding.EncodeToString(data),
		"pointer": nil,
		"values":  trees,
	}

	start := time.Now()
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "grasshopper", body, c.cfg.SolveTimeout, &out); err != nil {
		return nil, rherrors.FromDeadline(err, "grasshopper solve", c.cfg.SolveTimeout)
	}
	c.logger.Debug("grasshopper solve finished",
		"definition", definitionPath,
		"inputs", len(trees),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, reader)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &rherrors.UpstreamError{Service: serviceName, Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &rherrors.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Message: "read response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &rherrors.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    snippet(payload),
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &rherrors.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON response",
			Cause:      err,
		}
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}
