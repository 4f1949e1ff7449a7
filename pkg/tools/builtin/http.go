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

// Package builtin provides the tools the chat agent has without any MCP
// server: the clock, a calculator and an HTTP client.
package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aectech/rhcompute-mcp/internal/jq"
	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/httpclient"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// maxResponseBody caps what is read from a response; the model could not
// use more.
const maxResponseBody = 1 << 20

// HTTPTool provides HTTP request capabilities.
type HTTPTool struct {
	timeout time.Duration

	// allowedHosts restricts which hosts can be accessed (lowercase).
	// If empty, all hosts are allowed.
	allowedHosts []string

	// blockPrivateIPs blocks literal private and loopback addresses
	blockPrivateIPs bool

	logger *slog.Logger
	client *http.Client
	jq     *jq.Executor
}

// NewHTTPTool creates a new HTTP tool with default settings.
func NewHTTPTool() *HTTPTool {
	t := &HTTPTool{
		timeout:         30 * time.Second,
		blockPrivateIPs: true,
		logger:          slog.Default(),
		jq:              jq.NewExecutor(0, 0),
	}
	t.client = t.createHTTPClient()
	return t
}

// WithTimeout sets the HTTP request timeout.
func (t *HTTPTool) WithTimeout(timeout time.Duration) *HTTPTool {
	t.timeout = timeout
	t.client = t.createHTTPClient()
	return t
}

// WithAllowedHosts restricts requests to hosts.
func (t *HTTPTool) WithAllowedHosts(hosts []string) *HTTPTool {
	t.allowedHosts = make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			t.allowedHosts = append(t.allowedHosts, h)
		}
	}
	return t
}

// WithBlockPrivateIPs toggles the private address check.
func (t *HTTPTool) WithBlockPrivateIPs(block bool) *HTTPTool {
	t.blockPrivateIPs = block
	return t
}

// WithLogger sets the logger for blocked requests.
func (t *HTTPTool) WithLogger(logger *slog.Logger) *HTTPTool {
	t.logger = logger
	return t
}

// Name returns the tool identifier.
func (t *HTTPTool) Name() string {
	return "http_request"
}

// Description returns a human-readable description.
func (t *HTTPTool) Description() string {
	return "Make HTTP requests to external APIs. Optionally filter a JSON response with a jq expression."
}

// Schema returns the tool's input/output schema.
func (t *HTTPTool) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"method": {
					Type:        "string",
					Description: "HTTP method (GET, POST, PUT, DELETE, etc.)",
					Default:     "GET",
				},
				"url": {
					Type:        "string",
					Description: "The URL to request",
					Format:      "uri",
				},
				"headers": {
					Type:        "object",
					Description: "HTTP headers to include (optional)",
				},
				"body": {
					Type:        "string",
					Description: "Request body (optional, for POST/PUT)",
				},
				"jq": {
					Type:        "string",
					Description: "jq expression applied to a JSON response body, e.g. .properties.periods[0] (optional)",
				},
			},
			Required: []string{"url"},
		},
		Outputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"success":     {Type: "boolean", Description: "Whether the request succeeded (2xx status)"},
				"status_code": {Type: "number", Description: "HTTP status code"},
				"headers":     {Type: "object", Description: "Response headers"},
				"body":        {Type: "string", Description: "Response body, or the jq output"},
				"error":       {Type: "string", Description: "Error message if request failed"},
			},
		},
	}
}

// Execute performs an HTTP request.
func (t *HTTPTool) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	rawURL, ok := inputs["url"].(string)
	if !ok || rawURL == "" {
		return nil, &errors.ValidationError{
			Field:      "url",
			Message:    "url must be a string",
			Suggestion: "Provide a valid URL as a string",
		}
	}
	if err := t.validateURL(rawURL); err != nil {
		return nil, fmt.Errorf("URL validation failed: %w", err)
	}

	method := http.MethodGet
	if methodRaw, ok := inputs["method"]; ok && methodRaw != nil {
		m, ok := methodRaw.(string)
		if !ok {
			return nil, &errors.ValidationError{
				Field:      "method",
				Message:    "method must be a string",
				Suggestion: "Provide HTTP method as a string (GET, POST, PUT, DELETE, etc.)",
			}
		}
		if m != "" {
			method = strings.ToUpper(m)
		}
	}

	var body io.Reader
	if bodyRaw, ok := inputs["body"]; ok && bodyRaw != nil {
		switch b := bodyRaw.(type) {
		case string:
			body = bytes.NewBufferString(b)
		case map[string]interface{}, []interface{}:
			// Models often send a JSON object where a string was asked for.
			data, err := json.Marshal(b)
			if err != nil {
				return nil, &errors.ValidationError{Field: "body", Message: err.Error()}
			}
			body = bytes.NewReader(data)
		default:
			return nil, &errors.ValidationError{
				Field:      "body",
				Message:    "body must be a string",
				Suggestion: "Provide request body as a string",
			}
		}
	}

	filter, _ := inputs["jq"].(string)
	if filter != "" {
		if _, err := jq.Compile(filter); err != nil {
			return nil, &errors.ValidationError{Field: "jq", Message: err.Error()}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("failed to create request: %v", err),
		}, nil
	}

	if headersRaw, ok := inputs["headers"]; ok && headersRaw != nil {
		headers, ok := headersRaw.(map[string]interface{})
		if !ok {
			return nil, &errors.ValidationError{
				Field:      "headers",
				Message:    "headers must be an object",
				Suggestion: "Provide headers as a map of header names to values",
			}
		}
		for key, value := range headers {
			valueStr, ok := value.(string)
			if !ok {
				return nil, &errors.ValidationError{
					Field:      fmt.Sprintf("headers.%s", key),
					Message:    "header values must be strings",
					Suggestion: "Ensure all header values are strings",
				}
			}
			req.Header.Set(key, valueStr)
		}
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("request failed: %v", err),
		}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return map[string]interface{}{
			"success":     false,
			"status_code": resp.StatusCode,
			"error":       fmt.Sprintf("failed to read response body: %v", err),
		}, nil
	}

	headers := make(map[string]interface{})
	for key, values := range resp.Header {
		if len(values) == 1 {
			headers[key] = values[0]
		} else {
			headers[key] = values
		}
	}

	out := map[string]interface{}{
		"success":     resp.StatusCode >= 200 && resp.StatusCode < 300,
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        string(respBody),
	}

	if filter != "" {
		filtered, err := t.applyJQ(ctx, filter, respBody)
		if err != nil {
			out["success"] = false
			out["error"] = err.Error()
		} else {
			out["body"] = filtered
		}
	}
	return out, nil
}

// applyJQ runs filter over a JSON body and returns the result as JSON text.
func (t *HTTPTool) applyJQ(ctx context.Context, filter string, body []byte) (string, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("jq needs a JSON response: %w", err)
	}
	result, err := t.jq.Execute(ctx, filter, data)
	if err != nil {
		return "", fmt.Errorf("jq failed: %w", err)
	}
	if s, ok := result.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("jq result: %w", err)
	}
	return string(encoded), nil
}

// validateURL checks if a URL is allowed using proper URL parsing and hostname matching.
func (t *HTTPTool) validateURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		t.logger.Warn("invalid URL scheme blocked", "scheme", parsedURL.Scheme, "url", rawURL)
		return fmt.Errorf("invalid URL scheme: only http/https allowed")
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	if hostname == "" {
		return fmt.Errorf("invalid URL: empty hostname")
	}

	if t.blockPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil {
			if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				t.logger.Warn("private IP address blocked", "ip", hostname)
				return fmt.Errorf("requests to private IP addresses not allowed")
			}
		}
	}

	if len(t.allowedHosts) > 0 {
		for _, allowed := range t.allowedHosts {
			if hostname == allowed || strings.HasSuffix(hostname, "."+allowed) {
				return nil
			}
		}
		t.logger.Warn("hostname not in allowed list", "hostname", hostname)
		return fmt.Errorf("host not in allowed list")
	}
	return nil
}

// createHTTPClient builds on the shared httpclient package and re-checks
// every redirect target.
func (t *HTTPTool) createHTTPClient() *http.Client {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = t.timeout
	cfg.UserAgent = "rhmcp-http-tool/1.0"

	client, err := httpclient.New(cfg)
	if err != nil {
		client = &http.Client{Timeout: t.timeout}
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("too many redirects")
		}
		if err := t.validateURL(req.URL.String()); err != nil {
			return fmt.Errorf("redirect target not allowed: %w", err)
		}
		return nil
	}
	return client
}
