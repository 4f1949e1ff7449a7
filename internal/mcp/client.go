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

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/internal/log"
)

const (
	clientName     = "rhmcp-chat"
	defaultTimeout = 5 * time.Minute
)

// Client wraps a connection to one MCP server.
type Client struct {
	// name is the server's advertised name, or the configured override
	name string
	url  string

	client     *client.Client
	serverInfo mcp.Implementation
	caps       mcp.ServerCapabilities

	// timeout is the default timeout for tool calls
	timeout time.Duration
}

// ClientConfig configures an MCP client connection.
type ClientConfig struct {
	// URL is the streamable HTTP endpoint, for example
	// http://localhost:8000/mcp
	URL string

	// Name overrides the name the server advertises
	Name string

	// BearerToken is sent as the Authorization header when set
	BearerToken string

	// Headers are extra request headers
	Headers map[string]string

	// Timeout bounds each tool call. Defaults to 5 minutes since a
	// Grasshopper solve can be slow.
	Timeout time.Duration

	// Handlers for server-initiated requests. Each one that is set is
	// advertised as a client capability.
	Sampling    client.SamplingHandler
	Elicitation client.ElicitationHandler
	Roots       client.RootsHandler

	// HTTPClient replaces the transport's client, mostly for tests
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient connects to the server at cfg.URL and runs the initialize
// handshake.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithServer(log.WithComponent(logger, "mcp-client"), cfg.URL)

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.BearerToken != "" {
		headers["Authorization"] = "Bearer " + cfg.BearerToken
	}

	opts := []transport.StreamableHTTPCOption{
		transport.WithHTTPHeaders(headers),
		transport.WithHTTPLogger(transportLogger{logger}),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPBasicClient(cfg.HTTPClient))
	}

	var clientOpts []client.ClientOption
	if cfg.Sampling != nil {
		clientOpts = append(clientOpts, client.WithSamplingHandler(cfg.Sampling))
	}
	if cfg.Elicitation != nil {
		clientOpts = append(clientOpts, client.WithElicitationHandler(cfg.Elicitation))
	}
	if cfg.Roots != nil {
		clientOpts = append(clientOpts, client.WithRootsHandler(cfg.Roots))
	}
	// Server requests arrive on the standalone GET stream.
	if len(clientOpts) > 0 {
		opts = append(opts, transport.WithContinuousListening())
	}

	trans, err := transport.NewStreamableHTTP(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	mcpClient := client.NewClient(trans, clientOpts...)

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	c := &Client{
		name:    cfg.Name,
		url:     cfg.URL,
		client:  mcpClient,
		timeout: timeout,
	}
	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	logger.Debug("connected",
		slog.String("name", c.name),
		slog.String("version", c.serverInfo.Version))
	return c, nil
}

func (c *Client) initialize(ctx context.Context) error {
	result, err := c.client.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		return fmt.Errorf("initialize request failed: %w", err)
	}

	c.serverInfo = result.ServerInfo
	c.caps = result.Capabilities
	if c.name == "" {
		c.name = result.ServerInfo.Name
	}
	return nil
}

// ListTools retrieves the tools the server offers.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	defs := make([]ToolDefinition, len(result.Tools))
	for i, tool := range result.Tools {
		schema, err := inputSchema(tool)
		if err != nil {
			return nil, fmt.Errorf("failed to read input schema for %s: %w", tool.Name, err)
		}
		defs[i] = ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		}
	}
	return defs, nil
}

// inputSchema prefers the raw schema and falls back to re-encoding the
// tool and picking out inputSchema.
func inputSchema(tool mcp.Tool) (json.RawMessage, error) {
	if len(tool.RawInputSchema) > 0 {
		return tool.RawInputSchema, nil
	}
	b, err := tool.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields["inputSchema"], nil
}

// CallTool runs a tool with the client's timeout.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*ToolCallResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	resp := &ToolCallResponse{
		IsError:    result.IsError,
		Structured: result.StructuredContent,
		Content:    make([]ContentItem, 0, len(result.Content)),
	}
	for _, content := range result.Content {
		item, err := contentItem(content)
		if err != nil {
			return nil, err
		}
		resp.Content = append(resp.Content, item)
	}
	return resp, nil
}

func contentItem(content mcp.Content) (ContentItem, error) {
	if text, ok := mcp.AsTextContent(content); ok {
		return ContentItem{Type: text.Type, Text: text.Text}, nil
	}
	if image, ok := mcp.AsImageContent(content); ok {
		return ContentItem{Type: image.Type, Data: image.Data, MimeType: image.MIMEType}, nil
	}

	// Anything else is decoded generically.
	b, err := json.Marshal(content)
	if err != nil {
		return ContentItem{}, fmt.Errorf("failed to marshal content: %w", err)
	}
	var item ContentItem
	if err := json.Unmarshal(b, &item); err != nil {
		return ContentItem{}, fmt.Errorf("failed to unmarshal content: %w", err)
	}
	return item, nil
}

// ListResources lists the server's resources. Servers without the
// resources capability have none.
func (c *Client) ListResources(ctx context.Context) ([]ResourceDefinition, error) {
	if c.caps.Resources == nil {
		return nil, nil
	}

	result, err := c.client.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	resources := make([]ResourceDefinition, len(result.Resources))
	for i, r := range result.Resources {
		resources[i] = ResourceDefinition{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MimeType:    r.MIMEType,
		}
	}
	return resources, nil
}

// ReadResource reads one resource.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]ResourceContent, error) {
	if c.caps.Resources == nil {
		return nil, fmt.Errorf("server %s does not support resources", c.name)
	}

	result, err := c.client.ReadResource(ctx, mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: uri},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}

	contents := make([]ResourceContent, 0, len(result.Contents))
	for _, content := range result.Contents {
		if text, ok := mcp.AsTextResourceContents(content); ok {
			contents = append(contents, ResourceContent{URI: text.URI, MimeType: text.MIMEType, Text: text.Text})
		} else if blob, ok := mcp.AsBlobResourceContents(content); ok {
			contents = append(contents, ResourceContent{URI: blob.URI, MimeType: blob.MIMEType, Blob: blob.Blob})
		}
	}
	return contents, nil
}

// Name is the server's name.
func (c *Client) Name() string { return c.name }

// URL is the endpoint the client is connected to.
func (c *Client) URL() string { return c.url }

// ServerInfo is what the server reported at initialize.
func (c *Client) ServerInfo() mcp.Implementation { return c.serverInfo }

// Ping checks that the server is still responsive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		if err == io.EOF {
			return fmt.Errorf("server connection closed")
		}
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close MCP client: %w", err)
	}
	return nil
}

// transportLogger routes mcp-go's transport logging into slog at debug
// level so reconnect noise stays out of the chat.
type transportLogger struct {
	logger *slog.Logger
}

func (l transportLogger) Infof(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l transportLogger) Errorf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.Bool("error", true))
}
