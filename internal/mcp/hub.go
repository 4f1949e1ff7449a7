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
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/aectech/rhcompute-mcp/internal/log"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// ServerError reports a server the hub could not use.
type ServerError struct {
	URL string
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("MCP server %s: %v", e.URL, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// Hub holds the connected servers.
type Hub struct {
	clients []*Client
	logger  *slog.Logger
}

// Connect opens every server concurrently. Servers that fail are reported
// as *ServerError values and left out; the hub is usable with whatever
// connected, including nothing.
func Connect(ctx context.Context, configs []ClientConfig, logger *slog.Logger) (*Hub, []error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "mcp-hub")

	clients := make([]*Client, len(configs))
	errs := make([]error, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg ClientConfig) {
			defer wg.Done()
			if cfg.Logger == nil {
				cfg.Logger = logger
			}
			c, err := NewClient(ctx, cfg)
			if err != nil {
				errs[i] = &ServerError{URL: cfg.URL, Err: err}
				return
			}
			clients[i] = c
		}(i, cfg)
	}
	wg.Wait()

	h := &Hub{logger: logger}
	var failed []error
	for i := range configs {
		if errs[i] != nil {
			logger.Info("server unavailable", slog.String("url", configs[i].URL), log.Error(errs[i]))
			failed = append(failed, errs[i])
			continue
		}
		h.clients = append(h.clients, clients[i])
	}
	h.dedupeNames()
	return h, failed
}

// dedupeNames gives every client a distinct name, falling back to the URL
// host when a server did not advertise one.
func (h *Hub) dedupeNames() {
	seen := make(map[string]int, len(h.clients))
	for _, c := range h.clients {
		if c.name == "" {
			c.name = hostOf(c.url)
		}
		seen[c.name]++
		if n := seen[c.name]; n > 1 {
			c.name = c.name + "-" + strconv.Itoa(n)
		}
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}

// Clients returns the connected servers in configuration order.
func (h *Hub) Clients() []*Client {
	return h.clients
}

// Tools lists every server's tools as tools.Tool values. A name offered by
// more than one server is prefixed with the server name on each of them.
// A server whose listing fails is reported in the returned errors and
// skipped.
func (h *Hub) Tools(ctx context.Context) ([]tools.Tool, []error) {
	type listing struct {
		client *Client
		defs   []ToolDefinition
	}

	var (
		listings []listing
		errs     []error
	)
	counts := make(map[string]int)
	for _, c := range h.clients {
		defs, err := c.ListTools(ctx)
		if err != nil {
			errs = append(errs, &ServerError{URL: c.url, Err: err})
			continue
		}
		for _, d := range defs {
			counts[d.Name]++
		}
		listings = append(listings, listing{client: c, defs: defs})
	}

	var out []tools.Tool
	for _, l := range listings {
		for _, d := range l.defs {
			name := d.Name
			if counts[d.Name] > 1 {
				name = l.client.name + "." + d.Name
			}
			out = append(out, NewMCPTool(name, l.client.name, d, l.client))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, errs
}

// Register adds the hub's tools to reg and returns how many were added.
func (h *Hub) Register(ctx context.Context, reg *tools.Registry) (int, error) {
	list, errs := h.Tools(ctx)
	n := 0
	for _, t := range list {
		if err := reg.Register(t); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// Resources lists the resources of every server, keyed by server name.
func (h *Hub) Resources(ctx context.Context) (map[string][]ResourceDefinition, error) {
	out := make(map[string][]ResourceDefinition, len(h.clients))
	var errs []error
	for _, c := range h.clients {
		res, err := c.ListResources(ctx)
		if err != nil {
			errs = append(errs, &ServerError{URL: c.url, Err: err})
			continue
		}
		out[c.name] = res
	}
	return out, errors.Join(errs...)
}

// Close disconnects every server.
func (h *Hub) Close() error {
	var errs []error
	for _, c := range h.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
