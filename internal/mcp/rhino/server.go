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

// Package rhino is the MCP server that fronts Rhino.Compute: plugin and
// version lookups, Grasshopper definition I/O and evaluation, and a
// catalog of the definitions shipped in the assets directory.
package rhino

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/internal/compute"
	"github.com/aectech/rhcompute-mcp/internal/definitions"
	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	"github.com/aectech/rhcompute-mcp/internal/runs"
)

// Name is advertised to MCP clients.
const Name = "Simple MCP with Rhino.Compute"

// DefaultPort is the streamable HTTP port.
const DefaultPort = 8001

// WaveDefinition is the definition run by run_wave_pattern_from_surface,
// relative to the assets dir.
const WaveDefinition = "WavePatternFromSurface.gh"

const instructions = `Tools for a Rhino.Compute server. Call read_grasshopper_inputs_outputs before run_grasshopper_tool to learn a definition's parameters. list_grasshopper_definitions shows what is available in the assets directory.`

// Config configures the rhino server.
type Config struct {
	Server mcpserver.Config

	// AssetsDir holds the bundled definitions.
	AssetsDir string

	// OutputDir receives saved geometry bundles.
	OutputDir string

	// AllowedPaths restricts which files tools may read. Empty allows any.
	AllowedPaths []string

	// WatchAssets refreshes the definition catalog when AssetsDir changes.
	WatchAssets bool
}

// Server is the rhino MCP server.
type Server struct {
	cfg     Config
	base    *mcpserver.Base
	compute *compute.Client
	runs    runs.Store
	catalog *definitions.Catalog
	logger  *slog.Logger

	now func() time.Time
}

// New builds the server and registers its tools and resources. store may
// be nil, in which case runs are kept in memory.
func New(cfg Config, cc *compute.Client, store runs.Store) (*Server, error) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = Name
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Instructions == "" {
		cfg.Server.Instructions = instructions
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = "assets"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if store == nil {
		store = runs.NewMemoryStore()
	}

	catalog, err := definitions.NewCatalog(cfg.AssetsDir)
	if err != nil {
		return nil, err
	}

	base := mcpserver.New(cfg.Server)
	s := &Server{
		cfg:     cfg,
		base:    base,
		compute: cc,
		runs:    store,
		catalog: catalog,
		logger:  base.Logger(),
		now:     time.Now,
	}

	if _, err := catalog.Scan(); err != nil {
		s.logger.Warn("failed to scan assets", "dir", catalog.Root(), "error", err)
	}

	s.registerTools()
	s.registerDefinitionsResource()
	return s, nil
}

// Base returns the underlying server.
func (s *Server) Base() *mcpserver.Base { return s.base }

// Run serves until ctx is cancelled, watching the assets dir if configured.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.WatchAssets {
		w, err := definitions.NewWatcher(definitions.WatcherConfig{
			Catalog:  s.catalog,
			OnChange: s.onDefinitionsChanged,
			Logger:   s.logger,
		})
		if err != nil {
			s.logger.Warn("assets watcher disabled", "error", err)
		} else {
			w.Start(ctx)
			defer w.Close()
		}
	}
	return s.base.Run(ctx)
}

func (s *Server) registerTools() {
	m := s.base.MCP()

	m.AddTool(mcp.NewTool("get_rhinocompute_version_details",
		mcp.WithDescription(`Retrieves version information from the connected Rhino.Compute server.

Use this tool when you need to verify that Rhino.Compute is running, check compatibility, or confirm the Rhino/Compute build before running Grasshopper definitions.

Returns {"status": "success", "version_info": {...}} or {"error": "..."}.`),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleVersion)

	m.AddTool(mcp.NewTool("get_installed_rhino_plugins",
		mcp.WithDescription(`Returns a list of Rhino plugins installed on the Rhino.Compute server.

Use this tool when checking server capabilities, diagnosing missing plugins, or validating that a Grasshopper or Rhino workflow will run correctly.

Returns {"status": "success", "plugins": [...]} or {"error": "..."}.`),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleRhinoPlugins)

	m.AddTool(mcp.NewTool("get_installed_grasshopper_plugins",
		mcp.WithDescription(`Returns a list of Grasshopper plugins installed on the Rhino.Compute server.

Use this tool when checking server capabilities, diagnosing missing plugins, or validating that a Grasshopper or Rhino workflow will run correctly.

Returns {"status": "success", "plugins": [...]} or {"error": "..."}.`),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGrasshopperPlugins)

	m.AddTool(mcp.NewTool("read_grasshopper_inputs_outputs",
		mcp.WithDescription(`Reads the inputs and outputs of a Grasshopper definition using Rhino.Compute's /io endpoint.

Use this tool when you want to understand what parameters a .gh/.ghx file expects before running it.

Returns {"status": "success", "path", "description", "inputs", "outputs", "icon"} or {"error": "..."}.`),
		mcp.WithString("pointer", mcp.Required(),
			mcp.Description("Absolute or relative path to a .gh or .ghx Grasshopper file")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleReadIO)

	m.AddTool(mcp.NewTool("run_grasshopper_tool",
		mcp.WithDescription(`Runs a Grasshopper definition via Rhino.Compute and saves the resulting geometry.

Returns {"status": "success", "pointer", "output_file"} or {"error": "..."}.`),
		mcp.WithString("pointer", mcp.Required(),
			mcp.Description("Absolute path to the .gh or .ghx definition file")),
		mcp.WithObject("inputs", mcp.Required(),
			mcp.Description("Input names and their values")),
	), s.handleRunDefinition)

	m.AddTool(mcp.NewTool("run_wave_pattern_from_surface",
		mcp.WithDescription(`Generates a wave pattern on a surface by evaluating the Grasshopper definition 'WavePatternFromSurface.gh' through Rhino.Compute.

Use this tool when you want to take an existing surface from a saved model and apply a parametric wave pattern created in Grasshopper. The first object in the file is used as the input surface.

Returns {"status": "success", "output_file"} or {"error": "..."}.`),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Path to a saved model ("+compute.BundleExt+") whose first object is a surface")),
	), s.handleWavePattern)

	m.AddTool(mcp.NewTool("list_grasshopper_definitions",
		mcp.WithDescription("Lists the Grasshopper definitions (.gh, .ghx) available in the assets directory."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListDefinitions)

	m.AddTool(mcp.NewTool("list_grasshopper_runs",
		mcp.WithDescription("Lists recent Grasshopper evaluations, newest first, with their inputs, status and output file."),
		mcp.WithNumber("limit", mcp.DefaultNumber(runs.DefaultListLimit),
			mcp.Description("Maximum number of runs to return")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListRuns)
}

func (s *Server) wavePath() string {
	return compute.ResolvePath(filepath.Join(s.cfg.AssetsDir, WaveDefinition))
}
