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

package rhino

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/internal/compute"
	mcpserver "github.com/aectech/rhcompute-mcp/internal/mcp/server"
	"github.com/aectech/rhcompute-mcp/internal/runs"
)

func (s *Server) handleVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.compute.Version(ctx)
	if err != nil {
		return contactError(err), nil
	}
	return mcpserver.JSONResult(map[string]any{"status": "success", "version_info": info}), nil
}

func (s *Server) handleRhinoPlugins(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plugins, err := s.compute.RhinoPlugins(ctx)
	if err != nil {
		return contactError(err), nil
	}
	return mcpserver.JSONResult(map[string]any{"status": "success", "plugins": plugins}), nil
}

func (s *Server) handleGrasshopperPlugins(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plugins, err := s.compute.GrasshopperPlugins(ctx)
	if err != nil {
		return contactError(err), nil
	}
	return mcpserver.JSONResult(map[string]any{"status": "success", "plugins": plugins}), nil
}

func (s *Server) handleReadIO(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pointer, err := req.RequireString("pointer")
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	path, errRes := s.existingFile(pointer, "Grasshopper file not found: '%s'")
	if errRes != nil {
		return errRes, nil
	}

	desc, err := s.compute.IO(ctx, path)
	if err != nil {
		return contactError(err), nil
	}
	return mcpserver.JSONResult(map[string]any{
		"status":      "success",
		"path":        path,
		"description": desc.Description,
		"inputs":      desc.Inputs,
		"outputs":     desc.Outputs,
		"icon":        desc.Icon,
	}), nil
}

func (s *Server) handleRunDefinition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pointer, err := req.RequireString("pointer")
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	inputs, ok := req.GetArguments()["inputs"].(map[string]any)
	if !ok {
		return mcpserver.ErrorResult("inputs must be an object of parameter names to values"), nil
	}
	path, errRes := s.existingFile(pointer, "Grasshopper file not found: '%s'")
	if errRes != nil {
		return errRes, nil
	}

	// JSON objects carry no order; sort so repeated calls send the same body.
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	trees := make([]compute.DataTree, 0, len(names))
	for _, name := range names {
		trees = append(trees, compute.AddParameter(name, inputs[name]))
	}

	run := &runs.Run{Tool: req.Params.Name, Definition: path, Inputs: inputs, StartedAt: s.now()}
	outFile, err := s.solve(ctx, path, path, trees)
	s.record(ctx, run, outFile, err)
	if err != nil {
		return mcpserver.ErrorResult("Failed to run Grasshopper definition: " + err.Error()), nil
	}
	return mcpserver.JSONResult(map[string]any{
		"status":      "success",
		"pointer":     path,
		"output_file": outFile,
	}), nil
}

func (s *Server) handleWavePattern(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("path")
	if err != nil {
		return mcpserver.ErrorResult(err.Error()), nil
	}
	path, errRes := s.existingFile(input, "Rhino file not found: '%s'")
	if errRes != nil {
		return errRes, nil
	}

	ghPath := s.wavePath()
	if _, err := os.Stat(ghPath); err != nil {
		return mcpserver.ErrorResult(fmt.Sprintf("Grasshopper file not found at '%s'", ghPath)), nil
	}

	surface, err := compute.FirstObject(path)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read geometry", "path", path, "error", err)
		return mcpserver.ErrorResult(fmt.Sprintf("Could not read geometry from '%s'", path)), nil
	}
	s.logger.InfoContext(ctx, "running wave pattern", "definition", ghPath, "surface", path, "type", surface.Type)

	trees := []compute.DataTree{compute.AddParameter("surface", string(surface.Data))}
	run := &runs.Run{
		Tool:       req.Params.Name,
		Definition: ghPath,
		Inputs:     map[string]any{"surface": path},
		StartedAt:  s.now(),
	}
	outFile, err := s.solve(ctx, ghPath, ghPath, trees)
	s.record(ctx, run, outFile, err)
	if err != nil {
		return mcpserver.ErrorResult("Failed to run wave pattern tool: " + err.Error()), nil
	}
	return mcpserver.JSONResult(map[string]any{"status": "success", "output_file": outFile}), nil
}

func (s *Server) handleListDefinitions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcpserver.JSONResult(map[string]any{
		"status":      "success",
		"root":        s.catalog.Root(),
		"definitions": s.catalog.List(),
	}), nil
}

func (s *Server) handleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.runs.List(ctx, req.GetInt("limit", runs.DefaultListLimit))
	if err != nil {
		return mcpserver.ErrorResult("Failed to list runs: " + err.Error()), nil
	}
	if list == nil {
		list = []*runs.Run{}
	}
	return mcpserver.JSONResult(map[string]any{"status": "success", "runs": list}), nil
}

// existingFile validates pointer against the allowed roots and checks it
// exists. notFound is a format string taking the resolved path.
func (s *Server) existingFile(pointer, notFound string) (string, *mcp.CallToolResult) {
	path, err := mcpserver.ValidatePath(pointer, s.cfg.AllowedPaths)
	if err != nil {
		return "", mcpserver.ErrorResult("Invalid path: " + err.Error())
	}
	if _, err := os.Stat(path); err != nil {
		return "", mcpserver.ErrorResult(fmt.Sprintf(notFound, path))
	}
	return path, nil
}

// solve evaluates definition, decodes the default branch and saves the
// geometry to a bundle named after nameFrom.
func (s *Server) solve(ctx context.Context, definition, nameFrom string, trees []compute.DataTree) (string, error) {
	output, err := s.compute.Evaluate(ctx, definition, trees)
	if err != nil {
		return "", err
	}
	decoded, err := compute.DecodeOutput(output, compute.DefaultTreePath)
	if err != nil {
		return "", err
	}
	outFile, err := compute.CreateFilePath(s.cfg.OutputDir, nameFrom, s.now())
	if err != nil {
		return "", err
	}
	n, err := compute.SaveBundle(decoded, outFile)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "saved geometry", "file", outFile, "objects", n, "items", len(decoded))
	return outFile, nil
}

func (s *Server) record(ctx context.Context, run *runs.Run, outFile string, err error) {
	run.Duration = time.Since(run.StartedAt)
	run.OutputFile = outFile
	run.Status = runs.StatusSuccess
	if err != nil {
		run.Status = runs.StatusFailed
		run.Error = err.Error()
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "failed to record run", "tool", run.Tool, "error", err)
	}
}

func contactError(err error) *mcp.CallToolResult {
	return mcpserver.ErrorResult("Failed to contact Rhino.Compute: " + err.Error())
}
