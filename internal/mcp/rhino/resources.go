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
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aectech/rhcompute-mcp/internal/definitions"
)

// DefinitionsURI lists the catalog as JSON.
const DefinitionsURI = "rhino://definitions"

func (s *Server) registerDefinitionsResource() {
	s.base.MCP().AddResource(mcp.NewResource(DefinitionsURI, "Grasshopper definitions",
		mcp.WithResourceDescription("Grasshopper definitions available in the assets directory"),
		mcp.WithMIMEType("application/json"),
	), s.readDefinitions)
}

func (s *Server) readDefinitions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.catalog.List(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      DefinitionsURI,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

// onDefinitionsChanged re-registers the resource, which tells connected
// clients the resource list changed.
func (s *Server) onDefinitionsChanged(defs []definitions.Definition) {
	s.logger.Info("definitions changed", "count", len(defs))
	s.registerDefinitionsResource()
}
