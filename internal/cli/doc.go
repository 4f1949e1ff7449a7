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

/*
Package cli provides the root command for rhmcp.

Individual commands live in the internal/commands subpackages; this
package assembles them, registers the persistent flags and routes errors
to the right exit code.

# Command Tree

	rhmcp
	├── serve
	│   ├── rhino     Rhino.Compute MCP server
	│   └── weather   National Weather Service MCP server
	├── chat          Interactive LLM chat over MCP servers
	├── runs          Inspect recorded Grasshopper solves
	├── secrets       Manage API keys and the JWT secret
	└── version       Show version

# Global Flags

	--verbose, -v    Enable debug logging
	--quiet, -q      Only log errors
	--json           Output in JSON format
	--config         Path to config file

# Exit Codes

  - 0: Success
  - 1: General error
  - 2: Configuration error
  - 4: LLM provider error
  - 69: Required service unavailable
*/
package cli
