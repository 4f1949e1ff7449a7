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

// Package version implements the rhmcp version command.
package version

import (
	"runtime"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	Version         string   `json:"version"`
	Commit          string   `json:"commit"`
	BuildDate       string   `json:"build_date"`
	GoVersion       string   `json:"go_version"`
	ProtocolVersion string   `json:"mcp_protocol_version"`
	Providers       []string `json:"llm_providers"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and the MCP protocol version spoken by rhmcp.`,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	v, c, b := shared.GetVersion()

	info := VersionInfo{
		Version:         v,
		Commit:          c,
		BuildDate:       b,
		GoVersion:       runtime.Version(),
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		Providers:       llm.Registered(),
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "version", info)
	}

	cmd.Printf("rhmcp version %s\n", info.Version)
	cmd.Printf("  commit:       %s\n", info.Commit)
	cmd.Printf("  build date:   %s\n", info.BuildDate)
	cmd.Printf("  go:           %s\n", info.GoVersion)
	cmd.Printf("  mcp protocol: %s\n", info.ProtocolVersion)
	return nil
}
