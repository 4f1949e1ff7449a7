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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/aectech/rhcompute-mcp/internal/commands/chat"
	"github.com/aectech/rhcompute-mcp/internal/commands/runs"
	"github.com/aectech/rhcompute-mcp/internal/commands/secrets"
	"github.com/aectech/rhcompute-mcp/internal/commands/serve"
	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	versioncmd "github.com/aectech/rhcompute-mcp/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the rhmcp command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rhmcp",
		Short: "rhmcp - MCP servers for Rhino.Compute and a chat client",
		Long: `rhmcp runs Model Context Protocol servers that expose Rhino.Compute
Grasshopper definitions and National Weather Service forecasts as tools,
and a terminal chat client that lets an LLM call them.

Run 'rhmcp serve rhino' and 'rhmcp serve weather' to start the servers.
Run 'rhmcp chat' to talk to them.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/rhmcp/config.yaml)")

	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(chat.NewCommand())
	cmd.AddCommand(runs.NewCommand())
	cmd.AddCommand(secrets.NewCommand())
	cmd.AddCommand(versioncmd.NewVersionCommand())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
