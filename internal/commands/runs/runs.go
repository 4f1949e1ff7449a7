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

// Package runs implements rhmcp runs, which shows the Grasshopper run
// history recorded by the rhino server.
package runs

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/runs"
)

// NewCommand creates the runs command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect Grasshopper run history",
		Long: `Inspect the Grasshopper evaluations recorded by 'rhmcp serve rhino'.

History is only kept across restarts with the sqlite backend:
  runs:
    backend: sqlite`,
	}
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newShowCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), "runs list", list)
			}
			if len(list) == 0 {
				cmd.Println("No runs recorded")
				return nil
			}
			return printTable(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", runs.DefaultListLimit, "Maximum number of runs to show")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with its inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), "runs show", run)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", shared.Header.Render("Run"), run.ID)
			fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("tool:      "), run.Tool)
			fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("definition:"), run.Definition)
			fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("status:    "), shared.RenderStatus(run.Status == runs.StatusSuccess, string(run.Status)))
			fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("started:   "), run.StartedAt.Format(time.RFC3339))
			fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("duration:  "), run.Duration.Round(time.Millisecond))
			if run.OutputFile != "" {
				fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("output:    "), run.OutputFile)
			}
			if run.Error != "" {
				fmt.Fprintf(w, "  %s %s\n", shared.RenderLabel("error:     "), run.Error)
			}
			keys := make([]string, 0, len(run.Inputs))
			for k := range run.Inputs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s %s = %v\n", shared.RenderLabel("input:     "), k, run.Inputs[k])
			}
			return nil
		},
	}
}

func openStore() (runs.Store, error) {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := runs.Open(cfg.Runs.Backend, cfg.Runs.Path)
	if err != nil {
		return nil, shared.NewConfigError("failed to open run history", err)
	}
	return store, nil
}

func printTable(out io.Writer, list []*runs.Run) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOOL\tDEFINITION\tSTATUS\tSTARTED\tDURATION")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Tool,
			r.Definition,
			r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(time.Millisecond),
		)
	}
	return w.Flush()
}
