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

package chat

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aectech/rhcompute-mcp/internal/cli/format"
	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/pkg/agent"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
)

const thinking = "Thinking..."

// spinner is the part of shared.Spinner the display drives.
type spinner interface {
	Start(message string)
	Stop() time.Duration
	Active() bool
}

// display writes the chat transcript. Writes come from the REPL and from
// server requests arriving on the transport's goroutines, so every write
// takes outMu, and prompts take promptMu for their whole exchange.
type display struct {
	out     io.Writer
	spinner spinner
	styled  bool

	outMu    sync.Mutex
	promptMu sync.Mutex
}

func newDisplay(out io.Writer, sp spinner, styled bool) *display {
	return &display{out: out, spinner: sp, styled: styled}
}

func (d *display) printf(format string, args ...any) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	fmt.Fprintf(d.out, format, args...)
}

func (d *display) label(s string) string {
	if !d.styled {
		return s
	}
	return shared.Muted.Render(s)
}

func (d *display) notice(msg string) {
	if d.styled {
		msg = shared.StatusInfo.Render(msg)
	}
	d.printf("%s\n", msg)
}

func (d *display) warn(msg string) {
	d.printf("%s\n", shared.RenderWarn(msg))
}

// hold stops the spinner and keeps other prompts out until the returned
// release is called, which restarts the spinner if it was running.
func (d *display) hold() func() {
	d.promptMu.Lock()
	wasActive := d.spinner.Active()
	if wasActive {
		d.spinner.Stop()
	}
	return func() {
		if wasActive {
			d.spinner.Start(thinking)
		}
		d.promptMu.Unlock()
	}
}

// banner prints the model info line.
func (d *display) banner(p llm.Provider, servers []string, toolCount int) {
	d.printf("%s %s %s\n",
		d.bold("rhmcp chat"),
		d.label("model:"),
		fmt.Sprintf("%s/%s", p.Name(), p.Model()))
	if len(servers) > 0 {
		d.printf("%s %s\n", d.label("servers:"), strings.Join(servers, ", "))
	}
	d.printf("%s %d %s\n\n", d.label("tools:"), toolCount, d.label("(type /help for commands, /quit to exit)"))
}

func (d *display) bold(s string) string {
	if !d.styled {
		return s
	}
	return shared.Bold.Render(s)
}

// observe renders each step of a turn as it happens.
func (d *display) observe(step agent.Step) {
	d.promptMu.Lock()
	defer d.promptMu.Unlock()

	active := d.spinner.Active()
	if active {
		d.spinner.Stop()
	}

	switch step.Kind {
	case agent.StepText:
		text, err := format.Markdown(step.Text, d.styled)
		if err != nil {
			text = step.Text
		}
		d.printf("%s\n\n", text)

	case agent.StepToolUse:
		name := step.Tool
		if d.styled {
			name = shared.ToolName.Render(name)
		}
		d.printf("Using tool: %s\n", name)
		input, err := format.JSON(step.Input, d.styled)
		if err != nil {
			input = fmt.Sprint(step.Input)
		}
		d.printf("%s\n", indent(input))

	case agent.StepToolResult:
		status := step.Status
		if d.styled {
			status = shared.RenderStatus(step.Status == agent.StatusSuccess, status)
		}
		d.printf("Tool Result: %s\n", status)
		content, err := format.JSON(step.Content, d.styled)
		if err != nil {
			content = format.Sanitize(step.Content)
		}
		d.printf("%s\n\n", indent(content))
	}

	if active {
		d.spinner.Start(thinking)
	}
}

// usage prints the turn's token counts and elapsed time.
func (d *display) usage(turn *agent.Turn, elapsed time.Duration) {
	if turn == nil {
		return
	}
	d.printf("%s\n\n", d.label(fmt.Sprintf("[%d in / %d out tokens, %d iterations, %s]",
		turn.Usage.InputTokens,
		turn.Usage.OutputTokens,
		turn.Iterations,
		elapsed.Round(100*time.Millisecond))))
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
