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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/aectech/rhcompute-mcp/internal/cli/format"
	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/mcp"
	"github.com/aectech/rhcompute-mcp/pkg/agent"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

const helpText = `Commands:
  /help               Show this help
  /tools              List the tools the model can call
  /servers            List connected MCP servers
  /resources          List server resources
  /read <uri>         Print a resource
  /reset              Start a new conversation
  /quit, /exit        Leave the chat`

// session is one interactive chat.
type session struct {
	agent    *agent.Agent
	hub      *mcp.Hub
	registry *tools.Registry
	display  *display
	in       io.Reader
}

// run reads prompts until EOF or /quit.
func (s *session) run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		s.display.printf("%s ", s.youPrompt())
		if !scanner.Scan() {
			s.display.printf("\n")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if quit := s.command(ctx, line); quit {
				return nil
			}
		default:
			s.send(ctx, line)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *session) youPrompt() string {
	if s.display.styled {
		return shared.Prompt.Render("You:")
	}
	return "You:"
}

// send runs one turn. Ctrl+C interrupts the turn, not the chat.
func (s *session) send(ctx context.Context, prompt string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	start := time.Now()
	s.display.spinner.Start(thinking)
	turn, err := s.agent.Send(turnCtx, prompt)
	s.display.spinner.Stop()

	switch {
	case err == nil:
	case errors.Is(err, agent.ErrMaxIterations):
		s.display.warn(fmt.Sprintf("Stopped after %d tool rounds without a final answer.", turn.Iterations))
	case errors.Is(err, context.Canceled):
		s.display.warn("Interrupted.")
		return
	default:
		s.display.printf("%s\n\n", shared.RenderError(err.Error()))
		return
	}
	s.display.usage(turn, time.Since(start))
}

// command handles a slash command and reports whether to quit.
func (s *session) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		s.display.printf("%s\n\n", helpText)
	case "/reset":
		s.agent.Reset()
		s.display.notice("Conversation cleared.")
	case "/tools":
		s.listTools()
	case "/servers":
		s.listServers()
	case "/resources":
		s.listResources(ctx)
	case "/read":
		if len(fields) != 2 {
			s.display.warn("usage: /read <uri>")
			break
		}
		s.readResource(ctx, fields[1])
	default:
		s.display.warn(fmt.Sprintf("unknown command %s (try /help)", fields[0]))
	}
	return false
}

func (s *session) listTools() {
	list := s.registry.ListTools()
	if len(list) == 0 {
		s.display.printf("No tools available.\n\n")
		return
	}
	for _, t := range list {
		s.display.printf("  %s  %s\n", t.Name(), s.display.label(firstLine(t.Description())))
	}
	s.display.printf("\n")
}

func (s *session) listServers() {
	if s.hub == nil || len(s.hub.Clients()) == 0 {
		s.display.printf("No MCP servers connected.\n\n")
		return
	}
	for _, c := range s.hub.Clients() {
		info := c.ServerInfo()
		s.display.printf("  %s  %s %s\n", c.Name(), c.URL(), s.display.label(info.Name+" "+info.Version))
	}
	s.display.printf("\n")
}

func (s *session) listResources(ctx context.Context) {
	if s.hub == nil {
		s.display.printf("No MCP servers connected.\n\n")
		return
	}
	byServer, err := s.hub.Resources(ctx)
	if err != nil {
		s.display.warn(err.Error())
	}
	names := make([]string, 0, len(byServer))
	for name := range byServer {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s.display.printf("%s\n", s.display.bold(name))
		if len(byServer[name]) == 0 {
			s.display.printf("  %s\n", s.display.label("(none)"))
		}
		for _, r := range byServer[name] {
			s.display.printf("  %s  %s\n", r.URI, s.display.label(r.Name))
		}
	}
	s.display.printf("\n")
}

// readResource asks each server in turn until one has uri.
func (s *session) readResource(ctx context.Context, uri string) {
	if s.hub == nil {
		s.display.printf("No MCP servers connected.\n\n")
		return
	}
	var lastErr error
	for _, c := range s.hub.Clients() {
		contents, err := c.ReadResource(ctx, uri)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rc := range contents {
			switch {
			case rc.Text != "":
				text, ferr := format.JSON(rc.Text, s.display.styled)
				if ferr != nil {
					text = format.Sanitize(rc.Text)
				}
				s.display.printf("%s\n", text)
			case rc.Blob != "":
				s.display.printf("%s\n", s.display.label(fmt.Sprintf("(%s, %d bytes base64)", rc.MimeType, len(rc.Blob))))
			}
		}
		s.display.printf("\n")
		return
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("resource not found: %s", uri)
	}
	s.display.warn(lastErr.Error())
}
