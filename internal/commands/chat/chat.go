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

// Package chat implements rhmcp chat: a terminal conversation with an LLM
// that can call the tools of one or more MCP servers.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aectech/rhcompute-mcp/internal/auth"
	"github.com/aectech/rhcompute-mcp/internal/cli/format"
	"github.com/aectech/rhcompute-mcp/internal/cli/prompt"
	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/config"
	"github.com/aectech/rhcompute-mcp/internal/log"
	"github.com/aectech/rhcompute-mcp/internal/mcp"
	"github.com/aectech/rhcompute-mcp/internal/secrets"
	"github.com/aectech/rhcompute-mcp/internal/tracing"
	"github.com/aectech/rhcompute-mcp/pkg/agent"
	"github.com/aectech/rhcompute-mcp/pkg/llm"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
	"github.com/aectech/rhcompute-mcp/pkg/tools/approval"
	"github.com/aectech/rhcompute-mcp/pkg/tools/builtin"
)

// tokenTTL covers a long chat session.
const tokenTTL = 12 * time.Hour

type options struct {
	servers      []string
	provider     string
	model        string
	systemPrompt string
	tools        []string
	roots        []string
	confirmTools bool
	noBuiltins   bool
}

// NewCommand creates the chat command
func NewCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an LLM that can use MCP tools",
		Long: `Start an interactive chat. The model can call the tools of every
connected MCP server plus the builtin current_time, calculator and
http_request tools.

Servers that fail to connect are reported and skipped. When a server
asks the model to sample or asks you for input, you are prompted before
anything is sent.

Examples:
  rhmcp chat
  rhmcp chat --server http://localhost:8001/mcp --server http://localhost:8000/mcp
  rhmcp chat --provider openai --model gpt-4o-mini
  rhmcp chat --tool 'weather.*' --confirm-tools`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.servers, "server", "s", nil, "MCP server URL (repeatable, default from config)")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "LLM provider: ollama, openai, anthropic or bedrock")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model name (default depends on provider)")
	cmd.Flags().StringVar(&opts.systemPrompt, "system", "", "System prompt")
	cmd.Flags().StringArrayVarP(&opts.tools, "tool", "t", nil, "Only expose matching tools: a name, 'server.*' or '*' (repeatable)")
	cmd.Flags().StringArrayVar(&opts.roots, "root", nil, "Directory offered to servers as a root (repeatable, default: current directory)")
	cmd.Flags().BoolVar(&opts.confirmTools, "confirm-tools", false, "Ask before every tool call")
	cmd.Flags().BoolVar(&opts.noBuiltins, "no-builtins", false, "Do not register the builtin tools")

	return cmd
}

// apply copies flag overrides onto the chat config.
func (o options) apply(cfg *config.ChatConfig) {
	if len(o.servers) > 0 {
		cfg.Servers = o.servers
	}
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if o.systemPrompt != "" {
		cfg.SystemPrompt = o.systemPrompt
	}
}

func runChat(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	opts.apply(&cfg.Chat)

	// Info logs would interleave with the transcript.
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	logger := log.WithComponent(shared.NewLogger(cfg, os.Stderr), "chat")
	slog.SetDefault(logger)

	version, _, _ := shared.GetVersion()
	tracingCfg := cfg.Tracing
	tracingCfg.ServiceName = "rhmcp-chat"
	tracingCfg.ServiceVersion = version
	tp, err := tracing.Setup(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer tp.Shutdown(context.Background())

	resolver := secrets.Default()
	provider, err := newProvider(ctx, cfg.Chat, resolver, tp.Metrics())
	if err != nil {
		return shared.NewProviderError(fmt.Sprintf("failed to create %s provider", cfg.Chat.Provider), err)
	}

	interactive := !shared.IsNonInteractive()
	disp := newDisplay(cmd.OutOrStdout(), shared.NewSpinner(), format.IsTTY())
	reqs := &requests{term: disp, asker: surveyAsker{}, prompter: prompt.NewFormPrompter(interactive)}

	roots, err := resolveRoots(opts.roots)
	if err != nil {
		return err
	}
	token := bearerToken(ctx, cfg, resolver, logger)

	hub, errs := mcp.Connect(ctx, clientConfigs(cfg.Chat.Servers, token, provider, reqs, roots, logger), logger)
	defer hub.Close()
	for _, err := range errs {
		disp.warn(err.Error())
	}

	registry, err := buildRegistry(ctx, hub, opts, reqs, disp)
	if err != nil {
		return err
	}
	if len(hub.Clients()) == 0 && len(cfg.Chat.Servers) > 0 {
		disp.warn("No MCP servers connected; only builtin tools are available.")
	}

	ag := agent.New(provider, registry, agent.Config{
		SystemPrompt:  cfg.Chat.SystemPrompt,
		MaxIterations: cfg.Chat.MaxIterations,
		Temperature:   llm.Float(cfg.Chat.Temperature),
		MaxTokens:     llm.Int(cfg.Chat.MaxTokens),
	}).WithLogger(logger).WithObserver(disp.observe)

	servers := make([]string, 0, len(hub.Clients()))
	for _, c := range hub.Clients() {
		servers = append(servers, c.Name())
	}
	disp.banner(provider, servers, len(registry.List()))

	s := &session{agent: ag, hub: hub, registry: registry, display: disp, in: cmd.InOrStdin()}
	return s.run(ctx)
}

// clientConfigs builds one client config per URL. Every server shares the
// chat's provider for sampling and the terminal for elicitation.
func clientConfigs(urls []string, token string, provider llm.Provider, reqs *requests, roots []string, logger *slog.Logger) []mcp.ClientConfig {
	sampler := &mcp.Sampler{Provider: provider, Approve: reqs.approveSampling}
	configs := make([]mcp.ClientConfig, 0, len(urls))
	for _, u := range urls {
		configs = append(configs, mcp.ClientConfig{
			URL:         u,
			BearerToken: token,
			Sampling:    sampler,
			Elicitation: mcp.ElicitFunc(reqs.elicit),
			Roots:       mcp.Roots(roots),
			Logger:      logger,
		})
	}
	return configs
}

// buildRegistry registers the builtin and MCP tools, applies --tool
// filters and installs the approval prompt.
func buildRegistry(ctx context.Context, hub *mcp.Hub, opts options, reqs *requests, disp *display) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if !opts.noBuiltins {
		if err := builtin.Register(registry, nil); err != nil {
			return nil, err
		}
	}
	if _, err := hub.Register(ctx, registry); err != nil {
		disp.warn(err.Error())
	}

	if len(opts.tools) > 0 {
		names := registry.ExpandToolPatterns(opts.tools)
		filtered, err := registry.Filter(names)
		if err != nil {
			return nil, err
		}
		registry = filtered
	}

	if opts.confirmTools {
		registry.SetInterceptor(approval.NewInterceptor(approval.NewPromptApprover(reqs.askTool)))
	}
	return registry, nil
}

// bearerToken mints a token when the server auth secret resolves. An
// unset secret means the servers run without auth.
func bearerToken(ctx context.Context, cfg *config.Config, keys secretLookup, logger *slog.Logger) string {
	if cfg.Server.AuthSecretRef == "" {
		return ""
	}
	secret, err := keys.Lookup(ctx, cfg.Server.AuthSecretRef)
	if err != nil || secret == "" {
		if err != nil {
			logger.Warn("auth secret lookup failed", log.Error(err))
		}
		return ""
	}
	token, err := auth.Generate("rhmcp-chat", nil, auth.Config{Secret: []byte(secret), TTL: tokenTTL})
	if err != nil {
		logger.Warn("failed to mint bearer token", log.Error(err))
		return ""
	}
	return token
}

// resolveRoots makes the root directories absolute.
func resolveRoots(dirs []string) ([]string, error) {
	if len(dirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil
		}
		dirs = []string{wd}
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("invalid root %q: %w", d, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
