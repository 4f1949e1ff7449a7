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

// Package secrets implements rhmcp secrets, which manages API keys and the
// JWT signing secret.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aectech/rhcompute-mcp/internal/commands/shared"
	"github.com/aectech/rhcompute-mcp/internal/secrets"
)

// newResolver is replaced in tests.
var newResolver = secrets.Default

// NewCommand creates the secrets command for secret management.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage API keys and signing secrets",
		Long: `Manage secrets used by rhmcp.

Secrets are resolved in order:
  1. Environment variables (RHMCP_SECRET_<KEY>, or OPENAI_API_KEY,
     ANTHROPIC_API_KEY, RHINO_COMPUTE_KEY, RHMCP_JWT_SECRET), read-only
  2. System keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)
  3. Encrypted file ~/.config/rhmcp/secrets.enc, used when RHMCP_MASTER_KEY
     is set or ~/.config/rhmcp/master.key exists with mode 0600

Well-known keys:
  openai_api_key          OpenAI provider
  anthropic_api_key       Anthropic provider
  rhino_compute_api_key   RhinoComputeKey header sent to Rhino.Compute
  jwt_secret              Signs and checks bearer tokens on the MCP endpoint

Examples:
  rhmcp secrets set openai_api_key
  rhmcp secrets get openai_api_key
  rhmcp secrets delete openai_api_key`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newDeleteCommand())
	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret",
		Long: `Store a secret in the first writable backend.

The value is read from standard input when it is piped, otherwise from a
hidden prompt:
  echo "sk-..." | rhmcp secrets set openai_api_key`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validateSecretKey(key); err != nil {
				return err
			}

			value, err := readSecretValue(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to read secret value: %w", err)
			}
			if value == "" {
				return errors.New("secret value cannot be empty")
			}

			backend, err := newResolver().Set(cmd.Context(), key, value)
			if err != nil {
				if errors.Is(err, secrets.ErrBackendUnavailable) {
					return fmt.Errorf("%w\n\nSet the environment variable instead: export %s=<value>", err, secrets.EnvName(key))
				}
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), "secrets set", map[string]string{"key": key, "backend": backend})
			}
			cmd.Println(shared.RenderOK(fmt.Sprintf("Secret %q stored in %s", key, backend)))
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	var unmask bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show a secret value",
		Long: `Show a secret value and the backend it came from.

The value is masked unless --unmask is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resolver := newResolver()

			value, err := resolver.Get(cmd.Context(), key)
			if err != nil {
				if errors.Is(err, secrets.ErrSecretNotFound) {
					return fmt.Errorf("secret not found: %q\n\nSet it with: rhmcp secrets set %s", key, key)
				}
				return err
			}
			source, _ := resolver.Source(cmd.Context(), key)

			shown := value
			if !unmask {
				shown = maskSecret(value)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), "secrets get", map[string]string{
					"key":     key,
					"value":   shown,
					"backend": source,
				})
			}

			if unmask {
				cmd.Println(value)
				return nil
			}
			cmd.Printf("%s %s\n", shown, shared.Muted.Render("("+source+", use --unmask to show full value)"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unmask, "unmask", false, "Show full value (not masked)")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret",
		Long: `Remove a secret from every writable backend that has it.

Environment variables cannot be removed this way. Requires confirmation
unless --force is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if !force {
				if shared.IsNonInteractive() {
					return errors.New("refusing to delete without confirmation; pass --force")
				}
				confirmed := false
				prompt := &survey.Confirm{Message: fmt.Sprintf("Delete secret %q?", key)}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					cmd.Println("Deletion canceled")
					return nil
				}
			}

			if err := newResolver().Delete(cmd.Context(), key); err != nil {
				if errors.Is(err, secrets.ErrSecretNotFound) {
					return fmt.Errorf("secret not found in a writable backend: %q", key)
				}
				return err
			}
			cmd.Println(shared.RenderOK(fmt.Sprintf("Secret %q deleted", key)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

// readSecretValue reads from in when it is not a terminal, otherwise
// prompts on prompt with hidden input.
func readSecretValue(in io.Reader, prompt io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	fmt.Fprint(prompt, "Enter secret value (hidden): ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// maskSecret masks a secret value for display.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func validateSecretKey(key string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}
	if strings.ContainsAny(key, " \t") {
		return errors.New("secret key cannot contain spaces")
	}
	if strings.Contains(key, "\\") {
		return errors.New("secret key should use forward slashes (/), not backslashes (\\)")
	}
	return nil
}
