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

package secrets

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/aectech/rhcompute-mcp/internal/secrets"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate hides the caller's exported keys and secrets file so only the
// mock keychain and the variables a test sets are visible.
func isolate(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"OPENAI_API_KEY",
		"RHMCP_SECRET_OPENAI_API_KEY",
		"RHMCP_JWT_SECRET",
		"RHMCP_SECRET_JWT_SECRET",
		secrets.MasterKeyEnv,
	} {
		t.Setenv(name, "")
	}
}

func TestSecrets_Lifecycle(t *testing.T) {
	isolate(t)

	out, err := run(t, "sk-test-1234567890\n", "set", "openai_api_key")
	require.NoError(t, err)
	assert.Contains(t, out, `Secret "openai_api_key" stored in keychain`)

	out, err = run(t, "", "get", "openai_api_key")
	require.NoError(t, err)
	assert.Contains(t, out, "sk-t...7890")
	assert.NotContains(t, out, "sk-test-1234567890")

	out, err = run(t, "", "get", "openai_api_key", "--unmask")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234567890\n", out)

	_, err = run(t, "", "delete", "openai_api_key", "--force")
	require.NoError(t, err)

	_, err = run(t, "", "get", "openai_api_key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestSecrets_EnvIsReadOnly(t *testing.T) {
	isolate(t)
	t.Setenv("RHMCP_SECRET_JWT_SECRET", "from-env-secret-value")

	out, err := run(t, "", "get", "jwt_secret")
	require.NoError(t, err)
	assert.Contains(t, out, "(env,")

	_, err = run(t, "", "delete", "jwt_secret", "--force")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writable backend")
}

func TestSecrets_SetRejectsEmpty(t *testing.T) {
	isolate(t)
	_, err := run(t, "  \n", "set", "openai_api_key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd...6789", maskSecret("abcdef0123456789"))
}

func TestValidateSecretKey(t *testing.T) {
	assert.NoError(t, validateSecretKey("openai_api_key"))
	assert.Error(t, validateSecretKey(""))
	assert.Error(t, validateSecretKey("has space"))
	assert.Error(t, validateSecretKey(`a\b`))
}
