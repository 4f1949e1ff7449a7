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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestEnvBackend(t *testing.T) {
	ctx := context.Background()
	env := NewEnvBackend()

	t.Run("prefixed variable", func(t *testing.T) {
		t.Setenv("RHMCP_SECRET_JWT_SECRET", "s3cret")
		v, err := env.Get(ctx, JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	})

	t.Run("provider alias", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		v, err := env.Get(ctx, OpenAIAPIKey)
		require.NoError(t, err)
		assert.Equal(t, "sk-test", v)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := env.Get(ctx, "nothing_here")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	assert.ErrorIs(t, env.Set(ctx, "k", "v"), ErrReadOnlyBackend)
	assert.Equal(t, "RHMCP_SECRET_PROVIDERS_OPENAI_API_KEY", EnvName("providers/openai/api-key"))
}

func TestResolver_WithMockKeychain(t *testing.T) {
	keyring.MockInit()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv(EnvName(AnthropicAPIKey), "")
	ctx := context.Background()

	r := NewResolver(NewKeychainBackend(), NewEnvBackend())

	backend, err := r.Set(ctx, AnthropicAPIKey, "from-keychain")
	require.NoError(t, err)
	assert.Equal(t, "keychain", backend)

	v, err := r.Get(ctx, AnthropicAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", v)

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	v, err = r.Get(ctx, AnthropicAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v, "env outranks keychain")

	src, ok := r.Source(ctx, AnthropicAPIKey)
	assert.True(t, ok)
	assert.Equal(t, "env", src)

	require.NoError(t, r.Delete(ctx, AnthropicAPIKey))
	assert.ErrorIs(t, r.Delete(ctx, AnthropicAPIKey), ErrSecretNotFound)
}

func TestResolver_Lookup(t *testing.T) {
	keyring.MockInit()
	r := Default()
	v, err := r.Lookup(context.Background(), "definitely_unset_key")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestResolver_NoBackends(t *testing.T) {
	_, err := NewResolver().Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "secrets.enc")
	fb := NewFileBackend(path, "correct horse")
	require.True(t, fb.Available())

	_, err := fb.Get(ctx, JWTSecret)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, fb.Set(ctx, JWTSecret, "s3cret"))
	require.NoError(t, fb.Set(ctx, RhinoComputeAPIKey, "rk"))

	v, err := fb.Get(ctx, JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	keys, err := fb.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{JWTSecret, RhinoComputeAPIKey}, keys)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = NewFileBackend(path, "wrong").Get(ctx, JWTSecret)
	assert.ErrorContains(t, err, "wrong master key")

	require.NoError(t, fb.Delete(ctx, JWTSecret))
	assert.ErrorIs(t, fb.Delete(ctx, JWTSecret), ErrSecretNotFound)
}

func TestFileBackend_Unavailable(t *testing.T) {
	fb := NewFileBackend(filepath.Join(t.TempDir(), "secrets.enc"), "")
	assert.False(t, fb.Available())
	assert.ErrorIs(t, fb.Set(context.Background(), "k", "v"), ErrBackendUnavailable)
}

func TestDefaultFileBackend_MasterKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(MasterKeyEnv, "")
	assert.False(t, DefaultFileBackend().Available())

	keyPath := filepath.Join(dir, "rhmcp", "master.key")
	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), 0o700))
	require.NoError(t, os.WriteFile(keyPath, []byte("from-file\n"), 0o644))
	assert.False(t, DefaultFileBackend().Available(), "group-readable key file is ignored")

	require.NoError(t, os.Chmod(keyPath, 0o600))
	fb := DefaultFileBackend()
	assert.True(t, fb.Available())
	assert.Equal(t, "from-file", string(fb.masterKey))

	t.Setenv(MasterKeyEnv, "from-env")
	assert.Equal(t, "from-env", string(DefaultFileBackend().masterKey))
}
