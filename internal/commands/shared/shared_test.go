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

package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rherrors "github.com/aectech/rhcompute-mcp/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"exit error", NewProviderError("no key", nil), ExitProviderError},
		{"wrapped exit error", fmt.Errorf("chat: %w", NewUnavailableError("down", nil)), ExitUnavailable},
		{"config error", &rherrors.ConfigError{Key: "chat.provider", Reason: "unknown"}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	err := NewConfigError("failed to load config", errors.New("bad yaml"))
	assert.Equal(t, "failed to load config: bad yaml", err.Error())
	assert.Equal(t, "bad yaml", errors.Unwrap(err).Error())
	assert.Equal(t, "plain", (&ExitError{Message: "plain"}).Error())
}

func TestPrintError_Suggestion(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("solve: %w", &rherrors.UpstreamError{Service: "rhino.compute", StatusCode: 500})
	PrintError(&buf, err)

	assert.Contains(t, buf.String(), "rhino.compute [HTTP 500]")
	assert.Contains(t, buf.String(), "Suggestion: Check that Rhino.Compute is running")
}

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EmitJSON(&buf, "runs list", []string{"a"}))

	var got JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "runs list", got.Command)
	assert.True(t, got.Success)
	assert.Equal(t, []any{"a"}, got.Data)

	buf.Reset()
	require.NoError(t, EmitJSONError(&buf, "runs list", errors.New("closed")))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, "closed", got.Error)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0s", formatElapsed(200*time.Millisecond))
	assert.Equal(t, "12s", formatElapsed(12*time.Second))
	assert.Equal(t, "2m", formatElapsed(2*time.Minute))
	assert.Equal(t, "1m 23s", formatElapsed(83*time.Second))
}

func TestSpinner_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{out: &buf}

	assert.Equal(t, time.Duration(0), s.Stop())
	s.Start("Thinking...")
	assert.True(t, s.Active())
	s.Start("ignored")
	s.Stop()
	assert.False(t, s.Active())
	assert.Equal(t, "Thinking...\n", buf.String())
}

func TestIsNonInteractive_Env(t *testing.T) {
	t.Setenv("RHMCP_NON_INTERACTIVE", "true")
	assert.True(t, IsNonInteractive())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  provider: openai\n"), 0o600))

	SetConfigPathForTest(path)
	t.Cleanup(func() { SetConfigPathForTest("") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Chat.Provider)
	assert.Equal(t, 2048, cfg.Chat.MaxTokens)
}
