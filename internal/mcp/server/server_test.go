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

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aectech/rhcompute-mcp/internal/auth"
	mcptesting "github.com/aectech/rhcompute-mcp/internal/mcp/testing"
)

func newEchoServer(t *testing.T, cfg Config) *Base {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	b := New(cfg)
	b.MCP().AddTool(mcp.NewTool("echo", mcp.WithString("msg")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return JSONResult(map[string]any{"msg": req.GetString("msg", "")}), nil
		})
	b.MCP().AddTool(mcp.NewTool("boom"),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			panic("boom")
		})
	return b
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult(`bad "thing"`)
	assert.True(t, res.IsError)
	assert.JSONEq(t, `{"error":"bad \"thing\""}`, mcptesting.Text(res))
}

func TestJSONResult(t *testing.T) {
	res := JSONResult(map[string]any{"status": "success", "n": 2})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"status":"success","n":2}`, mcptesting.Text(res))
	assert.Contains(t, mcptesting.Text(res), "\n  ")
}

func TestValidatePath(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "a.gh")
	require.NoError(t, os.WriteFile(inside, nil, 0o644))

	t.Run("inside allowed root", func(t *testing.T) {
		got, err := ValidatePath(inside, []string{root})
		require.NoError(t, err)
		assert.Equal(t, "a.gh", filepath.Base(got))
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := ValidatePath(root+"/../etc/passwd", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "traversal")
	})

	t.Run("outside allowed root", func(t *testing.T) {
		_, err := ValidatePath(filepath.Join(t.TempDir(), "b.gh"), []string{root})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the allowed directories")
	})

	t.Run("no roots accepts missing file", func(t *testing.T) {
		got, err := ValidatePath(filepath.Join(root, "missing.gh"), nil)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ValidatePath("", nil)
		require.Error(t, err)
	})
}

func TestRateLimiter(t *testing.T) {
	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow())
	assert.Nil(t, NewRateLimiter(0, 5))

	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestToolMiddleware(t *testing.T) {
	b := newEchoServer(t, Config{RateLimit: 0.001, RateBurst: 2})
	c := mcptesting.Connect(t, b.MCP())

	res := mcptesting.CallTool(t, c, "echo", map[string]any{"msg": "hi"})
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", mcptesting.JSON(t, res)["msg"])

	res = mcptesting.CallTool(t, c, "echo", nil)
	assert.False(t, res.IsError)

	res = mcptesting.CallTool(t, c, "echo", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", mcptesting.JSON(t, res)["error"])

	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.calls.WithLabelValues("test", "echo", statusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.calls.WithLabelValues("test", "echo", statusLimited)))
}

func TestToolMiddleware_RecoversPanics(t *testing.T) {
	b := newEchoServer(t, Config{})
	c := mcptesting.Connect(t, b.MCP())

	req := mcp.CallToolRequest{}
	req.Params.Name = "boom"
	_, err := c.CallTool(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	res := mcptesting.CallTool(t, c, "echo", map[string]any{"msg": "still up"})
	assert.Equal(t, "still up", mcptesting.JSON(t, res)["msg"])
}

func TestHandler_Auth(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	b := newEchoServer(t, Config{AuthSecret: secret, Metrics: true})
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)

	initBody := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`
	post := func(token string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(initBody))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post("")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	token, err := auth.Generate("chat", nil, auth.Config{Secret: secret})
	require.NoError(t, err)
	resp = post(token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

func TestRun_UnknownTransport(t *testing.T) {
	b := New(Config{Name: "test", Transport: "carrier-pigeon"})
	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestAddr(t *testing.T) {
	b := New(Config{Name: "test", Host: "127.0.0.1", Port: 8001})
	assert.Equal(t, "127.0.0.1:8001", b.Addr())
}
