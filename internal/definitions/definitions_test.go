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

package definitions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("gh"), 0o644))
}

func TestCatalog_Scan(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "WavePatternFromSurface.gh"))
	touch(t, filepath.Join(root, "towers", "Tower.ghx"))
	touch(t, filepath.Join(root, "notes.txt"))

	c, err := NewCatalog(root)
	require.NoError(t, err)

	defs, err := c.Scan()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "WavePatternFromSurface.gh", defs[0].Rel)
	assert.Equal(t, "gh", defs[0].Format)
	assert.Equal(t, "towers/Tower.ghx", defs[1].Rel)
	assert.Equal(t, "Tower", defs[1].Name)
	assert.Equal(t, "ghx", defs[1].Format)

	d, ok := c.Find("Tower")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "towers", "Tower.ghx"), d.Path)

	_, ok = c.Find("Missing")
	assert.False(t, ok)
}

func TestCatalog_MissingRoot(t *testing.T) {
	c, err := NewCatalog(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	defs, err := c.Scan()
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestCatalog_Contains(t *testing.T) {
	root := t.TempDir()
	c, err := NewCatalog(root)
	require.NoError(t, err)

	assert.True(t, c.Contains(filepath.Join(root, "a", "b.gh")))
	assert.False(t, c.Contains(filepath.Join(root, "..", "b.gh")))
	assert.False(t, c.Contains(filepath.Join(root+"x", "b.gh")))
}

func TestWatcher_RescansOnChange(t *testing.T) {
	root := t.TempDir()
	c, err := NewCatalog(root)
	require.NoError(t, err)
	_, err = c.Scan()
	require.NoError(t, err)

	changed := make(chan []Definition, 4)
	w, err := NewWatcher(WatcherConfig{
		Catalog:       c,
		DebounceDelay: 20 * time.Millisecond,
		OnChange:      func(defs []Definition) { changed <- defs },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})

	touch(t, filepath.Join(root, "Box.gh"))

	select {
	case defs := <-changed:
		require.Len(t, defs, 1)
		assert.Equal(t, "Box", defs[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}
