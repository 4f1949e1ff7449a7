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

// Package definitions indexes the Grasshopper definitions under an assets
// directory and keeps the index fresh as files change.
package definitions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern matches Grasshopper definitions at any depth.
const Pattern = "**/*.{gh,ghx}"

// Definition is one Grasshopper file in the catalog.
type Definition struct {
	// Name is the file name without extension.
	Name string `json:"name"`

	// Path is absolute.
	Path string `json:"path"`

	// Rel is relative to the catalog root, slash separated.
	Rel string `json:"rel"`

	// Format is gh (binary) or ghx (XML).
	Format  string    `json:"format"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Catalog holds the last scan of a directory.
type Catalog struct {
	root string

	mu   sync.RWMutex
	defs []Definition
}

// NewCatalog returns a catalog rooted at dir. Call Scan to populate it.
func NewCatalog(dir string) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve assets dir: %w", err)
	}
	return &Catalog{root: abs}, nil
}

// Root is the absolute catalog directory.
func (c *Catalog) Root() string { return c.root }

// Scan re-reads the directory. A missing root yields an empty catalog.
func (c *Catalog) Scan() ([]Definition, error) {
	var defs []Definition

	if _, err := os.Stat(c.root); err == nil {
		matches, err := doublestar.Glob(os.DirFS(c.root), Pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.root, err)
		}
		for _, rel := range matches {
			full := filepath.Join(c.root, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil {
				continue
			}
			ext := filepath.Ext(rel)
			defs = append(defs, Definition{
				Name:    strings.TrimSuffix(filepath.Base(rel), ext),
				Path:    full,
				Rel:     rel,
				Format:  strings.TrimPrefix(strings.ToLower(ext), "."),
				Size:    info.Size(),
				ModTime: info.ModTime().UTC(),
			})
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Rel < defs[j].Rel })

	c.mu.Lock()
	c.defs = defs
	c.mu.Unlock()
	return c.List(), nil
}

// List returns a copy of the last scan.
func (c *Catalog) List() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Find looks a definition up by name, relative path or file name.
func (c *Catalog) Find(name string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.defs {
		if d.Name == name || d.Rel == name || filepath.Base(d.Rel) == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Contains reports whether path lies under the catalog root.
func (c *Catalog) Contains(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
