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

package compute

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BundleExt is the file extension of saved geometry bundles.
const BundleExt = ".3dm.json"

const bundleVersion = 1

// ErrEmptyBundle is returned when a bundle holds no objects.
var ErrEmptyBundle = errors.New("bundle has no objects")

// Object is one encoded Rhino object in a bundle.
type Object struct {
	Kind Kind            `json:"kind"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Bundle is the on-disk form of a saved model.
type Bundle struct {
	Version int      `json:"version"`
	Created string   `json:"created"`
	Objects []Object `json:"objects"`
}

// SaveBundle writes the geometry among items to path and returns how many
// objects were kept. Numbers, strings and geometry of an unknown kind are
// skipped.
func SaveBundle(items []any, path string) (int, error) {
	b := Bundle{
		Version: bundleVersion,
		Created: time.Now().UTC().Format(time.RFC3339),
		Objects: []Object{},
	}
	for _, item := range items {
		g, ok := item.(*Geometry)
		if !ok || g.Kind == KindUnknown {
			continue
		}
		b.Objects = append(b.Objects, Object{Kind: g.Kind, Type: g.Type, Data: g.Data})
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write bundle: %w", err)
	}
	return len(b.Objects), nil
}

// ReadBundle returns the objects stored at path in order.
func ReadBundle(path string) ([]Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Version != bundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	return b.Objects, nil
}

// FirstObject returns the first object at path, or ErrEmptyBundle.
func FirstObject(path string) (Object, error) {
	objs, err := ReadBundle(path)
	if err != nil {
		return Object{}, err
	}
	if len(objs) == 0 {
		return Object{}, ErrEmptyBundle
	}
	return objs[0], nil
}
