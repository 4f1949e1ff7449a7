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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CreateFilePath returns a fresh bundle path in outputDir named after the
// definition at pointer, e.g. output/Tower_20250101_093000.3dm.json.
// outputDir is created if missing.
func CreateFilePath(outputDir, pointer string, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Base(pointer)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%s%s", base, now.Format("20060102_150405"), BundleExt)
	return filepath.Join(ResolvePath(outputDir), name), nil
}

// ResolvePath makes path absolute relative to the working directory.
func ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
