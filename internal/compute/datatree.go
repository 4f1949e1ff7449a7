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
	"strconv"
	"strings"
)

// DataItem is one value in a data tree branch. Data is always a string;
// non-string values travel JSON encoded.
type DataItem struct {
	Type string `json:"type,omitempty"`
	Data string `json:"data"`
}

// DataTree is a named Grasshopper input or output.
type DataTree struct {
	ParamName string                `json:"ParamName"`
	InnerTree map[string][]DataItem `json:"InnerTree"`
}

// NewDataTree returns an empty tree for the named parameter.
func NewDataTree(name string) DataTree {
	return DataTree{ParamName: name, InnerTree: map[string][]DataItem{}}
}

// Append sets the branch at path, e.g. [0 1] is "{0;1}", to items. A
// second call on the same path replaces the branch, as compute_rhino3d does.
func (t *DataTree) Append(path []int, items ...any) {
	branch := make([]DataItem, 0, len(items))
	for _, item := range items {
		branch = append(branch, DataItem{Data: encodeItem(item)})
	}
	t.InnerTree[BranchKey(path)] = branch
}

// AddParameter builds a single-value tree on branch {0}.
func AddParameter(name string, value any) DataTree {
	t := NewDataTree(name)
	t.Append([]int{0}, value)
	return t
}

// BranchKey formats a tree path.
func BranchKey(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return "{" + strings.Join(parts, ";") + "}"
}

func encodeItem(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
