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

package builtin

import "github.com/aectech/rhcompute-mcp/pkg/tools"

// Register adds current_time, calculator and http_request to reg.
func Register(reg *tools.Registry, http *HTTPTool) error {
	if http == nil {
		http = NewHTTPTool()
	}
	for _, t := range []tools.Tool{NewClockTool(), NewCalculatorTool(), http} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
