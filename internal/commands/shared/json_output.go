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
	"encoding/json"
	"io"
)

// JSONResponse is the envelope for --json output.
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EmitJSON writes data wrapped in a JSONResponse for command.
func EmitJSON(w io.Writer, command string, data any) error {
	return emit(w, JSONResponse{Version: "1.0", Command: command, Success: true, Data: data})
}

// EmitJSONError writes a failed JSONResponse for command.
func EmitJSONError(w io.Writer, command string, err error) error {
	return emit(w, JSONResponse{Version: "1.0", Command: command, Success: false, Error: err.Error()})
}

func emit(w io.Writer, response JSONResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
