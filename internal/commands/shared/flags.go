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

// Package shared holds what every rhmcp command needs: the global flags,
// config and logger loading, exit codes and terminal styling.
package shared

// Persistent flags bound by the root command, and the build info set by
// main. Commands read them through the getters below.
var (
	verboseFlag bool
	quietFlag   bool
	jsonFlag    bool
	configFlag  string

	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterFlagPointers returns the verbose, quiet, json and config flag
// targets for the root command to bind.
func RegisterFlagPointers() (verbose, quiet, json *bool, config *string) {
	return &verboseFlag, &quietFlag, &jsonFlag, &configFlag
}

// SetVersion records the ldflags build info.
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

func GetVerbose() bool { return verboseFlag }

func GetQuiet() bool { return quietFlag }

// GetJSON reports whether --json was passed.
func GetJSON() bool { return jsonFlag }

// GetConfigPath returns --config, empty meaning the XDG default.
func GetConfigPath() string { return configFlag }

// SetConfigPathForTest points LoadConfig at path.
func SetConfigPathForTest(path string) { configFlag = path }

// SetJSONForTest toggles --json.
func SetJSONForTest(v bool) { jsonFlag = v }
