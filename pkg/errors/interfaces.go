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

package errors

// UserVisibleError is implemented by errors that the CLI prints with a
// friendly message and a hint instead of the raw error chain.
type UserVisibleError interface {
	error

	// IsUserVisible reports whether the friendly form should be shown.
	IsUserVisible() bool

	// UserMessage is the short message for the terminal.
	UserMessage() string

	// Suggestion is an optional next step; empty when there is none.
	Suggestion() string
}

// ErrorClassifier lets retry logic and metrics bucket errors without
// matching on concrete types.
type ErrorClassifier interface {
	error

	// ErrorType is the category label ("upstream", "timeout").
	ErrorType() string

	// IsRetryable reports whether repeating the operation may succeed.
	IsRetryable() bool
}
