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

import (
	"fmt"
	"time"
)

// ValidationError reports a tool argument or config value that failed a check.
type ValidationError struct {
	// Field is the argument or key that failed
	Field string

	// Message describes the failure
	Message string

	// Suggestion tells the caller how to fix it
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// NotFoundError reports a missing file, definition, run or tool.
type NotFoundError struct {
	// Resource is the kind of thing ("grasshopper file", "run", "tool")
	Resource string

	// ID is the path or identifier that was looked up
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError reports a failure from an external HTTP service such as
// Rhino.Compute, the National Weather Service or an LLM provider.
type UpstreamError struct {
	// Service names the upstream ("rhino.compute", "nws", "openai")
	Service string

	// StatusCode is the HTTP status, zero when the request never completed
	StatusCode int

	// Message is a short description, usually the start of the response body
	Message string

	// Cause is the transport or decode error, if any
	Cause error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := e.Service
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *UpstreamError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *UpstreamError) UserMessage() string {
	return fmt.Sprintf("request to %s failed", e.Service)
}

// Suggestion implements UserVisibleError.
func (e *UpstreamError) Suggestion() string {
	switch e.Service {
	case "rhino.compute":
		return "Check that Rhino.Compute is running and compute.url points at it"
	case "nws":
		return "The National Weather Service only covers US coordinates"
	}
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return "Check the API key with 'rhmcp secrets get'"
	}
	return ""
}

// ErrorType implements ErrorClassifier.
func (e *UpstreamError) ErrorType() string { return "upstream" }

// IsRetryable implements ErrorClassifier.
func (e *UpstreamError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// ConfigError reports a bad or missing configuration value.
type ConfigError struct {
	// Key is the dotted config key ("compute.url")
	Key string

	// Reason explains what is wrong
	Reason string

	// Cause is the underlying read or parse error
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *ConfigError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ConfigError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ConfigError) Suggestion() string {
	return "Edit the config file or pass --config to point at another one"
}

// TimeoutError reports an operation that ran past its deadline.
type TimeoutError struct {
	// Operation describes what timed out ("grasshopper solve")
	Operation string

	// Duration is the configured limit
	Duration time.Duration

	// Cause is the context or transport error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *TimeoutError) ErrorType() string { return "timeout" }

// IsRetryable implements ErrorClassifier.
func (e *TimeoutError) IsRetryable() bool { return true }
