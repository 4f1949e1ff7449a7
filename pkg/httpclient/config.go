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

package httpclient

import (
	"fmt"
	"time"
)

// Config controls the client returned by New.
type Config struct {
	// Timeout bounds a whole request including retries of the body read.
	Timeout time.Duration

	// RetryAttempts is the number of retries after the first try. Zero
	// disables the retry layer.
	RetryAttempts int

	// RetryBackoff is the delay before the first retry; later retries double it.
	RetryBackoff time.Duration

	// MaxBackoff caps the doubled delay.
	MaxBackoff time.Duration

	// UserAgent is sent on every request that does not set its own.
	UserAgent string

	// Headers are added to every request unless the request already has them.
	// Rhino.Compute keys and the NWS Accept header go here.
	Headers map[string]string

	// AllowNonIdempotentRetry lets POST requests retry, but only when the
	// server cannot have run them: refused connections and 502, 503 or 504.
	AllowNonIdempotentRetry bool
}

// DefaultConfig returns the settings shared by the compute and weather clients.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		RetryAttempts: 2,
		RetryBackoff:  200 * time.Millisecond,
		MaxBackoff:    5 * time.Second,
		UserAgent:     "rhmcp/1.0",
	}
}

// Validate rejects configs New cannot build a client from.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be >= 0, got %d", c.RetryAttempts)
	}
	if c.RetryAttempts > 0 {
		if c.RetryBackoff <= 0 {
			return fmt.Errorf("retry_backoff must be > 0 when retries are enabled")
		}
		if c.MaxBackoff < c.RetryBackoff {
			return fmt.Errorf("max_backoff (%v) must be >= retry_backoff (%v)", c.MaxBackoff, c.RetryBackoff)
		}
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required")
	}
	return nil
}
