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

package prompt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ValidateString validates a string input.
// Rejects null bytes, control characters, and oversized inputs.
func ValidateString(input string) error {
	if len(input) > MaxInputSize {
		return fmt.Errorf("input exceeds maximum size of %d bytes", MaxInputSize)
	}

	for i, r := range input {
		if r == 0 {
			return fmt.Errorf("input contains null byte at position %d", i)
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("input contains invalid control character at position %d", i)
		}
	}

	return nil
}

// ValidateNumber validates and parses a numeric input.
func ValidateNumber(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("input is empty")
	}

	num, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, fmt.Errorf("input must be a number")
	}

	return num, nil
}

// ValidateInteger validates and parses a whole number.
func ValidateInteger(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("input is empty")
	}

	n, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("input must be a whole number")
	}
	return n, nil
}

// ValidateBool validates and parses a boolean input.
// Accepts: y/yes/true/1 and n/no/false/0 (case-insensitive).
func ValidateBool(input string) (bool, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("input must be y/yes/true/1 or n/no/false/0")
	}
}

// ValidateEnum validates an enum selection.
func ValidateEnum(input string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options available")
	}

	// Check if input is a number (1-indexed selection)
	if idx, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		if idx < 1 || idx > len(options) {
			return "", fmt.Errorf("selection must be between 1 and %d", len(options))
		}
		return options[idx-1], nil
	}

	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(input), opt) {
			return opt, nil
		}
	}

	return "", fmt.Errorf("input must be a valid option or number between 1 and %d", len(options))
}

// Coerce converts raw text into the field's type. Empty input is allowed
// for optional fields and reported as ok=false so the caller can omit it.
func Coerce(f Field, raw string) (value any, ok bool, err error) {
	if strings.TrimSpace(raw) == "" {
		if f.Required {
			return nil, false, fmt.Errorf("%s is required", f.Label())
		}
		return nil, false, nil
	}

	switch f.Type {
	case InputTypeNumber:
		value, err = ValidateNumber(raw)
	case InputTypeInteger:
		value, err = ValidateInteger(raw)
	case InputTypeBoolean:
		value, err = ValidateBool(raw)
	case InputTypeEnum:
		value, err = ValidateEnum(raw, f.Options)
	default:
		value, err = raw, ValidateString(raw)
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}
