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
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/huh"
)

// FormPrompter implements Prompter with a single huh form.
type FormPrompter struct {
	interactive bool
}

// NewFormPrompter creates a form prompter.
func NewFormPrompter(interactive bool) *FormPrompter {
	return &FormPrompter{interactive: interactive}
}

// IsInteractive implements Prompter.
func (p *FormPrompter) IsInteractive() bool { return p.interactive }

// Collect implements Prompter. Every field is an input except booleans
// (confirm) and enums (select).
func (p *FormPrompter) Collect(ctx context.Context, title string, fields []Field) (map[string]any, error) {
	if !p.interactive {
		return nil, ErrNonInteractive
	}

	raw := make(map[string]*string, len(fields))
	bools := make(map[string]*bool)
	items := []huh.Field{huh.NewNote().Title(title)}

	for _, f := range fields {
		f := f
		switch f.Type {
		case InputTypeBoolean:
			b, _ := f.Default.(bool)
			bools[f.Name] = &b
			items = append(items, huh.NewConfirm().
				Title(f.Label()).
				Description(f.Description).
				Value(bools[f.Name]))

		case InputTypeEnum:
			s := defaultText(f)
			if s == "" && len(f.Options) > 0 {
				s = f.Options[0]
			}
			raw[f.Name] = &s
			items = append(items, huh.NewSelect[string]().
				Title(f.Label()).
				Description(f.Description).
				Options(huh.NewOptions(f.Options...)...).
				Value(raw[f.Name]))

		default:
			s := defaultText(f)
			raw[f.Name] = &s
			items = append(items, huh.NewInput().
				Title(f.Label()).
				Description(describe(f)).
				Value(raw[f.Name]).
				Validate(func(s string) error {
					_, _, err := Coerce(f, s)
					return err
				}))
		}
	}

	err := huh.NewForm(huh.NewGroup(items...)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return nil, ErrAborted
	}
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string, len(fields))
	for name, s := range raw {
		answers[name] = *s
	}
	for name, b := range bools {
		answers[name] = strconv.FormatBool(*b)
	}
	return coerceAll(fields, answers)
}

func describe(f Field) string {
	hint := string(f.Type)
	if !f.Required {
		hint += ", optional"
	}
	if f.Description == "" {
		return hint
	}
	return f.Description + " (" + hint + ")"
}
