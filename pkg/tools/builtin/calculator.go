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

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aectech/rhcompute-mcp/pkg/errors"
	"github.com/aectech/rhcompute-mcp/pkg/tools"
)

// CalculatorTool evaluates arithmetic with expr-lang.
type CalculatorTool struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewCalculatorTool creates the calculator tool.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{cache: make(map[string]*vm.Program)}
}

func (t *CalculatorTool) Name() string { return "calculator" }

func (t *CalculatorTool) Description() string {
	return "Evaluate a mathematical expression. Supports + - * / % and ** (power), " +
		"the constants pi and e, and sqrt, pow, sin, cos, tan, asin, acos, atan, log, log10, log2, exp, abs, ceil, floor, round, min, max."
}

func (t *CalculatorTool) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"expression": {
					Type:        "string",
					Description: "Expression to evaluate, e.g. sqrt(2) * 10",
				},
			},
			Required: []string{"expression"},
		},
		Outputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"result": {Type: "string", Description: "The evaluated value"},
			},
		},
	}
}

func (t *CalculatorTool) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	expression, _ := inputs["expression"].(string)
	if expression == "" {
		return nil, &errors.ValidationError{
			Field:      "expression",
			Message:    "expression must be a non-empty string",
			Suggestion: "Pass the arithmetic to evaluate, e.g. 2 * pi * 3",
		}
	}

	program, err := t.compile(expression)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "expression",
			Message: fmt.Sprintf("failed to compile expression: %s", err.Error()),
		}
	}

	value, err := expr.Run(program, calculatorEnv)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	result, err := formatNumber(value)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"result": result}, nil
}

// compile compiles an expression and caches the result.
func (t *CalculatorTool) compile(expression string) (*vm.Program, error) {
	t.mu.RLock()
	if prog, ok := t.cache[expression]; ok {
		t.mu.RUnlock()
		return prog, nil
	}
	t.mu.RUnlock()

	opts := []expr.Option{expr.Env(calculatorEnv)}
	for name, fn := range calculatorFuncs {
		opts = append(opts, expr.Function(name, fn))
	}
	prog, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.cache[expression] = prog
	t.mu.Unlock()
	return prog, nil
}

var calculatorEnv = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

var calculatorFuncs = map[string]func(params ...any) (any, error){
	"sqrt":  unary(math.Sqrt),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"log2":  unary(math.Log2),
	"exp":   unary(math.Exp),
	"pow": func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments, got %d", len(params))
		}
		x, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(params[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(x, y), nil
	},
}

func unary(f func(float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(params))
		}
		x, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// formatNumber prints whole numbers without a fraction and rounds floats
// to 12 significant digits so 0.1+0.2 reads as 0.3.
func formatNumber(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("result is not a finite number")
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'g', 12, 64), nil
	case bool:
		return strconv.FormatBool(n), nil
	}
	return fmt.Sprint(v), nil
}
