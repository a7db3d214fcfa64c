// Package rate provides the rate functions that drive continuous
// transitions: constants, compiled arithmetic expressions over place
// markings, and arbitrary Go functions.
package rate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pathwaylab/hybrid"
)

var (
	_ hybrid.RateFunc = (*Constant)(nil)
	_ hybrid.RateFunc = (*Expression)(nil)
	_ hybrid.RateFunc = (*Func)(nil)
)

// Constant is a fixed flow rate.
type Constant float64

func (c Constant) Rate(hybrid.Marking) (float64, error) {
	return float64(c), nil
}

func (c Constant) String() string {
	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

// Expression is an arithmetic expression over place markings, compiled
// once at construction. Place names are free variables; unknown places
// evaluate to 0 and are reported as an error at evaluation time.
type Expression struct {
	src     string
	program *vm.Program
}

// NewExpression compiles src. Compilation failures are configuration
// errors and surface immediately.
func NewExpression(src string) (*Expression, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("rate expression %q: %w", src, err)
	}
	return &Expression{src: src, program: program}, nil
}

func (e *Expression) Rate(m hybrid.Marking) (float64, error) {
	out, err := expr.Run(e.program, m.ValueMap())
	if err != nil {
		return 0, fmt.Errorf("rate expression %q: %w", e.src, err)
	}
	v, err := toFloat(out)
	if err != nil {
		return 0, fmt.Errorf("rate expression %q: %w", e.src, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("rate expression %q: result %v is not finite", e.src, v)
	}
	return v, nil
}

func (e *Expression) String() string { return e.src }

// Func adapts a plain function to a rate function.
type Func func(m hybrid.Marking) (float64, error)

func (f Func) Rate(m hybrid.Marking) (float64, error) {
	return f(m)
}

func (f Func) String() string { return "func" }

// Parse reads a rate declaration as written in net files: a bare number
// is a constant, anything else is compiled as an expression.
func Parse(src string) (hybrid.RateFunc, error) {
	if v, err := strconv.ParseFloat(src, 64); err == nil {
		return Constant(v), nil
	}
	return NewExpression(src)
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("result %v (%T) is not numeric", v, v)
}
