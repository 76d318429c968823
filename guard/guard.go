// Package guard compiles and evaluates the small boolean/arithmetic
// expression language a manifest uses to constrain the value a qualifier
// generates (see registry/qualexpr): bindings are always the scalar kinds
// a value.Value carries — int64, bool, or string — never structured data.
package guard

import (
	"fmt"
)

// Compiled represents a pre-compiled guard expression.
type Compiled struct {
	expr string
	ast  Node
}

// Compile parses a guard expression into a compiled form for repeated evaluation.
func Compile(expr string) (*Compiled, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	parser := NewParser(expr)
	ast, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &Compiled{
		expr: expr,
		ast:  ast,
	}, nil
}

// String returns the original expression.
func (c *Compiled) String() string {
	return c.expr
}

// AST returns the parsed abstract syntax tree.
func (c *Compiled) AST() Node {
	return c.ast
}

// Evaluate parses and evaluates a guard expression.
// Returns true if guard passes, false if it fails, error if invalid.
func Evaluate(expr string, bindings map[string]interface{}, funcs map[string]GuardFunc) (bool, error) {
	if expr == "" {
		return true, nil // Empty guard always passes
	}

	compiled, err := Compile(expr)
	if err != nil {
		return false, err
	}

	return EvalCompiled(compiled, bindings, funcs)
}

// EvalCompiled evaluates a pre-compiled guard expression.
func EvalCompiled(compiled *Compiled, bindings map[string]interface{}, funcs map[string]GuardFunc) (bool, error) {
	if compiled == nil || compiled.ast == nil {
		return true, nil // Nil guard always passes
	}

	ctx := &Context{
		Bindings: bindings,
		Funcs:    funcs,
	}

	if ctx.Bindings == nil {
		ctx.Bindings = make(map[string]interface{})
	}
	if ctx.Funcs == nil {
		ctx.Funcs = make(map[string]GuardFunc)
	}

	// Add built-in functions
	addBuiltins(ctx)

	result, err := Eval(compiled.ast, ctx)
	if err != nil {
		return false, err
	}

	// Result must be boolean
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("guard expression must evaluate to boolean, got %T", result)
	}

	return b, nil
}

// addBuiltins adds the guard language's built-in functions to ctx, unless
// a caller already registered a function under the same name. min/max/abs
// are the conveniences a qualifier-range guard actually needs, e.g.
// `value >= min(lo, hi) && value <= max(lo, hi)`.
func addBuiltins(ctx *Context) {
	addBuiltin(ctx, "min", func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("min() requires exactly 2 arguments")
		}
		a, aok := toInt64(args[0])
		b, bok := toInt64(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("min() arguments must be numeric")
		}
		if a < b {
			return a, nil
		}
		return b, nil
	})

	addBuiltin(ctx, "max", func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("max() requires exactly 2 arguments")
		}
		a, aok := toInt64(args[0])
		b, bok := toInt64(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("max() arguments must be numeric")
		}
		if a > b {
			return a, nil
		}
		return b, nil
	})

	addBuiltin(ctx, "abs", func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs() requires exactly 1 argument")
		}
		n, ok := toInt64(args[0])
		if !ok {
			return nil, fmt.Errorf("abs() argument must be numeric")
		}
		if n < 0 {
			return -n, nil
		}
		return n, nil
	})
}

func addBuiltin(ctx *Context, name string, fn GuardFunc) {
	if _, exists := ctx.Funcs[name]; !exists {
		ctx.Funcs[name] = fn
	}
}
