// Package qualexpr wraps a base qualifier with a guard expression
// (package guard) that constrains the values it may generate, letting a
// manifest configure a qualifier's acceptable range without writing Go.
package qualexpr

import (
	"fmt"

	"github.com/stl-run/stl/guard"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// DefaultMaxAttempts bounds retrying Generate until the guard is satisfied.
const DefaultMaxAttempts = 100

// Config describes one guard-constrained qualifier: expr is evaluated with
// "value" bound to the base qualifier's freshly generated value and
// argNames[i] bound to args[i], and must evaluate to true for the
// generated value to be accepted.
type Config struct {
	Expr        string
	ArgNames    []string
	MaxAttempts int
}

// New builds a registry.QualifierFunc that repeatedly calls base.Generate
// until the result satisfies cfg.Expr, or returns an error after
// cfg.MaxAttempts failed attempts. This is the qualexpr analogue of the
// historical Qualifier.Validate(Qualifier.Generate(*args), *args) == True
// invariant: rather than hand-writing Validate in Go, the invariant is
// expressed as a guard expression evaluated against the generated value.
func New(base registry.QualifierFunc, cfg Config) (registry.QualifierFunc, error) {
	compiled, err := guard.Compile(cfg.Expr)
	if err != nil {
		return nil, fmt.Errorf("qualexpr: %w", err)
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return func(args []value.Value) (value.Value, error) {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			v, err := base(args)
			if err != nil {
				return value.Value{}, err
			}
			ok, err := guard.EvalCompiled(compiled, bindings(cfg.ArgNames, args, v), nil)
			if err != nil {
				return value.Value{}, fmt.Errorf("qualexpr: %w", err)
			}
			if ok {
				return v, nil
			}
		}
		return value.Value{}, fmt.Errorf("qualexpr: %q never satisfied after %d attempt(s)", cfg.Expr, maxAttempts)
	}, nil
}

func bindings(argNames []string, args []value.Value, generated value.Value) map[string]interface{} {
	b := make(map[string]interface{}, len(argNames)+1)
	b["value"] = rawOf(generated)
	for i, name := range argNames {
		if i < len(args) {
			b[name] = rawOf(args[i])
		}
	}
	return b
}

func rawOf(v value.Value) interface{} {
	switch v.Kind {
	case value.KInt:
		return v.Int
	case value.KBool:
		return v.Bool
	case value.KString:
		return v.Str
	default:
		return v.String()
	}
}
