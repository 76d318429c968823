// Package check type-checks a linked program.Program: it re-derives the
// scope of transition-local variables and by-value parameters that the
// linker discarded once name resolution was done, and walks every resolved
// expression to verify arity, scalar types, message-literal shape, and
// reference-parameter legality.
package check

import (
	"fmt"

	"github.com/stl-run/stl/program"
)

// Check type-checks every module of prog, returning the first TypeError
// encountered.
func Check(prog *program.Program) error {
	for _, m := range prog.Modules {
		if err := checkModule(m); err != nil {
			return err
		}
	}
	return nil
}

func checkModule(m *program.Module) error {
	for name, c := range m.Constants {
		if err := checkConstant(m.Name, name, c); err != nil {
			return err
		}
	}
	for name, e := range m.Events {
		if err := checkEvent(m.Name, name, e); err != nil {
			return err
		}
	}
	for name, t := range m.Transitions {
		if err := checkTransition(m.Name, name, t); err != nil {
			return err
		}
	}
	return nil
}

func checkConstant(mod, name string, c *program.Constant) error {
	where := mod + "::" + name
	switch c.Type.Kind {
	case program.TInt:
		if n, ok := c.Value.(int64); !ok {
			return typeErrf(where, "int", "non-int literal")
		} else if n < 0 {
			return typeErrf(where, "non-negative int literal", fmt.Sprintf("%d", n))
		}
	case program.TBool:
		if _, ok := c.Value.(bool); !ok {
			return typeErrf(where, "bool", "non-bool literal")
		}
	case program.TString:
		if _, ok := c.Value.(string); !ok {
			return typeErrf(where, "string", "non-string literal")
		}
	default:
		return typeErrf(where, "scalar", c.Type.String())
	}
	return nil
}

func checkEvent(mod, name string, e *program.EventDecl) error {
	where := mod + "::" + name
	if e.BodyKind != program.CompositeBody {
		return nil
	}
	locals := paramScope(e.Params)
	return checkCallArgs(where, locals, e.Callee.Params, e.Args)
}

func checkTransition(mod, name string, t *program.TransitionDecl) error {
	where := mod + "::" + name
	locals := paramScope(t.Params)
	for _, lo := range t.Locals {
		locals[lo.Name] = lo.Type
	}
	for _, set := range t.PreStates {
		if err := checkStateParams(where, locals, set.Decl.ParamTypes, set.Params); err != nil {
			return err
		}
	}
	for _, ref := range t.PostStates {
		if err := checkStateParams(where, locals, ref.Decl.ParamTypes, ref.Params); err != nil {
			return err
		}
	}
	for _, ref := range t.ErrorStates {
		if err := checkStateParams(where, locals, ref.Decl.ParamTypes, ref.Params); err != nil {
			return err
		}
	}
	for _, te := range t.Events {
		if err := checkCallArgs(where, locals, te.Callee.Params, te.Args); err != nil {
			return err
		}
	}
	return nil
}

func paramScope(params []program.EventParam) map[string]program.Type {
	scope := make(map[string]program.Type, len(params))
	for _, p := range params {
		scope[p.Name] = p.Type
	}
	return scope
}

func checkStateParams(where string, locals map[string]program.Type, want []program.Type, args []program.Expr) error {
	for i, arg := range want {
		got, err := inferType(locals, args[i])
		if err != nil {
			return err
		}
		if !got.Equal(arg) {
			return typeErr(where, arg, got)
		}
	}
	return nil
}

// checkCallArgs validates an event-call argument list against its callee's
// declared parameters: by-value parameters check scalar/message type
// equality; by-reference parameters require an `&`-argument naming a
// transition-local variable of identical type.
func checkCallArgs(where string, locals map[string]program.Type, params []program.EventParam, args []program.Expr) error {
	if len(params) != len(args) {
		return typeErrf(where, fmt.Sprintf("%d argument(s)", len(params)), fmt.Sprintf("%d argument(s)", len(args)))
	}
	for i, param := range params {
		arg := args[i]
		ref, isRef := arg.(*program.RefArg)
		if param.ByRef {
			if !isRef {
				return typeErrf(where, "&"+param.Name, "value argument")
			}
			if ref.Cell.Role != nil {
				return typeErrf(where, "transition-local variable", "role field")
			}
			got, ok := locals[ref.Cell.Name]
			if !ok {
				return typeErrf(where, "transition-local variable", "undeclared local "+ref.Cell.Name)
			}
			if !got.Equal(param.Type) {
				return typeErr(where, param.Type, got)
			}
			continue
		}
		if isRef {
			return typeErrf(where, "value argument", "&-argument")
		}
		got, err := inferType(locals, arg)
		if err != nil {
			return err
		}
		if !got.Equal(param.Type) {
			return typeErr(where, param.Type, got)
		}
	}
	return nil
}
