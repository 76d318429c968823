package executor

import (
	"fmt"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// evalExpr evaluates a resolved expression against a transition's local
// scope and the live role instances, calling out to reg for qualifiers.
// program.RefArg is not handled here: a `&`-argument is only legal in an
// argument or qualifier-write position, both handled directly by their
// callers via resolveCellPtr.
func evalExpr(scope map[string]*value.Value, roles map[*program.Role]*RoleInstance, reg *registry.Registry, e program.Expr) (value.Value, error) {
	switch v := e.(type) {
	case *program.IntLit:
		return value.Int(v.Value), nil
	case *program.StringLit:
		return value.String(v.Value), nil
	case *program.BoolLit:
		return value.Bool(v.Value), nil
	case *program.ConstRef:
		return constValue(v.Const), nil
	case *program.LocalRef:
		cell, ok := scope[v.Name]
		if !ok {
			return value.Value{}, fmt.Errorf("executor: undeclared local %q", v.Name)
		}
		return *cell, nil
	case *program.RoleFieldRef:
		ri, ok := roles[v.Role]
		if !ok {
			return value.Value{}, fmt.Errorf("executor: no instance bound for role %s", v.Role.QualifiedName)
		}
		return ri.Get(v.FieldName), nil
	case *program.QualifierCall:
		return evalQualifierCall(scope, roles, reg, v)
	case *program.MessageExpr:
		return evalMessageExpr(scope, roles, reg, v)
	case *program.MessageArrayExpr:
		arr := make([]*value.Message, len(v.Elements))
		for i, el := range v.Elements {
			mv, err := evalMessageExpr(scope, roles, reg, el)
			if err != nil {
				return value.Value{}, err
			}
			arr[i] = mv.Message
		}
		return value.MessageArray(arr), nil
	default:
		return value.Value{}, fmt.Errorf("executor: unsupported expression %T", e)
	}
}

func constValue(c *program.Constant) value.Value {
	switch v := c.Value.(type) {
	case int64:
		return value.Int(v)
	case bool:
		return value.Bool(v)
	case string:
		return value.String(v)
	default:
		return value.Null()
	}
}

func evalQualifierCall(scope map[string]*value.Value, roles map[*program.Role]*RoleInstance, reg *registry.Registry, qc *program.QualifierCall) (value.Value, error) {
	args := make([]value.Value, len(qc.Args))
	for i, a := range qc.Args {
		v, err := evalExpr(scope, roles, reg, a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	fn, err := reg.Qualifier(qc.Decl.External)
	if err != nil {
		return value.Value{}, &Fatal{Err: err}
	}
	return fn(args)
}

func evalMessageExpr(scope map[string]*value.Value, roles map[*program.Role]*RoleInstance, reg *registry.Registry, me *program.MessageExpr) (value.Value, error) {
	m := value.NewMessage(me.Decl)
	for _, fv := range me.Fields {
		v, err := evalExpr(scope, roles, reg, fv.Value)
		if err != nil {
			return value.Value{}, err
		}
		if err := m.Set(fv.Field.Name, v); err != nil {
			return value.Value{}, err
		}
		if fv.WriteTo != nil {
			cell, err := resolveCellPtr(fv.WriteTo, scope, roles)
			if err != nil {
				return value.Value{}, err
			}
			*cell = v
		}
	}
	return value.MessageVal(m), nil
}

// resolveCellPtr resolves a write-target cell to the live pointer it names:
// a transition-local variable's binding, or a role field's slot.
func resolveCellPtr(cell *program.LocalCell, scope map[string]*value.Value, roles map[*program.Role]*RoleInstance) (*value.Value, error) {
	if cell.Role != nil {
		ri, ok := roles[cell.Role]
		if !ok {
			return nil, fmt.Errorf("executor: no instance bound for role %s", cell.Role.QualifiedName)
		}
		idx := ri.Decl.FieldIndex(cell.Field)
		if idx < 0 {
			return nil, fmt.Errorf("executor: role %s has no field %q", cell.Role.QualifiedName, cell.Field)
		}
		return &ri.Fields[idx], nil
	}
	ptr, ok := scope[cell.Name]
	if !ok {
		return nil, fmt.Errorf("executor: undeclared local %q", cell.Name)
	}
	return ptr, nil
}

// evalCallArgs evaluates an event-call's argument list against its
// callee's declared parameters, splitting the result into the by-value
// arguments and the live pointers behind the by-reference arguments, in
// declared order.
func evalCallArgs(scope map[string]*value.Value, roles map[*program.Role]*RoleInstance, reg *registry.Registry, params []program.EventParam, args []program.Expr) (byVal []value.Value, byRef []*value.Value, err error) {
	byVal = make([]value.Value, 0, len(params))
	byRef = make([]*value.Value, 0, len(params))
	for i, param := range params {
		arg := args[i]
		if param.ByRef {
			ref, ok := arg.(*program.RefArg)
			if !ok {
				return nil, nil, fmt.Errorf("executor: parameter %q requires a &-argument", param.Name)
			}
			ptr, err := resolveCellPtr(ref.Cell, scope, roles)
			if err != nil {
				return nil, nil, err
			}
			byRef = append(byRef, ptr)
			continue
		}
		v, err := evalExpr(scope, roles, reg, arg)
		if err != nil {
			return nil, nil, err
		}
		byVal = append(byVal, v)
	}
	return byVal, byRef, nil
}

// fireEventDecl runs one resolved event call to completion: NoOpBody always
// succeeds, ExternalBody dispatches to the registered handler, and
// CompositeBody recurses into the callee's own body after binding a fresh
// scope from its declared parameters — by-value parameters get a private
// copy, by-reference parameters reuse the caller's pointer so writes made
// arbitrarily deep in the composite chain propagate back to the original
// cell. depth is bounded by maxDepth to catch a runaway composite cycle.
// source and target are the enclosing transition event's two role
// instances, passed straight through every level of composite recursion
// since they name the original `source -> ... -> target` call, not the
// composite callee itself.
func fireEventDecl(decl *program.EventDecl, byVal []value.Value, byRef []*value.Value, source, target *RoleInstance, roles map[*program.Role]*RoleInstance, reg *registry.Registry, depth, maxDepth int) (bool, error) {
	if depth > maxDepth {
		return false, &DepthExceeded{Where: decl.QualifiedName, Depth: maxDepth}
	}
	switch decl.BodyKind {
	case program.NoOpBody:
		return true, nil
	case program.ExternalBody:
		fn, err := reg.Event(decl.External)
		if err != nil {
			return false, &Fatal{Err: err}
		}
		return fn(byVal, byRef, source, target)
	case program.CompositeBody:
		scope := make(map[string]*value.Value, len(decl.Params))
		vi, ri := 0, 0
		for _, p := range decl.Params {
			if p.ByRef {
				scope[p.Name] = byRef[ri]
				ri++
				continue
			}
			cp := byVal[vi]
			scope[p.Name] = &cp
			vi++
		}
		nextVal, nextRef, err := evalCallArgs(scope, roles, reg, decl.Callee.Params, decl.Args)
		if err != nil {
			return false, err
		}
		return fireEventDecl(decl.Callee, nextVal, nextRef, source, target, roles, reg, depth+1, maxDepth)
	default:
		return false, fmt.Errorf("executor: event %s has no body", decl.QualifiedName)
	}
}
