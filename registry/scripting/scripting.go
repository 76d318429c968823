// Package scripting binds external events and qualifiers to JavaScript
// functions evaluated by github.com/dop251/goja, letting a manifest supply
// a primitive's behavior as a script instead of compiled Go, mirroring the
// historical implementation's ability to point an "external" reference at
// arbitrary interpreted code.
package scripting

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// Runtime wraps a goja.Runtime with the mutex a single interpreter
// instance needs when called concurrently from multiple registered
// primitives (goja.Runtime is not safe for concurrent use).
type Runtime struct {
	mu sync.Mutex
	vm *goja.Runtime
}

// New compiles and runs src once (typically function declarations) and
// returns a Runtime ready to resolve those functions as primitives.
func New(src string) (*Runtime, error) {
	vm := goja.New()
	if _, err := vm.RunString(src); err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}
	return &Runtime{vm: vm}, nil
}

// Qualifier resolves fnName to a registry.QualifierFunc: args are passed
// as native JS values in order, and the return value is converted back
// according to want.
func (r *Runtime) Qualifier(fnName string, want value.Kind) (registry.QualifierFunc, error) {
	fn, err := r.lookup(fnName)
	if err != nil {
		return nil, err
	}
	return func(args []value.Value) (value.Value, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = r.vm.ToValue(rawOf(a))
		}
		result, err := fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return value.Value{}, fmt.Errorf("scripting: %s: %w", fnName, err)
		}
		return toValue(want, result)
	}, nil
}

// Event resolves fnName to a registry.EventFunc: by-value args are passed
// as native JS values, by-reference args are passed as single-element
// arrays so the script can write back through arr[0] = value, and the
// function's return value is interpreted as a boolean success flag.
// source/target's qualified names are made available to the script as a
// trailing {source, target} object, so a script can branch on which role
// pair is firing the event.
func (r *Runtime) Event(fnName string) (registry.EventFunc, error) {
	fn, err := r.lookup(fnName)
	if err != nil {
		return nil, err
	}
	return func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		jsArgs := make([]goja.Value, 0, len(args)+len(refs)+1)
		for _, a := range args {
			jsArgs = append(jsArgs, r.vm.ToValue(rawOf(a)))
		}
		cells := make([]*goja.Object, len(refs))
		for i, ref := range refs {
			arr := r.vm.NewArray(rawOf(*ref))
			cells[i] = arr
			jsArgs = append(jsArgs, arr)
		}
		roles := r.vm.NewObject()
		if source != nil {
			_ = roles.Set("source", source.QualifiedName())
		}
		if target != nil {
			_ = roles.Set("target", target.QualifiedName())
		}
		jsArgs = append(jsArgs, roles)
		result, err := fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return false, fmt.Errorf("scripting: %s: %w", fnName, err)
		}
		for i, cell := range cells {
			elem := cell.Get("0")
			v, err := toValue(refs[i].Kind, elem)
			if err != nil {
				return false, err
			}
			*refs[i] = v
		}
		return result.ToBoolean(), nil
	}, nil
}

func (r *Runtime) lookup(fnName string) (goja.Callable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vm.GlobalObject().Get(fnName)
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("scripting: no function %q defined", fnName)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("scripting: %q is not callable", fnName)
	}
	return fn, nil
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
		return nil
	}
}

func toValue(kind value.Kind, jv goja.Value) (value.Value, error) {
	switch kind {
	case value.KInt:
		return value.Int(jv.ToInteger()), nil
	case value.KBool:
		return value.Bool(jv.ToBoolean()), nil
	case value.KString:
		return value.String(jv.String()), nil
	default:
		return value.Null(), nil
	}
}
