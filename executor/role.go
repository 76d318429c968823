package executor

import (
	"fmt"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/value"
)

// RoleInstance is a live binding of a declared Role to field values; the
// executor creates one per role declared in the program. The Fields slice is allocated once at
// construction and never resized, so `&role.field` cells taken as pointers
// into it stay valid for the lifetime of the run.
type RoleInstance struct {
	Decl   *program.Role
	Fields []value.Value
}

// NewRoleInstance builds a RoleInstance with every field defaulted to null.
func NewRoleInstance(decl *program.Role) *RoleInstance {
	return &RoleInstance{Decl: decl, Fields: make([]value.Value, len(decl.Fields))}
}

func (r *RoleInstance) Get(name string) value.Value {
	idx := r.Decl.FieldIndex(name)
	if idx < 0 {
		return value.Null()
	}
	return r.Fields[idx]
}

// QualifiedName and Field implement registry.RoleContext, so a
// *RoleInstance can be passed straight to an EventFunc as the transition
// event's source or target.
func (r *RoleInstance) QualifiedName() string { return r.Decl.QualifiedName }

func (r *RoleInstance) Field(name string) value.Value { return r.Get(name) }

func (r *RoleInstance) Set(name string, v value.Value) {
	idx := r.Decl.FieldIndex(name)
	if idx < 0 {
		return
	}
	r.Fields[idx] = v
}

// ConfigureFields applies a manifest role instance's field values (raw,
// untyped YAML scalars keyed by field name) to r, converting each through
// its declared Role field type. Unknown field names are rejected since a
// manifest typo would otherwise silently leave a field at its zero value.
func (r *RoleInstance) ConfigureFields(fields map[string]interface{}) error {
	for name, raw := range fields {
		idx := r.Decl.FieldIndex(name)
		if idx < 0 {
			return fmt.Errorf("executor: role %s has no field %q", r.Decl.QualifiedName, name)
		}
		v, err := toValue(r.Decl.Fields[idx].Type, raw)
		if err != nil {
			return fmt.Errorf("executor: role %s field %q: %w", r.Decl.QualifiedName, name, err)
		}
		r.Fields[idx] = v
	}
	return nil
}
