package check

import (
	"fmt"

	"github.com/stl-run/stl/program"
)

// inferType computes the scalar/message type of a general-purpose resolved
// expression against a scope of transition-local (and by-value parameter)
// names. It rejects program.RefArg and program.MessageArrayExpr, which are
// only legal in the by-reference-argument and repeated-field positions
// handled directly by their callers.
func inferType(locals map[string]program.Type, e program.Expr) (program.Type, error) {
	switch v := e.(type) {
	case *program.IntLit:
		if v.Value < 0 {
			return program.Type{}, typeErrf("integer literal", "non-negative integer literal", fmt.Sprintf("%d", v.Value))
		}
		return program.Type{Kind: program.TInt}, nil
	case *program.StringLit:
		return program.Type{Kind: program.TString}, nil
	case *program.BoolLit:
		return program.Type{Kind: program.TBool}, nil
	case *program.ConstRef:
		return v.Const.Type, nil
	case *program.LocalRef:
		t, ok := locals[v.Name]
		if !ok {
			return program.Type{}, fmt.Errorf("check: undeclared local %q", v.Name)
		}
		return t, nil
	case *program.RoleFieldRef:
		idx := v.Role.FieldIndex(v.FieldName)
		if idx < 0 {
			return program.Type{}, fmt.Errorf("check: role %s has no field %q", v.Role.QualifiedName, v.FieldName)
		}
		return v.Role.Fields[idx].Type, nil
	case *program.QualifierCall:
		if err := checkQualifierArgs(v.Decl.QualifiedName, locals, v.Decl.ParamTypes, v.Args); err != nil {
			return program.Type{}, err
		}
		return v.Decl.ReturnType, nil
	case *program.MessageExpr:
		if err := checkMessageExpr(locals, v); err != nil {
			return program.Type{}, err
		}
		return program.Type{Kind: program.TMessage, Decl: v.Decl}, nil
	default:
		return program.Type{}, fmt.Errorf("check: expression of type %T not valid here", e)
	}
}

func checkQualifierArgs(where string, locals map[string]program.Type, want []program.Type, args []program.Expr) error {
	if len(want) != len(args) {
		return typeErrf(where, fmt.Sprintf("%d argument(s)", len(want)), fmt.Sprintf("%d argument(s)", len(args)))
	}
	for i, w := range want {
		got, err := inferType(locals, args[i])
		if err != nil {
			return err
		}
		if !got.Equal(w) {
			return typeErr(where, w, got)
		}
	}
	return nil
}

// checkMessageExpr validates every field of a resolved message literal
// against its declaration: required fields must be present, repeated
// fields must be array literals, nested message fields must themselves be
// literals of the exact declared message type, and a qualifier-write
// target must be a transition-local variable of the field's type.
func checkMessageExpr(locals map[string]program.Type, me *program.MessageExpr) error {
	where := me.Decl.QualifiedName
	seen := make(map[string]bool, len(me.Fields))
	for _, fv := range me.Fields {
		seen[fv.Field.Name] = true
		if err := checkFieldValue(where, locals, fv); err != nil {
			return err
		}
	}
	for _, f := range me.Decl.Fields {
		if f.Multiplicity == program.Required && !seen[f.Name] {
			return typeErrf(where, "field "+f.Name, "missing")
		}
	}
	return nil
}

func checkFieldValue(where string, locals map[string]program.Type, fv program.FieldValue) error {
	fieldWhere := where + "." + fv.Field.Name

	if fv.Field.Multiplicity == program.Repeated {
		arr, ok := fv.Value.(*program.MessageArrayExpr)
		if !ok {
			return typeErrf(fieldWhere, "array literal", "scalar value")
		}
		if arr.Decl != fv.Field.Type.Decl {
			return typeErrf(fieldWhere, "message "+fv.Field.Type.Decl.QualifiedName, "message "+arr.Decl.QualifiedName)
		}
		for _, elem := range arr.Elements {
			if err := checkMessageExpr(locals, elem); err != nil {
				return err
			}
		}
		return nil
	}

	if fv.Field.Type.Kind == program.TMessage {
		nested, ok := fv.Value.(*program.MessageExpr)
		if !ok {
			return typeErrf(fieldWhere, "message literal", "non-literal value")
		}
		if nested.Decl != fv.Field.Type.Decl {
			return typeErrf(fieldWhere, "message "+fv.Field.Type.Decl.QualifiedName, "message "+nested.Decl.QualifiedName)
		}
		if err := checkMessageExpr(locals, nested); err != nil {
			return err
		}
	} else {
		got, err := inferType(locals, fv.Value)
		if err != nil {
			return err
		}
		if !got.Equal(fv.Field.Type) {
			return typeErr(fieldWhere, fv.Field.Type, got)
		}
	}

	if fv.WriteTo != nil {
		if fv.WriteTo.Role != nil {
			return typeErrf(fieldWhere, "transition-local variable", "role field")
		}
		got, ok := locals[fv.WriteTo.Name]
		if !ok {
			return typeErrf(fieldWhere, "transition-local variable", "undeclared local "+fv.WriteTo.Name)
		}
		if !got.Equal(fv.Field.Type) {
			return typeErr(fieldWhere, fv.Field.Type, got)
		}
	}
	return nil
}
