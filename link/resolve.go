package link

import (
	"fmt"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/program"
)

func (l *Linker) resolveModule(m *ast.Module) error {
	if err := l.resolveConstants(m); err != nil {
		return err
	}
	if err := l.resolveStates(m); err != nil {
		return err
	}
	if err := l.resolveRoles(m); err != nil {
		return err
	}
	if err := l.resolveMessages(m); err != nil {
		return err
	}
	if err := l.resolveQualifiers(m); err != nil {
		return err
	}
	if err := l.resolveEvents(m); err != nil {
		return err
	}
	if err := l.resolveTransitions(m); err != nil {
		return err
	}
	return nil
}

func (l *Linker) resolveType(currentModule string, t ast.Type, where string) (program.Type, error) {
	switch t.Kind {
	case "int":
		return program.Type{Kind: program.TInt}, nil
	case "bool":
		return program.Type{Kind: program.TBool}, nil
	case "string":
		return program.Type{Kind: program.TString}, nil
	case "message":
		decl, err := lookup[*program.MessageDecl](l, where, "message", currentModule, t.Message,
			func(pm *program.Module) map[string]*program.MessageDecl { return pm.Messages })
		if err != nil {
			return program.Type{}, err
		}
		return program.Type{Kind: program.TMessage, Decl: decl}, nil
	default:
		return program.Type{}, fmt.Errorf("link: unknown type kind %q", t.Kind)
	}
}

// --- constants (with cycle detection) ---

func (l *Linker) resolveConstants(m *ast.Module) error {
	byName := make(map[string]*ast.ConstDecl, len(m.Constants))
	for _, c := range m.Constants {
		byName[c.Name] = c
	}
	visiting := map[string]bool{}
	resolved := map[string]bool{}
	for _, c := range m.Constants {
		if err := l.resolveConst(m, byName, c.Name, visiting, resolved); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) resolveConst(m *ast.Module, byName map[string]*ast.ConstDecl, name string, visiting, resolved map[string]bool) error {
	if resolved[name] {
		return nil
	}
	if visiting[name] {
		return cyclicErr(m.Name, name)
	}
	astDecl, ok := byName[name]
	if !ok {
		return nil // not a local const; leave for cross-module reference resolution
	}
	visiting[name] = true
	typ, err := l.resolveType(m.Name, astDecl.Type, m.Name+"::"+name)
	if err != nil {
		return err
	}
	val, err := l.evalConstExpr(m, byName, astDecl.Value, visiting, resolved)
	if err != nil {
		return err
	}
	pm := l.prog.Module(m.Name)
	pm.Constants[name] = &program.Constant{QualifiedName: qname(m.Name, name), Type: typ, Value: val}
	resolved[name] = true
	delete(visiting, name)
	return nil
}

func (l *Linker) evalConstExpr(m *ast.Module, byName map[string]*ast.ConstDecl, e ast.Expr, visiting, resolved map[string]bool) (interface{}, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return v.Value, nil
	case *ast.StringLit:
		return v.Value, nil
	case *ast.BoolLit:
		return v.Value, nil
	case *ast.Ident:
		if _, local := byName[v.Name]; local {
			if err := l.resolveConst(m, byName, v.Name, visiting, resolved); err != nil {
				return nil, err
			}
			return l.prog.Module(m.Name).Constants[v.Name].Value, nil
		}
		c, err := lookup[*program.Constant](l, m.Name+"::"+v.Name, "const", m.Name, v.Name,
			func(pm *program.Module) map[string]*program.Constant { return pm.Constants })
		if err != nil {
			return nil, err
		}
		return c.Value, nil
	default:
		return nil, &LinkError{Where: m.Name, Message: "constant value must be a literal or a reference to another constant"}
	}
}

// --- states ---

func (l *Linker) resolveStates(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, s := range m.States {
		decl := pm.States[s.Name]
		where := qname(m.Name, s.Name)
		types := make([]program.Type, len(s.ParamTypes))
		for i, t := range s.ParamTypes {
			pt, err := l.resolveType(m.Name, t, where)
			if err != nil {
				return err
			}
			types[i] = pt
		}
		decl.ParamTypes = types
		decl.Values = append([]string(nil), s.Values...)
	}
	return nil
}

// --- roles ---

func (l *Linker) resolveRoles(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, r := range m.Roles {
		decl := pm.Roles[r.Name]
		where := qname(m.Name, r.Name)
		fields := make([]program.RoleField, len(r.Fields))
		for i, f := range r.Fields {
			t, err := l.resolveType(m.Name, f.Type, where)
			if err != nil {
				return err
			}
			fields[i] = program.RoleField{Name: f.Name, Type: t}
		}
		decl.Fields = fields
	}
	return nil
}

// --- messages ---

func (l *Linker) resolveMessages(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, msg := range m.Messages {
		if err := l.resolveMessageAs(m, pm, msg.Name, msg); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) resolveMessageAs(m *ast.Module, pm *program.Module, localName string, msg *ast.MessageDecl) error {
	decl := pm.Messages[localName]
	where := qname(m.Name, localName)
	decl.IsArray = msg.IsArray
	decl.External = msg.External
	switch msg.Encode {
	case "json":
		decl.Encoding = program.EncodeJSON
	case "bytestream":
		decl.Encoding = program.EncodeBytestream
	case "protobuf":
		decl.Encoding = program.EncodeProtobuf
	case "":
		decl.Encoding = program.EncodeJSON
	default:
		return &LinkError{Where: where, Message: fmt.Sprintf("unknown encoding %q", msg.Encode)}
	}
	fields := make([]program.Field, len(msg.Fields))
	for i, f := range msg.Fields {
		t, err := l.resolveType(m.Name, f.Type, where)
		if err != nil {
			return err
		}
		mult := program.Required
		switch f.Multiplicity {
		case ast.Optional:
			mult = program.Optional
		case ast.Repeated:
			mult = program.Repeated
		}
		fields[i] = program.Field{Name: f.Name, Type: t, Multiplicity: mult}
	}
	decl.Fields = fields
	for _, nested := range msg.Nested {
		if err := l.resolveMessageAs(m, pm, localName+"."+nested.Name, nested); err != nil {
			return err
		}
	}
	return nil
}

// --- qualifiers ---

func (l *Linker) resolveQualifiers(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, q := range m.Qualifiers {
		decl := pm.Qualifiers[q.Name]
		where := qname(m.Name, q.Name)
		params := make([]program.Type, len(q.ParamTypes))
		for i, t := range q.ParamTypes {
			pt, err := l.resolveType(m.Name, t, where)
			if err != nil {
				return err
			}
			params[i] = pt
		}
		ret, err := l.resolveType(m.Name, q.ReturnType, where)
		if err != nil {
			return err
		}
		decl.ParamTypes = params
		decl.ReturnType = ret
		decl.External = q.External
	}
	return nil
}

// --- events ---

func (l *Linker) resolveEvents(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, e := range m.Events {
		decl := pm.Events[e.Name]
		where := qname(m.Name, e.Name)
		params := make([]program.EventParam, len(e.Params))
		locals := map[string]program.Type{}
		for i, p := range e.Params {
			t, err := l.resolveType(m.Name, p.Type, where)
			if err != nil {
				return err
			}
			params[i] = program.EventParam{Name: p.Name, Type: t, ByRef: p.ByRef}
			locals[p.Name] = t
		}
		decl.Params = params
		switch e.BodyKind {
		case ast.NoOpBody:
			decl.BodyKind = program.NoOpBody
		case ast.ExternalEventBody:
			decl.BodyKind = program.ExternalBody
			decl.External = e.External
		case ast.CompositeEventBody:
			decl.BodyKind = program.CompositeBody
			callee, err := lookup[*program.EventDecl](l, where, "event", m.Name, e.Callee,
				func(pm *program.Module) map[string]*program.EventDecl { return pm.Events })
			if err != nil {
				return err
			}
			decl.Callee = callee
			args := make([]program.Expr, len(e.Args))
			for i, a := range e.Args {
				re, err := l.resolveExpr(m.Name, locals, a, where)
				if err != nil {
					return err
				}
				args[i] = re
			}
			decl.Args = args
		}
	}
	return nil
}

// --- transitions ---

func (l *Linker) resolveTransitions(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, t := range m.Transitions {
		decl := pm.Transitions[t.Name]
		where := qname(m.Name, t.Name)
		locals := map[string]program.Type{}
		params := make([]program.EventParam, len(t.Params))
		for i, p := range t.Params {
			pt, err := l.resolveType(m.Name, p.Type, where)
			if err != nil {
				return err
			}
			params[i] = program.EventParam{Name: p.Name, Type: pt, ByRef: p.ByRef}
			locals[p.Name] = pt
		}
		localDecls := make([]program.TransitionLocal, len(t.Locals))
		for i, lo := range t.Locals {
			pt, err := l.resolveType(m.Name, lo.Type, where)
			if err != nil {
				return err
			}
			localDecls[i] = program.TransitionLocal{Name: lo.Name, Type: pt}
			locals[lo.Name] = pt
		}
		decl.Params = params
		decl.Locals = localDecls

		preSets := make([]program.StateRefOrSet, len(t.PreStates))
		for i, set := range t.PreStates {
			ps, err := l.resolveStateRefOrSet(m.Name, locals, set, where)
			if err != nil {
				return err
			}
			preSets[i] = ps
		}
		decl.PreStates = preSets

		post, err := l.resolveStateRefs(m.Name, locals, t.PostStates, where)
		if err != nil {
			return err
		}
		decl.PostStates = post

		errs, err := l.resolveStateRefs(m.Name, locals, t.ErrorStates, where)
		if err != nil {
			return err
		}
		decl.ErrorStates = errs

		events := make([]program.TransitionEvent, len(t.Events))
		for i, te := range t.Events {
			source, err := lookup[*program.Role](l, where, "role", m.Name, te.Source,
				func(pm *program.Module) map[string]*program.Role { return pm.Roles })
			if err != nil {
				return err
			}
			target, err := lookup[*program.Role](l, where, "role", m.Name, te.Target,
				func(pm *program.Module) map[string]*program.Role { return pm.Roles })
			if err != nil {
				return err
			}
			callee, err := lookup[*program.EventDecl](l, where, "event", m.Name, te.Callee,
				func(pm *program.Module) map[string]*program.EventDecl { return pm.Events })
			if err != nil {
				return err
			}
			args := make([]program.Expr, len(te.Args))
			for j, a := range te.Args {
				re, err := l.resolveExpr(m.Name, locals, a, where)
				if err != nil {
					return err
				}
				args[j] = re
			}
			events[i] = program.TransitionEvent{Source: source, Callee: callee, Args: args, Target: target}
		}
		decl.Events = events
	}
	return nil
}

func (l *Linker) resolveStateRefOrSet(currentModule string, locals map[string]program.Type, set ast.StateRefOrSet, where string) (program.StateRefOrSet, error) {
	if len(set.Alternatives) == 0 {
		return program.StateRefOrSet{}, &LinkError{Where: where, Message: "empty pre_states OR-set"}
	}
	first := set.Alternatives[0]
	decl, err := lookup[*program.StateDecl](l, where, "state", currentModule, first.Name,
		func(pm *program.Module) map[string]*program.StateDecl { return pm.States })
	if err != nil {
		return program.StateRefOrSet{}, err
	}
	if len(first.Params) != len(decl.ParamTypes) {
		return program.StateRefOrSet{}, arityErr(where, first.Name, len(decl.ParamTypes), len(first.Params))
	}
	params := make([]program.Expr, len(first.Params))
	for i, a := range first.Params {
		re, err := l.resolveExpr(currentModule, locals, a, where)
		if err != nil {
			return program.StateRefOrSet{}, err
		}
		params[i] = re
	}
	values := make([]string, len(set.Alternatives))
	for i, alt := range set.Alternatives {
		if !decl.HasValue(alt.Value) {
			return program.StateRefOrSet{}, undefinedErr(where, "state value", alt.Value, decl.Values)
		}
		values[i] = alt.Value
	}
	return program.StateRefOrSet{Decl: decl, Params: params, Values: values}, nil
}

func (l *Linker) resolveStateRefs(currentModule string, locals map[string]program.Type, refs []ast.StateRef, where string) ([]program.StateRef, error) {
	out := make([]program.StateRef, len(refs))
	for i, ref := range refs {
		decl, err := lookup[*program.StateDecl](l, where, "state", currentModule, ref.Name,
			func(pm *program.Module) map[string]*program.StateDecl { return pm.States })
		if err != nil {
			return nil, err
		}
		if len(ref.Params) != len(decl.ParamTypes) {
			return nil, arityErr(where, ref.Name, len(decl.ParamTypes), len(ref.Params))
		}
		if !decl.HasValue(ref.Value) {
			return nil, undefinedErr(where, "state value", ref.Value, decl.Values)
		}
		params := make([]program.Expr, len(ref.Params))
		for j, a := range ref.Params {
			re, err := l.resolveExpr(currentModule, locals, a, where)
			if err != nil {
				return nil, err
			}
			params[j] = re
		}
		out[i] = program.StateRef{Decl: decl, Params: params, Value: ref.Value}
	}
	return out, nil
}

// resolveExpr resolves an ast.Expr into a program.Expr against a scope of
// transition-local (and by-value parameter) names.
func (l *Linker) resolveExpr(currentModule string, locals map[string]program.Type, e ast.Expr, where string) (program.Expr, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return &program.IntLit{Value: v.Value}, nil
	case *ast.StringLit:
		return &program.StringLit{Value: v.Value}, nil
	case *ast.BoolLit:
		return &program.BoolLit{Value: v.Value}, nil
	case *ast.Ident:
		if _, ok := locals[v.Name]; ok {
			return &program.LocalRef{Name: v.Name}, nil
		}
		c, err := lookup[*program.Constant](l, where, "const", currentModule, v.Name,
			func(pm *program.Module) map[string]*program.Constant { return pm.Constants })
		if err != nil {
			return nil, err
		}
		return &program.ConstRef{Const: c}, nil
	case *ast.GetRef:
		if v.Field == "" {
			if _, ok := locals[v.Name]; ok {
				return &program.LocalRef{Name: v.Name}, nil
			}
			return nil, undefinedErr(where, "local variable", v.Name, keysOf(locals))
		}
		role, err := lookup[*program.Role](l, where, "role", currentModule, v.Name,
			func(pm *program.Module) map[string]*program.Role { return pm.Roles })
		if err != nil {
			return nil, err
		}
		if role.FieldIndex(v.Field) < 0 {
			return nil, undefinedErr(where, "role field", v.Field, fieldNames(role))
		}
		return &program.RoleFieldRef{Role: role, FieldName: v.Field}, nil
	case *ast.SetRef:
		cell, err := l.resolveSetRef(currentModule, locals, v, where)
		if err != nil {
			return nil, err
		}
		return &program.RefArg{Cell: cell}, nil
	case *ast.QualifierCallExpr:
		decl, err := lookup[*program.QualifierDecl](l, where, "qualifier", currentModule, v.Name,
			func(pm *program.Module) map[string]*program.QualifierDecl { return pm.Qualifiers })
		if err != nil {
			return nil, err
		}
		if len(decl.ParamTypes) != len(v.Args) {
			return nil, arityErr(where, v.Name, len(decl.ParamTypes), len(v.Args))
		}
		args := make([]program.Expr, len(v.Args))
		for i, a := range v.Args {
			re, err := l.resolveExpr(currentModule, locals, a, where)
			if err != nil {
				return nil, err
			}
			args[i] = re
		}
		return &program.QualifierCall{Decl: decl, Args: args}, nil
	case *ast.MessageLiteral:
		return l.resolveMessageLiteral(currentModule, locals, v, where)
	case *ast.MessageArrayLiteral:
		return l.resolveMessageArrayLiteral(currentModule, locals, v, where)
	default:
		return nil, fmt.Errorf("link: unhandled expression type %T", e)
	}
}

func (l *Linker) resolveSetRef(currentModule string, locals map[string]program.Type, v *ast.SetRef, where string) (*program.LocalCell, error) {
	if v.Field == "" {
		if _, ok := locals[v.Name]; !ok {
			return nil, undefinedErr(where, "local variable", v.Name, keysOf(locals))
		}
		return &program.LocalCell{Name: v.Name}, nil
	}
	role, err := lookup[*program.Role](l, where, "role", currentModule, v.Name,
		func(pm *program.Module) map[string]*program.Role { return pm.Roles })
	if err != nil {
		return nil, err
	}
	if role.FieldIndex(v.Field) < 0 {
		return nil, undefinedErr(where, "role field", v.Field, fieldNames(role))
	}
	return &program.LocalCell{Role: role, Field: v.Field}, nil
}

func (l *Linker) resolveMessageLiteral(currentModule string, locals map[string]program.Type, v *ast.MessageLiteral, where string) (*program.MessageExpr, error) {
	decl, err := lookup[*program.MessageDecl](l, where, "message", currentModule, v.Name,
		func(pm *program.Module) map[string]*program.MessageDecl { return pm.Messages })
	if err != nil {
		return nil, err
	}
	fields := make([]program.FieldValue, 0, len(v.Fields))
	for _, fa := range v.Fields {
		field := decl.FieldByName(fa.Field)
		if field == nil {
			return nil, undefinedErr(where, "field", fa.Field, fieldDeclNames(decl))
		}
		fv := program.FieldValue{Field: field}
		if fa.Qualifier != "" {
			qdecl, err := lookup[*program.QualifierDecl](l, where, "qualifier", currentModule, fa.Qualifier,
				func(pm *program.Module) map[string]*program.QualifierDecl { return pm.Qualifiers })
			if err != nil {
				return nil, err
			}
			args := make([]program.Expr, len(fa.QualArgs))
			for i, a := range fa.QualArgs {
				re, err := l.resolveExpr(currentModule, locals, a, where)
				if err != nil {
					return nil, err
				}
				args[i] = re
			}
			fv.Value = &program.QualifierCall{Decl: qdecl, Args: args}
			cell, err := l.resolveSetRef(currentModule, locals, fa.WriteTo, where)
			if err != nil {
				return nil, err
			}
			fv.WriteTo = cell
		} else {
			re, err := l.resolveExpr(currentModule, locals, fa.Value, where)
			if err != nil {
				return nil, err
			}
			fv.Value = re
		}
		fields = append(fields, fv)
	}
	return &program.MessageExpr{Decl: decl, Fields: fields}, nil
}

func (l *Linker) resolveMessageArrayLiteral(currentModule string, locals map[string]program.Type, v *ast.MessageArrayLiteral, where string) (*program.MessageArrayExpr, error) {
	decl, err := lookup[*program.MessageDecl](l, where, "message", currentModule, v.Name,
		func(pm *program.Module) map[string]*program.MessageDecl { return pm.Messages })
	if err != nil {
		return nil, err
	}
	elems := make([]*program.MessageExpr, len(v.Elements))
	for i, el := range v.Elements {
		me, err := l.resolveMessageLiteral(currentModule, locals, el, where)
		if err != nil {
			return nil, err
		}
		elems[i] = me
	}
	return &program.MessageArrayExpr{Decl: decl, Elements: elems}, nil
}

func fieldNames(r *program.Role) []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

func fieldDeclNames(m *program.MessageDecl) []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}
