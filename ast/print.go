package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders m back into STL source text, the exact counterpart of
// package parser's Parse: re-parsing Print(m) reproduces a structurally
// equal tree (source positions and comments aside, since neither survives
// the tree). Grounded on the original tool's NamedObject.__str__ debug
// printers, generalized here into full reparsable syntax.
func Print(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s;\n\n", m.Name)
	for _, c := range m.Constants {
		printConst(&b, c)
	}
	for _, s := range m.States {
		printState(&b, s)
	}
	for _, r := range m.Roles {
		printRole(&b, r)
	}
	for _, msg := range m.Messages {
		printMessage(&b, msg)
	}
	for _, q := range m.Qualifiers {
		printQualifier(&b, q)
	}
	for _, e := range m.Events {
		printEvent(&b, e)
	}
	for _, t := range m.Transitions {
		printTransition(&b, t)
	}
	return b.String()
}

func printType(t Type) string {
	if t.Kind == "message" {
		return t.Message
	}
	return t.Kind
}

func printTypeList(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = printType(t)
	}
	return strings.Join(parts, ", ")
}

func printIdentList(names []string) string {
	return strings.Join(names, ", ")
}

func printParamList(params []EventParam) string {
	parts := make([]string, len(params))
	for i, p := range params {
		prefix := ""
		if p.ByRef {
			prefix = "&"
		}
		parts[i] = fmt.Sprintf("%s%s %s", prefix, printType(p.Type), p.Name)
	}
	return strings.Join(parts, ", ")
}

func printExprList(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = printExpr(a)
	}
	return strings.Join(parts, ", ")
}

func printExpr(e Expr) string {
	switch v := e.(type) {
	case *IntLit:
		return strconv.FormatInt(v.Value, 10)
	case *StringLit:
		return `"` + escapeString(v.Value) + `"`
	case *BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *Ident:
		return v.Name
	case *GetRef:
		if v.Field == "" {
			return "$" + v.Name
		}
		return "$" + v.Name + "." + v.Field
	case *SetRef:
		if v.Field == "" {
			return "&" + v.Name
		}
		return "&" + v.Name + "." + v.Field
	case *MessageLiteral:
		return printMessageLiteral(v)
	case *MessageArrayLiteral:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = printMessageLiteral(el)
		}
		return fmt.Sprintf("%s [ %s ]", v.Name, strings.Join(parts, ", "))
	case *QualifierCallExpr:
		return fmt.Sprintf("%s(%s)", v.Name, printExprList(v.Args))
	default:
		return fmt.Sprintf("/* unprintable %T */", e)
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func printMessageLiteral(lit *MessageLiteral) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s { ", lit.Name)
	for _, fa := range lit.Fields {
		if fa.Qualifier != "" {
			fmt.Fprintf(&b, "%s = %s(%s) -> %s; ", fa.Field, fa.Qualifier, printExprList(fa.QualArgs), fa.WriteTo.Name)
			continue
		}
		fmt.Fprintf(&b, "%s = %s; ", fa.Field, printExpr(fa.Value))
	}
	b.WriteString("}")
	return b.String()
}

func printConst(b *strings.Builder, c *ConstDecl) {
	fmt.Fprintf(b, "const %s %s = %s;\n", printType(c.Type), c.Name, printExpr(c.Value))
}

func printState(b *strings.Builder, s *StateDecl) {
	if len(s.ParamTypes) > 0 {
		fmt.Fprintf(b, "state %s(%s) { %s }\n", s.Name, printTypeList(s.ParamTypes), printIdentList(s.Values))
		return
	}
	fmt.Fprintf(b, "state %s { %s }\n", s.Name, printIdentList(s.Values))
}

func printRole(b *strings.Builder, r *RoleDecl) {
	fmt.Fprintf(b, "role %s {\n", r.Name)
	for _, f := range r.Fields {
		fmt.Fprintf(b, "  %s %s;\n", printType(f.Type), f.Name)
	}
	b.WriteString("}\n")
}

func printMessage(b *strings.Builder, msg *MessageDecl) {
	arr := ""
	if msg.IsArray {
		arr = "[]"
	}
	fmt.Fprintf(b, "message %s%s {\n", msg.Name, arr)
	if msg.Encode != "" {
		fmt.Fprintf(b, "  encode %q;\n", msg.Encode)
	}
	if msg.External != "" {
		fmt.Fprintf(b, "  external %q;\n", msg.External)
	}
	for _, f := range msg.Fields {
		mult := ""
		switch f.Multiplicity {
		case Optional:
			mult = "optional "
		case Repeated:
			mult = "repeated "
		}
		fmt.Fprintf(b, "  %s%s %s;\n", mult, printType(f.Type), f.Name)
	}
	for _, nested := range msg.Nested {
		printMessage(b, nested)
	}
	b.WriteString("}\n")
}

func printQualifier(b *strings.Builder, q *QualifierDecl) {
	fmt.Fprintf(b, "qualifier %s(%s) %s", q.Name, printTypeList(q.ParamTypes), printType(q.ReturnType))
	if q.External != "" {
		fmt.Fprintf(b, " external %q", q.External)
	}
	b.WriteString(";\n")
}

func printEvent(b *strings.Builder, e *EventDecl) {
	fmt.Fprintf(b, "event %s(%s)", e.Name, printParamList(e.Params))
	switch e.BodyKind {
	case ExternalEventBody:
		fmt.Fprintf(b, " = external %q", e.External)
	case CompositeEventBody:
		fmt.Fprintf(b, " = %s(%s)", e.Callee, printExprList(e.Args))
	}
	b.WriteString(";\n")
}

func printTransition(b *strings.Builder, t *TransitionDecl) {
	fmt.Fprintf(b, "transition %s(%s) {\n", t.Name, printParamList(t.Params))
	for _, lo := range t.Locals {
		fmt.Fprintf(b, "  %s %s;\n", printType(lo.Type), lo.Name)
	}
	if len(t.PreStates) > 0 {
		b.WriteString("  pre_states {\n")
		for _, set := range t.PreStates {
			fmt.Fprintf(b, "    %s;\n", printStateRefOrSet(set))
		}
		b.WriteString("  }\n")
	}
	if len(t.Events) > 0 {
		b.WriteString("  events {\n")
		for _, te := range t.Events {
			fmt.Fprintf(b, "    %s -> %s(%s) -> %s;\n", te.Source, te.Callee, printExprList(te.Args), te.Target)
		}
		b.WriteString("  }\n")
	}
	if len(t.PostStates) > 0 {
		b.WriteString("  post_states {\n")
		for _, ref := range t.PostStates {
			fmt.Fprintf(b, "    %s;\n", printStateRef(ref))
		}
		b.WriteString("  }\n")
	}
	if len(t.ErrorStates) > 0 {
		b.WriteString("  error_states {\n")
		for _, ref := range t.ErrorStates {
			fmt.Fprintf(b, "    %s;\n", printStateRef(ref))
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
}

func printStateRef(ref StateRef) string {
	if len(ref.Params) == 0 {
		return fmt.Sprintf("%s = %s", ref.Name, ref.Value)
	}
	return fmt.Sprintf("%s(%s) = %s", ref.Name, printExprList(ref.Params), ref.Value)
}

func printStateRefOrSet(set StateRefOrSet) string {
	parts := make([]string, len(set.Alternatives))
	for i, alt := range set.Alternatives {
		parts[i] = alt.Value
	}
	base := set.Alternatives[0]
	prefix := base.Name
	if len(base.Params) > 0 {
		prefix = fmt.Sprintf("%s(%s)", base.Name, printExprList(base.Params))
	}
	return fmt.Sprintf("%s = %s", prefix, strings.Join(parts, " * "))
}
