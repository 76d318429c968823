package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/ast"
)

const roundTripSrc = `
module conn;

const int kMaxRetries = 3;

state Connection(int) { kDisconnected, kConnecting, kConnected }

role Client {
  int id;
}

role Server {
  int id;
}

message ConnectRequest {
  encode "json";
  int clientId;
  optional string note;
  repeated bool flags;
}

qualifier UniqueInt(int) int external "stl.lib.UniqueInt";

event Connect(&int reqId, ConnectRequest req) = external "conn.Connect";
event Retry(int n) = Connect(&n, ConnectRequest { clientId = 0; note = "hi \"there\""; flags = true; });

transition DoConnect(int cid) {
  int reqId;
  pre_states {
    Connection(cid) = kDisconnected * kConnecting;
  }
  events {
    Client -> Connect(&reqId, ConnectRequest { clientId = UniqueInt(0) -> reqId; }) -> Server;
  }
  post_states {
    Connection(cid) = kConnected;
  }
  error_states {
    Connection(cid) = kDisconnected;
  }
}
`

func TestPrint_RoundTripReparsesToStructurallyEqualTree(t *testing.T) {
	original, err := Parse(roundTripSrc)
	require.NoError(t, err)

	printed := ast.Print(original)

	reparsed, err := Parse(printed)
	require.NoError(t, err, "printed source:\n%s", printed)

	assert.True(t, sameModule(original, reparsed), "printed source:\n%s", printed)
}

func TestPrint_RoundTripIsIdempotentOnAlreadyPrintedSource(t *testing.T) {
	original, err := Parse(roundTripSrc)
	require.NoError(t, err)

	once := ast.Print(original)
	reparsedOnce, err := Parse(once)
	require.NoError(t, err)

	twice := ast.Print(reparsedOnce)
	reparsedTwice, err := Parse(twice)
	require.NoError(t, err)

	assert.True(t, sameModule(reparsedOnce, reparsedTwice))
}

// sameModule compares two ast.Module trees structurally, ignoring every
// lexer.Position field: the printed source's token columns/lines will not
// generally match the original's, since Print does not try to preserve
// original layout or comments.

func sameModule(a, b *ast.Module) bool {
	if a.Name != b.Name {
		return false
	}
	if len(a.Constants) != len(b.Constants) || len(a.States) != len(b.States) ||
		len(a.Roles) != len(b.Roles) || len(a.Messages) != len(b.Messages) ||
		len(a.Qualifiers) != len(b.Qualifiers) || len(a.Events) != len(b.Events) ||
		len(a.Transitions) != len(b.Transitions) {
		return false
	}
	for i := range a.Constants {
		if !sameConst(a.Constants[i], b.Constants[i]) {
			return false
		}
	}
	for i := range a.States {
		if !sameState(a.States[i], b.States[i]) {
			return false
		}
	}
	for i := range a.Roles {
		if !sameRole(a.Roles[i], b.Roles[i]) {
			return false
		}
	}
	for i := range a.Messages {
		if !sameMessage(a.Messages[i], b.Messages[i]) {
			return false
		}
	}
	for i := range a.Qualifiers {
		if !sameQualifier(a.Qualifiers[i], b.Qualifiers[i]) {
			return false
		}
	}
	for i := range a.Events {
		if !sameEvent(a.Events[i], b.Events[i]) {
			return false
		}
	}
	for i := range a.Transitions {
		if !sameTransition(a.Transitions[i], b.Transitions[i]) {
			return false
		}
	}
	return true
}

func sameType(a, b ast.Type) bool { return a.Kind == b.Kind && a.Message == b.Message }

func sameTypes(a, b []ast.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameType(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameConst(a, b *ast.ConstDecl) bool {
	return a.Name == b.Name && sameType(a.Type, b.Type) && sameExpr(a.Value, b.Value)
}

func sameState(a, b *ast.StateDecl) bool {
	if a.Name != b.Name || !sameTypes(a.ParamTypes, b.ParamTypes) || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}

func sameRole(a, b *ast.RoleDecl) bool {
	if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || !sameType(a.Fields[i].Type, b.Fields[i].Type) {
			return false
		}
	}
	return true
}

func sameMessage(a, b *ast.MessageDecl) bool {
	if a.Name != b.Name || a.IsArray != b.IsArray || a.Encode != b.Encode || a.External != b.External {
		return false
	}
	if len(a.Fields) != len(b.Fields) || len(a.Nested) != len(b.Nested) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Multiplicity != b.Fields[i].Multiplicity ||
			!sameType(a.Fields[i].Type, b.Fields[i].Type) {
			return false
		}
	}
	for i := range a.Nested {
		if !sameMessage(a.Nested[i], b.Nested[i]) {
			return false
		}
	}
	return true
}

func sameQualifier(a, b *ast.QualifierDecl) bool {
	return a.Name == b.Name && a.External == b.External &&
		sameTypes(a.ParamTypes, b.ParamTypes) && sameType(a.ReturnType, b.ReturnType)
}

func sameParams(a, b []ast.EventParam) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].ByRef != b[i].ByRef || !sameType(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func sameEvent(a, b *ast.EventDecl) bool {
	if a.Name != b.Name || a.BodyKind != b.BodyKind || a.External != b.External || a.Callee != b.Callee {
		return false
	}
	return sameParams(a.Params, b.Params) && sameExprs(a.Args, b.Args)
}

func sameExprs(a, b []ast.Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameExpr(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameFieldAssign(a, b ast.FieldAssign) bool {
	if a.Field != b.Field || a.Qualifier != b.Qualifier {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	if a.Value != nil && !sameExpr(a.Value, b.Value) {
		return false
	}
	if !sameExprs(a.QualArgs, b.QualArgs) {
		return false
	}
	if (a.WriteTo == nil) != (b.WriteTo == nil) {
		return false
	}
	if a.WriteTo != nil && (a.WriteTo.Name != b.WriteTo.Name || a.WriteTo.Field != b.WriteTo.Field) {
		return false
	}
	return true
}

func sameMessageLiteral(a, b *ast.MessageLiteral) bool {
	if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !sameFieldAssign(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

func sameExpr(a, b ast.Expr) bool {
	switch av := a.(type) {
	case *ast.IntLit:
		bv, ok := b.(*ast.IntLit)
		return ok && av.Value == bv.Value
	case *ast.StringLit:
		bv, ok := b.(*ast.StringLit)
		return ok && av.Value == bv.Value
	case *ast.BoolLit:
		bv, ok := b.(*ast.BoolLit)
		return ok && av.Value == bv.Value
	case *ast.Ident:
		bv, ok := b.(*ast.Ident)
		return ok && av.Name == bv.Name
	case *ast.GetRef:
		bv, ok := b.(*ast.GetRef)
		return ok && av.Name == bv.Name && av.Field == bv.Field
	case *ast.SetRef:
		bv, ok := b.(*ast.SetRef)
		return ok && av.Name == bv.Name && av.Field == bv.Field
	case *ast.MessageLiteral:
		bv, ok := b.(*ast.MessageLiteral)
		return ok && sameMessageLiteral(av, bv)
	case *ast.MessageArrayLiteral:
		bv, ok := b.(*ast.MessageArrayLiteral)
		if !ok || av.Name != bv.Name || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !sameMessageLiteral(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *ast.QualifierCallExpr:
		bv, ok := b.(*ast.QualifierCallExpr)
		return ok && av.Name == bv.Name && sameExprs(av.Args, bv.Args)
	default:
		return false
	}
}

func sameStateRef(a, b ast.StateRef) bool {
	return a.Name == b.Name && a.Value == b.Value && sameExprs(a.Params, b.Params)
}

func sameStateRefs(a, b []ast.StateRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameStateRef(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameStateRefOrSet(a, b ast.StateRefOrSet) bool {
	if len(a.Alternatives) != len(b.Alternatives) {
		return false
	}
	for i := range a.Alternatives {
		if !sameStateRef(a.Alternatives[i], b.Alternatives[i]) {
			return false
		}
	}
	return true
}

func sameTransitionEvent(a, b ast.TransitionEvent) bool {
	return a.Source == b.Source && a.Callee == b.Callee && a.Target == b.Target && sameExprs(a.Args, b.Args)
}

func sameTransition(a, b *ast.TransitionDecl) bool {
	if a.Name != b.Name {
		return false
	}
	if !sameParams(a.Params, b.Params) {
		return false
	}
	if len(a.Locals) != len(b.Locals) {
		return false
	}
	for i := range a.Locals {
		if a.Locals[i].Name != b.Locals[i].Name || !sameType(a.Locals[i].Type, b.Locals[i].Type) {
			return false
		}
	}
	if len(a.PreStates) != len(b.PreStates) {
		return false
	}
	for i := range a.PreStates {
		if !sameStateRefOrSet(a.PreStates[i], b.PreStates[i]) {
			return false
		}
	}
	if len(a.Events) != len(b.Events) {
		return false
	}
	for i := range a.Events {
		if !sameTransitionEvent(a.Events[i], b.Events[i]) {
			return false
		}
	}
	if !sameStateRefs(a.PostStates, b.PostStates) || !sameStateRefs(a.ErrorStates, b.ErrorStates) {
		return false
	}
	return true
}
