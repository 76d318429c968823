// Package ast defines the syntax tree produced by package parser.
package ast

import "github.com/stl-run/stl/lexer"

// Module is the single top-level unit of an STL source file: a name plus
// any ordering of declarations.
type Module struct {
	Name         string
	Pos          lexer.Position
	Constants    []*ConstDecl
	States       []*StateDecl
	Roles        []*RoleDecl
	Messages     []*MessageDecl
	Qualifiers   []*QualifierDecl
	Events       []*EventDecl
	Transitions  []*TransitionDecl
}

// Type is a declared field/parameter type reference.
type Type struct {
	Kind    string // "int", "bool", "string", or "message"
	Message string // populated when Kind == "message"
}

// ConstDecl is `const <type> <Name> = <literal>;`.
type ConstDecl struct {
	Pos   lexer.Position
	Name  string
	Type  Type
	Value Expr
}

// StateDecl is `state <Name>(<paramTypes>) { <ValueNames...> }`.
type StateDecl struct {
	Pos        lexer.Position
	Name       string
	ParamTypes []Type
	Values     []string
}

// RoleField is one field of a role declaration.
type RoleField struct {
	Name string
	Type Type
}

// RoleDecl is `role <Name> { <fields> }`.
type RoleDecl struct {
	Pos    lexer.Position
	Name   string
	Fields []RoleField
}

// FieldMultiplicity is the multiplicity a message field is declared with.
type FieldMultiplicity int

const (
	Required FieldMultiplicity = iota
	Optional
	Repeated
)

// FieldDecl is one field inside a MessageDecl.
type FieldDecl struct {
	Name         string
	Type         Type
	Multiplicity FieldMultiplicity
}

// MessageDecl is `message <Name> [ ] { encode "x"; external "y"; fields }`.
type MessageDecl struct {
	Pos      lexer.Position
	Name     string
	IsArray  bool
	Encode   string // "json" | "bytestream" | "protobuf", "" if unset
	External string // external schema reference, "" if unset
	Fields   []FieldDecl
	Nested   []*MessageDecl
}

// QualifierDecl is `qualifier <Name>(<paramTypes>) <returnType> external "x";`.
type QualifierDecl struct {
	Pos        lexer.Position
	Name       string
	ParamTypes []Type
	ReturnType Type
	External   string
}

// EventBodyKind distinguishes the three event body shapes.
type EventBodyKind int

const (
	NoOpBody EventBodyKind = iota
	ExternalEventBody
	CompositeEventBody
)

// EventParam is one parameter of an EventDecl.
type EventParam struct {
	Name      string
	Type      Type
	ByRef     bool
}

// EventDecl is `event <Name>(<params>) = <body>;`.
type EventDecl struct {
	Pos      lexer.Position
	Name     string
	Params   []EventParam
	BodyKind EventBodyKind
	External string        // set when BodyKind == ExternalEventBody
	Callee   string        // set when BodyKind == CompositeEventBody
	Args     []Expr        // set when BodyKind == CompositeEventBody
}

// TransitionEvent is one `source -> EventCall -> target` line.
type TransitionEvent struct {
	Pos    lexer.Position
	Source string
	Callee string
	Args   []Expr
	Target string
}

// TransitionLocal declares a transition-local variable of a given type.
type TransitionLocal struct {
	Name string
	Type Type
}

// StateRef names a StateDecl instance with concrete or symbolic-value args,
// used inside pre_states/post_states/error_states.
type StateRef struct {
	Pos    lexer.Position
	Name   string
	Params []Expr
	Value  string // symbolic value name, e.g. kConnected
}

// StateRefOrSet is one entry of pre_states: either a single StateRef or an
// OR-set of alternative values for the same StateInstance.
type StateRefOrSet struct {
	Alternatives []StateRef
}

// TransitionDecl is `transition <Name>(<params>) { locals; pre_states;
// events; post_states; error_states; }`.
type TransitionDecl struct {
	Pos         lexer.Position
	Name        string
	Params      []EventParam
	Locals      []TransitionLocal
	PreStates   []StateRefOrSet
	Events      []TransitionEvent
	PostStates  []StateRef
	ErrorStates []StateRef
}

// Expr is any expression node appearing in field assignments, event-call
// arguments, or state-reference parameter lists.
type Expr interface {
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct {
	Pos   lexer.Position
	Value int64
}

// StringLit is a double-quoted string literal.
type StringLit struct {
	Pos   lexer.Position
	Value string
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Pos   lexer.Position
	Value bool
}

// Ident is a bare name: a constant, transition parameter, or transition
// local referenced by value.
type Ident struct {
	Pos  lexer.Position
	Name string
}

// GetRef is `$name` or `$role.field`: a read reference to a role field or
// transition-local variable.
type GetRef struct {
	Pos   lexer.Position
	Name  string
	Field string // "" when the reference is a bare local, not role.field
}

// SetRef is `&name` or `&role.field`: a write reference passed as a
// by-reference argument or as a qualifier-write target.
type SetRef struct {
	Pos   lexer.Position
	Name  string
	Field string
}

// FieldAssign is one `field = expr;` or `field = Qualifier(args) -> var;`
// entry inside a message literal.
type FieldAssign struct {
	Pos        lexer.Position
	Field      string
	Value      Expr        // set for a plain `= expr` assignment
	Qualifier  string      // set for a qualifier-write assignment
	QualArgs   []Expr
	WriteTo    *SetRef     // the `-> var` target, nil if absent
}

// MessageLiteral is an object literal `mName { field = expr; ... }`.
type MessageLiteral struct {
	Pos    lexer.Position
	Name   string
	Fields []FieldAssign
}

// MessageArrayLiteral is `mName [ { ... }, { ... } ]`.
type MessageArrayLiteral struct {
	Pos      lexer.Position
	Name     string
	Elements []*MessageLiteral
}

// QualifierCallExpr is `Qualifier(args)` used as a plain value expression
// (not the `-> var` field-assignment form, which is FieldAssign).
type QualifierCallExpr struct {
	Pos  lexer.Position
	Name string
	Args []Expr
}

func (*IntLit) exprNode()              {}
func (*StringLit) exprNode()           {}
func (*BoolLit) exprNode()             {}
func (*Ident) exprNode()               {}
func (*GetRef) exprNode()              {}
func (*SetRef) exprNode()              {}
func (*MessageLiteral) exprNode()      {}
func (*MessageArrayLiteral) exprNode() {}
func (*QualifierCallExpr) exprNode()   {}
