// Package program is the linked, type-checked, immutable representation of
// an STL program handed to the executor.
package program

import "fmt"

// TypeKind is a resolved field/parameter type.
type TypeKind int

const (
	TInt TypeKind = iota
	TBool
	TString
	TMessage
)

// Type is a resolved type: a scalar kind, or TMessage with Decl populated.
type Type struct {
	Kind TypeKind
	Decl *MessageDecl
}

func (t Type) String() string {
	switch t.Kind {
	case TInt:
		return "int"
	case TBool:
		return "bool"
	case TString:
		return "string"
	case TMessage:
		if t.Decl != nil {
			return "message " + t.Decl.QualifiedName
		}
		return "message"
	default:
		return "unknown"
	}
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == TMessage {
		return t.Decl == o.Decl
	}
	return true
}

// Constant is a typed, non-overridable literal value.
type Constant struct {
	QualifiedName string
	Type          Type
	Value         interface{}
}

// StateDecl declares a parameterized slot in the global valuation with a
// finite set of symbolic values.
type StateDecl struct {
	QualifiedName string
	ParamTypes    []Type
	Values        []string // symbolic value names, unique within the decl
}

func (d *StateDecl) HasValue(name string) bool {
	for _, v := range d.Values {
		if v == name {
			return true
		}
	}
	return false
}

// StateInstance is a StateDecl bound to concrete parameter values.
// Equality is structural over (Decl, Params).
type StateInstance struct {
	Decl   *StateDecl
	Params []interface{}
}

// Key returns a canonical, hashable representation of the instance, for use
// as a map key in the global-state valuation.
func (s StateInstance) Key() string {
	return fmt.Sprintf("%s%v", s.Decl.QualifiedName, s.Params)
}

// RoleField is one field of a Role.
type RoleField struct {
	Name string
	Type Type
}

// Role declares a named actor's field layout; the executor creates one
// instance per declared role.
type Role struct {
	QualifiedName string
	Fields        []RoleField
}

func (r *Role) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Encoding is the wire encoding a MessageDecl declares.
type Encoding int

const (
	EncodeUnset Encoding = iota
	EncodeJSON
	EncodeBytestream
	EncodeProtobuf
)

// Multiplicity is the multiplicity a message field is declared with.
type Multiplicity int

const (
	Required Multiplicity = iota
	Optional
	Repeated
)

// Field is one field of a MessageDecl, in declaration order.
type Field struct {
	Name         string
	Type         Type
	Multiplicity Multiplicity
}

// MessageDecl is a message type. Fields holds the explicitly declared
// fields only; External records the message's `external` reference
// verbatim, and the linker does not derive any fields from it.
type MessageDecl struct {
	QualifiedName string
	IsArray       bool
	Encoding      Encoding
	External      string // "" unless the message declares `external`
	Fields        []Field
}

func (m *MessageDecl) FieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// QualifierDecl is always external: a generator/validator function bound at
// execution time through the primitive registry.
type QualifierDecl struct {
	QualifiedName string
	ParamTypes    []Type
	ReturnType    Type
	External      string
}

// EventParam is one parameter of an EventDecl or a bound transition.
type EventParam struct {
	Name  string
	Type  Type
	ByRef bool
}

// EventBodyKind distinguishes external, composite, and no-op event bodies.
type EventBodyKind int

const (
	NoOpBody EventBodyKind = iota
	ExternalBody
	CompositeBody
)

// EventDecl is a resolved event declaration. For a composite body, Callee
// is the invoked event and Args its call arguments: a literal, a role-field
// or local-variable reference, or a message literal — represented uniformly
// as an Expr from package program's own tiny resolved-expression tree,
// defined in expr.go.
type EventDecl struct {
	QualifiedName string
	Params        []EventParam
	BodyKind      EventBodyKind
	External      string
	Callee        *EventDecl
	Args          []Expr
}

// TransitionLocal is a transition-local variable declaration.
type TransitionLocal struct {
	Name string
	Type Type
}

// StateRef names a StateInstance plus which symbolic value it must hold (in
// pre_states) or must be set to (in post_states/error_states).
type StateRef struct {
	Decl   *StateDecl
	Params []Expr
	Value  string
}

// StateRefOrSet is one pre_states entry: a StateInstance together with the
// set of values that satisfy it (a single value, or an OR-set).
type StateRefOrSet struct {
	Decl     *StateDecl
	Params   []Expr
	Values   []string
}

// TransitionEvent is one `source -> EventCall -> target` entry, resolved to
// concrete role and event handles.
type TransitionEvent struct {
	Source *Role
	Callee *EventDecl
	Args   []Expr
	Target *Role
}

// TransitionDecl is the pre_states/events/post_states/error_states shape.
type TransitionDecl struct {
	QualifiedName string
	Params        []EventParam
	Locals        []TransitionLocal
	PreStates     []StateRefOrSet
	Events        []TransitionEvent
	PostStates    []StateRef
	ErrorStates   []StateRef
}

// TransitionBinding is a TransitionDecl bound to concrete parameter values;
// this is what the executor selects and fires.
type TransitionBinding struct {
	Decl   *TransitionDecl
	Params []interface{}
}

// Module is a namespace of declarations, keyed by local name within kind.
type Module struct {
	Name        string
	Constants   map[string]*Constant
	States      map[string]*StateDecl
	Roles       map[string]*Role
	Messages    map[string]*MessageDecl
	Qualifiers  map[string]*QualifierDecl
	Events      map[string]*EventDecl
	Transitions map[string]*TransitionDecl
}

func newModule(name string) *Module {
	return &Module{
		Name:        name,
		Constants:   map[string]*Constant{},
		States:      map[string]*StateDecl{},
		Roles:       map[string]*Role{},
		Messages:    map[string]*MessageDecl{},
		Qualifiers:  map[string]*QualifierDecl{},
		Events:      map[string]*EventDecl{},
		Transitions: map[string]*TransitionDecl{},
	}
}

// Program is the union of all linked modules, the immutable artifact handed
// to the executor.
type Program struct {
	Modules map[string]*Module
}

// New returns an empty Program; package link populates it.
func New() *Program {
	return &Program{Modules: map[string]*Module{}}
}

// Module returns the named module, creating it if absent.
func (p *Program) Module(name string) *Module {
	m, ok := p.Modules[name]
	if !ok {
		m = newModule(name)
		p.Modules[name] = m
	}
	return m
}
