package program

// Expr is a linked, type-checked expression: a literal, a reference to a
// role field or transition-local variable, a qualifier call, or a message
// literal. Unlike ast.Expr, every name has already been resolved to a
// handle.
type Expr interface {
	exprNode()
}

// IntLit, StringLit, BoolLit are literal values.
type IntLit struct{ Value int64 }
type StringLit struct{ Value string }
type BoolLit struct{ Value bool }

// ConstRef reads a Constant.
type ConstRef struct{ Const *Constant }

// LocalRef reads a transition-local variable or a by-value parameter.
type LocalRef struct{ Name string }

// RoleFieldRef reads a role's field value, `$role.field`.
type RoleFieldRef struct {
	Role      *Role
	FieldName string
}

// LocalCell is a write target: `&localVar` or `&role.field`.
type LocalCell struct {
	Name string // transition-local name, "" if Role is set
	Role *Role
	Field string
}

// QualifierCall invokes a QualifierDecl through the primitive registry and
// yields its return value.
type QualifierCall struct {
	Decl *QualifierDecl
	Args []Expr
}

// RefArg is a by-reference argument passed to an event's reference
// parameter: `&localVar` or `&role.field`.
type RefArg struct {
	Cell *LocalCell
}

// FieldValue is one resolved field of a MessageExpr: either a
// plain expression, or a qualifier call whose result is also written to a
// LocalCell (the qualifier-write form).
type FieldValue struct {
	Field     *Field
	Value     Expr
	WriteTo   *LocalCell
}

// MessageExpr is a resolved object-literal expression.
type MessageExpr struct {
	Decl   *MessageDecl
	Fields []FieldValue
}

// MessageArrayExpr is a resolved array-literal expression.
type MessageArrayExpr struct {
	Decl     *MessageDecl
	Elements []*MessageExpr
}

func (*IntLit) exprNode()           {}
func (*StringLit) exprNode()        {}
func (*BoolLit) exprNode()          {}
func (*ConstRef) exprNode()         {}
func (*LocalRef) exprNode()         {}
func (*RoleFieldRef) exprNode()     {}
func (*QualifierCall) exprNode()    {}
func (*RefArg) exprNode()           {}
func (*MessageExpr) exprNode()      {}
func (*MessageArrayExpr) exprNode() {}
