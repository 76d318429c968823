// Package value implements the STL runtime value model: a tagged-variant
// value type plus the json, bytestream, and protobuf encodings a
// MessageDecl may declare.
package value

import (
	"fmt"

	"github.com/stl-run/stl/program"
)

// Kind tags the variant a Value holds.
type Kind int

const (
	KNull Kind = iota
	KInt
	KBool
	KString
	KMessage
	KMessageArray
	KState
)

// StateValue is a symbolic value assigned to a StateInstance: the decl's
// value name, e.g. "kConnected".
type StateValue struct {
	Decl  *program.StateDecl
	Value string
}

// Value is a tagged runtime value: int, bool, string, a message-instance, a
// message-array, a state-instance's symbolic value, or null/absent.
type Value struct {
	Kind    Kind
	Int     int64
	Bool    bool
	Str     string
	Message *Message
	Array   []*Message
	State   StateValue
}

func Int(v int64) Value              { return Value{Kind: KInt, Int: v} }
func Bool(v bool) Value              { return Value{Kind: KBool, Bool: v} }
func String(v string) Value          { return Value{Kind: KString, Str: v} }
func Null() Value                    { return Value{Kind: KNull} }
func MessageVal(m *Message) Value    { return Value{Kind: KMessage, Message: m} }
func MessageArray(a []*Message) Value { return Value{Kind: KMessageArray, Array: a} }
func StateVal(s StateValue) Value    { return Value{Kind: KState, State: s} }

func (v Value) IsNull() bool { return v.Kind == KNull }

// Equal compares two values by kind and content; message equality compares
// by field name, not declaration position (field order is significant for
// encoding only, per the STL data model).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KInt:
		return v.Int == o.Int
	case KBool:
		return v.Bool == o.Bool
	case KString:
		return v.Str == o.Str
	case KMessage:
		return v.Message.Equal(o.Message)
	case KMessageArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KState:
		return v.State.Decl == o.State.Decl && v.State.Value == o.State.Value
	case KNull:
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KInt:
		return fmt.Sprintf("%d", v.Int)
	case KBool:
		return fmt.Sprintf("%t", v.Bool)
	case KString:
		return v.Str
	case KMessage:
		return v.Message.String()
	case KMessageArray:
		return fmt.Sprintf("%v", v.Array)
	case KState:
		return v.State.Value
	default:
		return "null"
	}
}
