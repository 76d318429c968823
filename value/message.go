package value

import (
	"fmt"
	"strings"

	"github.com/stl-run/stl/program"
)

// FieldSlot is one field of a Message: name plus value, in declaration
// order. An absent optional field is represented explicitly with a null
// Value rather than by omission.
type FieldSlot struct {
	Name  string
	Value Value
}

// Message is an ordered mapping from field name to Value, matching its
// MessageDecl's declared field order.
type Message struct {
	Decl   *program.MessageDecl
	Fields []FieldSlot
}

// NewMessage builds a Message with every field defaulted to null, in decl
// order, ready to be populated by the executor.
func NewMessage(decl *program.MessageDecl) *Message {
	m := &Message{Decl: decl, Fields: make([]FieldSlot, len(decl.Fields))}
	for i, f := range decl.Fields {
		m.Fields[i] = FieldSlot{Name: f.Name}
	}
	return m
}

// Set assigns the named field's value. Returns an error if no such field is
// declared.
func (m *Message) Set(name string, v Value) error {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			m.Fields[i].Value = v
			return nil
		}
	}
	return fmt.Errorf("value: message %s has no field %q", m.Decl.QualifiedName, name)
}

// Get returns the named field's value, or (Value{}, false) if undeclared.
func (m *Message) Get(name string) (Value, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// MissingRequired returns the names of every required field still null,
// used to enforce "required fields must appear in every literal."
func (m *Message) MissingRequired() []string {
	var missing []string
	for i, f := range m.Decl.Fields {
		if f.Multiplicity == program.Required && m.Fields[i].Value.IsNull() {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Equal compares two messages field-by-name; declaration order is not part
// of equality, only of encoding.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Decl != o.Decl {
		return false
	}
	for _, f := range m.Fields {
		ov, ok := o.Get(f.Name)
		if !ok || !f.Value.Equal(ov) {
			return false
		}
	}
	return true
}

func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.Decl.QualifiedName)
	b.WriteByte('{')
	for i, f := range m.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", f.Name, f.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}
