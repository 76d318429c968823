package value

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stl-run/stl/program"
)

// EncodeJSON serializes m as canonical JSON: object keys in field-
// declaration order, numbers as decimal, strings with standard JSON
// escaping. Encoding the same message-instance twice produces
// byte-identical output.
func EncodeJSON(m *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONMessage(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONMessage(buf *bytes.Buffer, m *Message) error {
	buf.WriteByte('{')
	for i, f := range m.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeJSONValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KNull:
		buf.WriteString("null")
	case KInt:
		fmt.Fprintf(buf, "%d", v.Int)
	case KBool:
		fmt.Fprintf(buf, "%t", v.Bool)
	case KString:
		s, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(s)
	case KMessage:
		return writeJSONMessage(buf, v.Message)
	case KMessageArray:
		buf.WriteByte('[')
		for i, elem := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONMessage(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KState:
		s, err := json.Marshal(v.State.Value)
		if err != nil {
			return err
		}
		buf.Write(s)
	default:
		return fmt.Errorf("value: cannot JSON-encode kind %d", v.Kind)
	}
	return nil
}

// DecodeJSON is the inverse of EncodeJSON: it parses raw against decl's
// field list, used during event/message validation on the receive side.
func DecodeJSON(decl *program.MessageDecl, raw []byte) (*Message, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("value: invalid JSON message: %w", err)
	}
	m := NewMessage(decl)
	for _, f := range decl.Fields {
		raw, ok := obj[f.Name]
		if !ok {
			if f.Multiplicity == program.Required {
				return nil, fmt.Errorf("value: missing required field %q", f.Name)
			}
			continue
		}
		v, err := decodeJSONValue(f, raw)
		if err != nil {
			return nil, err
		}
		if err := m.Set(f.Name, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeJSONValue(f program.Field, raw json.RawMessage) (Value, error) {
	if f.Multiplicity == program.Repeated {
		var rawElems []json.RawMessage
		if err := json.Unmarshal(raw, &rawElems); err != nil {
			return Value{}, err
		}
		elems := make([]*Message, len(rawElems))
		for i, re := range rawElems {
			em, err := DecodeJSON(f.Type.Decl, re)
			if err != nil {
				return Value{}, err
			}
			elems[i] = em
		}
		return MessageArray(elems), nil
	}
	switch f.Type.Kind {
	case program.TInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case program.TBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case program.TString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case program.TMessage:
		nested, err := DecodeJSON(f.Type.Decl, raw)
		if err != nil {
			return Value{}, err
		}
		return MessageVal(nested), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported field type for %q", f.Name)
	}
}
