package value

import (
	"bytes"
	"fmt"

	"github.com/stl-run/stl/program"
)

// FieldCodec encodes and decodes a single field's value to/from a
// bytestream fragment; the layout is left entirely to the implementation,
// as the language leaves per-field bytestream layout out of scope.
type FieldCodec interface {
	EncodeField(v Value) ([]byte, error)
	// DecodeField consumes a prefix of data and returns the decoded value
	// plus the number of bytes consumed.
	DecodeField(data []byte) (Value, int, error)
}

// BytestreamCodec supplies a FieldCodec per external reference name,
// resolved from a MessageDecl's own External reference; that one
// FieldCodec encodes and decodes every field of the message.
type BytestreamCodec interface {
	FieldCodec(externalRef string) (FieldCodec, error)
}

// EncodeBytestream concatenates each field's encoding in declaration order
// using codec, keyed on the MessageDecl's External reference.
func EncodeBytestream(codec BytestreamCodec, m *Message) ([]byte, error) {
	fc, err := codec.FieldCodec(m.Decl.External)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, f := range m.Fields {
		b, err := fc.EncodeField(f.Value)
		if err != nil {
			return nil, fmt.Errorf("value: encode field %q: %w", f.Name, err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// DecodeBytestream is the inverse of EncodeBytestream.
func DecodeBytestream(codec BytestreamCodec, decl *program.MessageDecl, raw []byte) (*Message, error) {
	fc, err := codec.FieldCodec(decl.External)
	if err != nil {
		return nil, err
	}
	m := NewMessage(decl)
	offset := 0
	for _, f := range decl.Fields {
		if offset > len(raw) {
			return nil, fmt.Errorf("value: bytestream truncated before field %q", f.Name)
		}
		v, n, err := fc.DecodeField(raw[offset:])
		if err != nil {
			return nil, fmt.Errorf("value: decode field %q: %w", f.Name, err)
		}
		if err := m.Set(f.Name, v); err != nil {
			return nil, err
		}
		offset += n
	}
	return m, nil
}
