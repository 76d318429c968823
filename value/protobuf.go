package value

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/stl-run/stl/program"
)

// ProtoSchema converts between a Message and the registered protobuf
// message type for one MessageDecl's External reference. Serialization
// itself is delegated to google.golang.org/protobuf/proto; the schema only
// supplies the conversion, since the registry (not the core) owns the
// generated proto types.
type ProtoSchema interface {
	ToProto(m *Message) (proto.Message, error)
	FromProto(decl *program.MessageDecl, pm proto.Message) (*Message, error)
	// New returns a zero-value instance of the registered proto.Message
	// type for decl, so Decode has something to unmarshal into.
	New(decl *program.MessageDecl) (proto.Message, error)
}

// ProtoSchemaRegistry resolves an External reference to its ProtoSchema.
type ProtoSchemaRegistry interface {
	ProtoSchema(externalRef string) (ProtoSchema, error)
}

// EncodeProtobuf serializes m via its registered protobuf schema.
func EncodeProtobuf(reg ProtoSchemaRegistry, m *Message) ([]byte, error) {
	schema, err := reg.ProtoSchema(m.Decl.External)
	if err != nil {
		return nil, err
	}
	pm, err := schema.ToProto(m)
	if err != nil {
		return nil, fmt.Errorf("value: convert %s to protobuf: %w", m.Decl.QualifiedName, err)
	}
	return proto.Marshal(pm)
}

// DecodeProtobuf is the inverse of EncodeProtobuf.
func DecodeProtobuf(reg ProtoSchemaRegistry, decl *program.MessageDecl, raw []byte) (*Message, error) {
	schema, err := reg.ProtoSchema(decl.External)
	if err != nil {
		return nil, err
	}
	pm, err := schema.New(decl)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(raw, pm); err != nil {
		return nil, fmt.Errorf("value: unmarshal protobuf for %s: %w", decl.QualifiedName, err)
	}
	return schema.FromProto(decl, pm)
}
