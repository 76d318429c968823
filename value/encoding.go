package value

import (
	"fmt"

	"github.com/stl-run/stl/program"
)

// Codecs bundles the external codec/schema sources needed for non-JSON
// encodings; a run wires these from the primitive registry.
type Codecs struct {
	Bytestream BytestreamCodec
	Protobuf   ProtoSchemaRegistry
}

// Encode dispatches to json, bytestream, or protobuf per m.Decl.Encoding.
func Encode(codecs Codecs, m *Message) ([]byte, error) {
	switch m.Decl.Encoding {
	case program.EncodeJSON:
		return EncodeJSON(m)
	case program.EncodeBytestream:
		if codecs.Bytestream == nil {
			return nil, fmt.Errorf("value: no bytestream codec registered for %s", m.Decl.QualifiedName)
		}
		return EncodeBytestream(codecs.Bytestream, m)
	case program.EncodeProtobuf:
		if codecs.Protobuf == nil {
			return nil, fmt.Errorf("value: no protobuf schema registered for %s", m.Decl.QualifiedName)
		}
		return EncodeProtobuf(codecs.Protobuf, m)
	default:
		return nil, fmt.Errorf("value: unknown encoding for %s", m.Decl.QualifiedName)
	}
}
