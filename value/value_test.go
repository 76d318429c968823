package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/program"
)

func pingDecl() *program.MessageDecl {
	return &program.MessageDecl{
		QualifiedName: "conn::Ping",
		Encoding:      program.EncodeJSON,
		Fields: []program.Field{
			{Name: "id", Type: program.Type{Kind: program.TInt}, Multiplicity: program.Required},
			{Name: "text", Type: program.Type{Kind: program.TString}, Multiplicity: program.Required},
			{Name: "ok", Type: program.Type{Kind: program.TBool}, Multiplicity: program.Required},
		},
	}
}

func TestEncodeJSON_FieldOrderFollowsDeclarationOrderNotSetOrder(t *testing.T) {
	decl := pingDecl()
	m := NewMessage(decl)
	// Set out of declaration order; encoding must still emit id, text, ok.
	require.NoError(t, m.Set("ok", Bool(true)))
	require.NoError(t, m.Set("id", Int(7)))
	require.NoError(t, m.Set("text", String("hi")))

	out, err := EncodeJSON(m)
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"text":"hi","ok":true}`, string(out))
}

func TestEncodeJSON_RepeatEncodingIsByteIdentical(t *testing.T) {
	decl := pingDecl()
	m := NewMessage(decl)
	require.NoError(t, m.Set("id", Int(1)))
	require.NoError(t, m.Set("text", String("a")))
	require.NoError(t, m.Set("ok", Bool(false)))

	first, err := EncodeJSON(m)
	require.NoError(t, err)
	second, err := EncodeJSON(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodeJSON_NestedMessage(t *testing.T) {
	inner := &program.MessageDecl{
		QualifiedName: "conn::Inner",
		Fields:        []program.Field{{Name: "n", Type: program.Type{Kind: program.TInt}}},
	}
	outer := &program.MessageDecl{
		QualifiedName: "conn::Outer",
		Fields: []program.Field{
			{Name: "inner", Type: program.Type{Kind: program.TMessage, Decl: inner}},
		},
	}
	im := NewMessage(inner)
	require.NoError(t, im.Set("n", Int(42)))
	om := NewMessage(outer)
	require.NoError(t, om.Set("inner", MessageVal(im)))

	out, err := EncodeJSON(om)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inner":{"n":42}}`, string(out))
}

func TestDecodeJSON_RoundTripsThroughEncode(t *testing.T) {
	decl := pingDecl()
	m := NewMessage(decl)
	require.NoError(t, m.Set("id", Int(9)))
	require.NoError(t, m.Set("text", String("round-trip")))
	require.NoError(t, m.Set("ok", Bool(true)))

	raw, err := EncodeJSON(m)
	require.NoError(t, err)

	decoded, err := DecodeJSON(decl, raw)
	require.NoError(t, err)
	assert.True(t, m.Equal(decoded))
}

func TestDecodeJSON_MissingRequiredFieldErrors(t *testing.T) {
	decl := pingDecl()
	_, err := DecodeJSON(decl, []byte(`{"id":1,"text":"x"}`))
	assert.Error(t, err)
}

func TestMessage_MissingRequiredReportsUnsetFields(t *testing.T) {
	decl := pingDecl()
	m := NewMessage(decl)
	require.NoError(t, m.Set("id", Int(1)))
	assert.ElementsMatch(t, []string{"text", "ok"}, m.MissingRequired())
}
