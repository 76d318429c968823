package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteReplacesKnownKeysOnly(t *testing.T) {
	got := Substitute("host: $host\nport: $port\nuntouched: $missing", map[string]string{
		"host": "localhost",
		"port": "8080",
	})
	assert.Equal(t, "host: localhost\nport: 8080\nuntouched: $missing", got)
}

func TestSubstituteIsNonRecursive(t *testing.T) {
	got := Substitute("value: $a", map[string]string{"a": "$b", "b": "never"})
	assert.Equal(t, "value: $b", got)
}

func TestLoadParsesRolesAndValidatesTest(t *testing.T) {
	raw := `
stl_files:
  - conn.stl
roles:
  - role: conn::Alice
    id: $aliceId
  - role: conn::Bob
    id: 2
test:
  - conn::Alice
`
	m, err := Load(raw, map[string]string{"aliceId": "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conn.stl"}, m.STLFiles)
	require.Len(t, m.Roles, 2)
	assert.Equal(t, "conn::Alice", m.Roles[0].Role)
	assert.Equal(t, 1, m.Roles[0].Fields["id"])
	assert.Equal(t, []string{"conn::Alice"}, m.Test)
}

func TestLoadRejectsUnknownTestRole(t *testing.T) {
	raw := `
stl_files: []
roles: []
test:
  - conn::Ghost
`
	_, err := Load(raw, nil)
	require.Error(t, err)
}

func TestLoadParsesRegistryExtensions(t *testing.T) {
	raw := `
stl_files:
  - conn.stl
roles:
  - role: conn::Alice
    id: 1
test:
  - conn::Alice
qualifier_guards:
  - ref: conn.BoundedInt
    base: stl.lib.UniqueInt
    expr: "value > 0 && value < 100"
    arg_names: []
    max_attempts: 10
script:
  path: fixtures.js
  events:
    - ref: conn.ScriptedKnock
      func: knock
  qualifiers:
    - ref: conn.ScriptedId
      func: nextId
      return: int
transport:
  - ref: conn.SendPing
    transport: websocket
    url: ws://localhost:9999/ws
    direction: send
  - ref: conn.WaitPong
    transport: mqtt
    url: tcp://localhost:1883
    topic: conn/pong
    direction: wait
    message: conn::Pong
checkpoint:
  path: /tmp/conn.checkpoint
`
	m, err := Load(raw, nil)
	require.NoError(t, err)

	require.Len(t, m.QualifierGuards, 1)
	assert.Equal(t, "conn.BoundedInt", m.QualifierGuards[0].Ref)
	assert.Equal(t, "stl.lib.UniqueInt", m.QualifierGuards[0].Base)
	assert.Equal(t, 10, m.QualifierGuards[0].MaxAttempts)

	require.NotNil(t, m.Script)
	assert.Equal(t, "fixtures.js", m.Script.Path)
	require.Len(t, m.Script.Events, 1)
	assert.Equal(t, "knock", m.Script.Events[0].Func)
	require.Len(t, m.Script.Qualifiers, 1)
	assert.Equal(t, "int", m.Script.Qualifiers[0].Return)

	require.Len(t, m.Transport, 2)
	assert.Equal(t, "websocket", m.Transport[0].Transport)
	assert.Equal(t, "send", m.Transport[0].Direction)
	assert.Equal(t, "conn::Pong", m.Transport[1].Message)

	require.NotNil(t, m.Checkpoint)
	assert.Equal(t, "/tmp/conn.checkpoint", m.Checkpoint.Path)
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs([]string{"a=1", "b=two"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "two"}, args)

	_, err = ParseArgs([]string{"bad"})
	require.Error(t, err)
}
