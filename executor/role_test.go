package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleInstance_ConfigureFieldsConvertsManifestValues(t *testing.T) {
	src := `
module conn;

role Alice { int id; string name; bool active; }
`
	prog := mustLink(t, src)
	decl := prog.Modules["conn"].Roles["Alice"]
	r := NewRoleInstance(decl)

	require.NoError(t, r.ConfigureFields(map[string]interface{}{
		"id":     1,
		"name":   "alice",
		"active": true,
	}))

	assert.Equal(t, int64(1), r.Get("id").Int)
	assert.Equal(t, "alice", r.Get("name").Str)
	assert.Equal(t, true, r.Get("active").Bool)
}

func TestRoleInstance_ConfigureFieldsRejectsUnknownField(t *testing.T) {
	src := `
module conn;

role Alice { int id; }
`
	prog := mustLink(t, src)
	decl := prog.Modules["conn"].Roles["Alice"]
	r := NewRoleInstance(decl)

	err := r.ConfigureFields(map[string]interface{}{"nope": 1})
	require.Error(t, err)
}
