package builtin

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

func TestRegisterQualifiers(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterQualifiers(reg))
	reg.Freeze()

	fn, err := reg.Qualifier("stl.lib.AnyOf")
	require.NoError(t, err)
	v, err := fn([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	require.NoError(t, err)
	assert.Contains(t, []int64{1, 2, 3}, v.Int)
}

func TestUniqueIntNeverRepeats(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterQualifiers(reg))
	reg.Freeze()

	fn, err := reg.Qualifier("stl.lib.UniqueInt")
	require.NoError(t, err)

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		v, err := fn([]value.Value{value.Int(0)})
		require.NoError(t, err)
		require.False(t, seen[v.Int], "value %d repeated", v.Int)
		seen[v.Int] = true
	}
}

func TestUniqueStringNeverRepeats(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterQualifiers(reg))
	reg.Freeze()

	fn, err := reg.Qualifier("stl.lib.UniqueString")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := fn(nil)
		require.NoError(t, err)
		require.False(t, seen[v.Str])
		seen[v.Str] = true
	}
}

func TestRegisterEvents(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterEvents(reg, zerolog.Nop(), value.Codecs{}))
	reg.Freeze()

	fn, err := reg.Event("example.noop.NoOp")
	require.NoError(t, err)
	ok, err := fn(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	logFn, err := reg.Event("example.noop.LogParams")
	require.NoError(t, err)
	ok, err = logFn([]value.Value{value.Int(1), value.String("x")}, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
