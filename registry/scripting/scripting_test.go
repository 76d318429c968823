package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/value"
)

func TestRuntime_QualifierCallsScriptFunction(t *testing.T) {
	rt, err := New(`
function double(n) {
  return n * 2;
}
`)
	require.NoError(t, err)

	qual, err := rt.Qualifier("double", value.KInt)
	require.NoError(t, err)

	got, err := qual([]value.Value{value.Int(21)})
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got)
}

func TestRuntime_QualifierMissingFunctionErrors(t *testing.T) {
	rt, err := New(`function defined() { return 1; }`)
	require.NoError(t, err)

	_, err = rt.Qualifier("missing", value.KInt)
	assert.Error(t, err)
}

func TestRuntime_EventWritesBackByRefArgument(t *testing.T) {
	rt, err := New(`
function accept(name, out) {
  out[0] = name + "-ack";
  return true;
}
`)
	require.NoError(t, err)

	ev, err := rt.Event("accept")
	require.NoError(t, err)

	ref := value.String("")
	ok, err := ev([]value.Value{value.String("ping")}, []*value.Value{&ref}, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ping-ack", ref.Str)
}

func TestRuntime_EventReturningFalseFailsWithoutError(t *testing.T) {
	rt, err := New(`function reject() { return false; }`)
	require.NoError(t, err)

	ev, err := rt.Event("reject")
	require.NoError(t, err)

	ok, err := ev(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuntime_NotCallableErrors(t *testing.T) {
	rt, err := New(`var notAFunction = 42;`)
	require.NoError(t, err)

	_, err = rt.Qualifier("notAFunction", value.KInt)
	assert.Error(t, err)
}
