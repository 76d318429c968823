package qualexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/value"
)

func TestNewRetriesUntilGuardSatisfied(t *testing.T) {
	seq := []int64{1, 2, 3, 42, 5}
	i := 0
	base := func(args []value.Value) (value.Value, error) {
		v := seq[i]
		i++
		return value.Int(v), nil
	}
	qf, err := New(base, Config{Expr: "value == 42"})
	require.NoError(t, err)

	v, err := qf(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
	assert.Equal(t, 4, i)
}

func TestNewFailsAfterMaxAttempts(t *testing.T) {
	base := func(args []value.Value) (value.Value, error) {
		return value.Int(1), nil
	}
	qf, err := New(base, Config{Expr: "value == 2", MaxAttempts: 3})
	require.NoError(t, err)

	_, err = qf(nil)
	require.Error(t, err)
}

func TestNewBindsArgsAlongsideValue(t *testing.T) {
	base := func(args []value.Value) (value.Value, error) {
		return value.Int(args[0].Int + 1), nil
	}
	qf, err := New(base, Config{Expr: "value > prev", ArgNames: []string{"prev"}})
	require.NoError(t, err)

	v, err := qf([]value.Value{value.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, int64(11), v.Int)
}
