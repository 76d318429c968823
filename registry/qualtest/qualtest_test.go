package qualtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/registry/builtin"
	"github.com/stl-run/stl/value"
)

func TestCheckInvariant_UniqueIntNeverRepeats(t *testing.T) {
	reg := registry.New()
	require := assert.New(t)
	require.NoError(builtin.RegisterQualifiers(reg))
	reg.Freeze()

	generate, err := reg.Qualifier("stl.lib.UniqueInt")
	require.NoError(err)

	seen := map[int64]bool{}
	validate := func(generated value.Value, args []value.Value) (bool, error) {
		ok := !seen[generated.Int]
		seen[generated.Int] = true
		return ok, nil
	}

	err = CheckInvariant(generate, validate, []value.Value{value.Int(0)}, 25)
	assert.NoError(t, err)
}

func TestCheckInvariant_ReportsViolation(t *testing.T) {
	always := func(args []value.Value) (value.Value, error) { return value.Int(1), nil }
	validate := func(generated value.Value, args []value.Value) (bool, error) {
		return generated.Int != 1, nil
	}
	err := CheckInvariant(always, validate, nil, 3)
	assert.Error(t, err)
}
