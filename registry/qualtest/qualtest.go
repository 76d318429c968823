// Package qualtest exercises the historical qualifier invariant —
// qual.Validate(qual.Generate(*args), *args) == True for any number of
// generations — against a qualifier registered purely as a
// registry.QualifierFunc (Generate only). Since the executor never calls
// Validate, a ValidateFunc is supplied here solely for testing.
package qualtest

import (
	"fmt"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// ValidateFunc is the Validate half of the historical Qualifier contract,
// exercised only by this package's invariant check, never by the executor.
type ValidateFunc func(generated value.Value, args []value.Value) (bool, error)

// CheckInvariant calls generate(args) n times and asserts
// validate(generated, args) holds every time, returning the first
// violation encountered, if any.
func CheckInvariant(generate registry.QualifierFunc, validate ValidateFunc, args []value.Value, n int) error {
	for i := 0; i < n; i++ {
		v, err := generate(args)
		if err != nil {
			return fmt.Errorf("qualtest: generate failed on attempt %d: %w", i, err)
		}
		ok, err := validate(v, args)
		if err != nil {
			return fmt.Errorf("qualtest: validate failed on attempt %d: %w", i, err)
		}
		if !ok {
			return fmt.Errorf("qualtest: invariant violated on attempt %d: generated %s did not validate", i, v.String())
		}
	}
	return nil
}
