// Package builtin implements the reference external primitives every STL
// module can depend on without a project supplying its own: the qualifiers
// and events historically shipped as stl.lib and example.noop.
package builtin

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// RegisterQualifiers binds the reference qualifier set under their
// historical dotted names: stl.lib.AnyOf, stl.lib.RandomString,
// stl.lib.UniqueString, stl.lib.UniqueInt, stl.lib.DifferentFrom,
// stl.lib.RandomBool.
func RegisterQualifiers(reg *registry.Registry) error {
	for ref, fn := range map[string]registry.QualifierFunc{
		"stl.lib.AnyOf":         anyOf,
		"stl.lib.RandomString":  randomString,
		"stl.lib.UniqueString":  newUniqueString().generate,
		"stl.lib.UniqueInt":     newUniqueInt().generate,
		"stl.lib.DifferentFrom": differentFrom,
		"stl.lib.RandomBool":    randomBool,
	} {
		if err := reg.RegisterQualifier(ref, fn); err != nil {
			return err
		}
	}
	return nil
}

// anyOf qualifies a value drawn from a fixed set of possibilities, per
// stl.lib.AnyOf: Generate picks uniformly among args.
func anyOf(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, fmt.Errorf("builtin: AnyOf requires at least one argument")
	}
	return args[rand.Intn(len(args))], nil
}

// randomString qualifies an arbitrary string, per stl.lib.RandomString.
func randomString(args []value.Value) (value.Value, error) {
	return value.String(fmt.Sprintf("random-%d", rand.Intn(1000000))), nil
}

// randomBool qualifies an arbitrary boolean, per stl.lib.RandomBool.
func randomBool(args []value.Value) (value.Value, error) {
	return value.Bool(rand.Intn(2) == 0), nil
}

// differentFrom qualifies a string different from its single argument, per
// stl.lib.DifferentFrom.
func differentFrom(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("builtin: DifferentFrom takes exactly one argument")
	}
	prev := args[0].Str
	for {
		candidate := fmt.Sprintf("random-%d", rand.Intn(1000000))
		if candidate != prev {
			return value.String(candidate), nil
		}
	}
}

// uniqueString qualifies strings that are never repeated across the
// lifetime of the registration, per stl.lib.UniqueString. The historical
// implementation generated a monotonic counter string; this generates a
// random UUID instead, since a Go process registering the qualifier fresh
// on every run has no equivalent of the Python module-level counter state
// to persist meaningfully across runs, and a UUID gives the same "never
// repeats" guarantee without a shared counter.
type uniqueString struct {
	seen map[string]bool
}

func newUniqueString() *uniqueString {
	return &uniqueString{seen: map[string]bool{}}
}

func (u *uniqueString) generate(args []value.Value) (value.Value, error) {
	for {
		s := uuid.NewString()
		if !u.seen[s] {
			u.seen[s] = true
			return value.String(s), nil
		}
	}
}

// uniqueInt qualifies integers that are never repeated, per stl.lib.UniqueInt.
type uniqueInt struct {
	next int64
	seen map[int64]bool
}

func newUniqueInt() *uniqueInt {
	return &uniqueInt{next: 1, seen: map[int64]bool{}}
}

func (u *uniqueInt) generate(args []value.Value) (value.Value, error) {
	for _, a := range args {
		u.seen[a.Int] = true
	}
	for u.seen[u.next] {
		u.next++
	}
	v := u.next
	u.seen[v] = true
	u.next++
	return value.Int(v), nil
}
