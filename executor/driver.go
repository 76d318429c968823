package executor

import (
	"strings"

	"github.com/stl-run/stl/program"
)

// StepPolicy chooses one transition among several simultaneously-firable
// candidates for a role. FirstFirable is the default; a caller can assign
// another policy to Driver.Policy. No randomized policy is provided here,
// and neither the manifest nor the CLI selects one.
type StepPolicy func(candidates []*program.TransitionDecl) *program.TransitionDecl

// FirstFirable picks the first candidate in the slice it is given, or nil
// if there are none. Step builds that slice by iterating the program's
// module and transition maps, so the order is not declaration order and
// is not defined.
func FirstFirable(candidates []*program.TransitionDecl) *program.TransitionDecl {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// Driver interleaves single-role steps across the roles a manifest names
// under `test`. It is an ambient collaborator built on top of Executor,
// not part of the core transition executor itself: a CLI or test harness
// depends on it the way it depends on any other library entry point.
// Multiple driven roles are modeled by interleaving Step calls; the
// executor itself remains single-threaded and cooperative, servicing
// exactly one role per call.
type Driver struct {
	Ex      *Executor
	Roles   []*program.Role
	Policy  StepPolicy
	Steps   uint64
	stopped bool
}

// NewDriver builds a Driver over the given roles, in the order a manifest
// lists them under `test`.
func NewDriver(ex *Executor, roles []*program.Role) *Driver {
	return &Driver{Ex: ex, Roles: roles, Policy: FirstFirable}
}

// Stop requests the run halt before its next Step; a step already
// in progress always runs to completion.
func (d *Driver) Stop() { d.stopped = true }

// Stopped reports whether Stop has been called.
func (d *Driver) Stopped() bool { return d.stopped }

// Step advances role by one transition: it enumerates every nullary,
// currently-firable transition whose declared events begin with an event
// originating at role, selects one via Policy, and fires it. It returns
// *Stuck (not wrapped) if role has no firable transition; the driver, not
// Step, decides whether that ends the run.
func (d *Driver) Step(role *program.Role) error {
	var candidates []*program.TransitionDecl
	for _, mod := range d.Ex.Prog.Modules {
		for _, t := range mod.Transitions {
			if len(t.Params) != 0 || len(t.Events) == 0 || t.Events[0].Source != role {
				continue
			}
			frame, err := d.Ex.newFrame(t, nil)
			if err != nil {
				continue
			}
			if d.Ex.matchPreStates(frame, t.PreStates) {
				candidates = append(candidates, t)
			}
		}
	}

	chosen := d.Policy(candidates)
	if chosen == nil {
		return d.stuckFor(role)
	}

	modName, transitionName := splitQualifiedName(chosen.QualifiedName)
	if err := d.Ex.Fire(modName, transitionName, nil); err != nil {
		return err
	}
	d.Steps++
	return nil
}

// Run interleaves Step calls across d.Roles, in round-robin order. A role
// that is stuck on its turn is skipped. Run ends when Stop is called
// (returning nil), when a full round passes in which no role could fire
// (returning the *Stuck diagnosis of the round's last role), or when a
// Step returns any other error, which Run returns unchanged. It returns
// nil at once if d.Roles is empty.
func (d *Driver) Run() error {
	if len(d.Roles) == 0 {
		return nil
	}
	for !d.stopped {
		progressed := false
		for _, role := range d.Roles {
			if d.stopped {
				return nil
			}
			err := d.Step(role)
			if err == nil {
				progressed = true
				continue
			}
			if _, stuck := err.(*Stuck); stuck {
				continue
			}
			return err
		}
		if !progressed {
			return d.stuckFor(d.Roles[len(d.Roles)-1])
		}
	}
	return nil
}

func (d *Driver) stuckFor(role *program.Role) *Stuck {
	modName, _ := splitQualifiedName(role.QualifiedName)
	stuck := d.Ex.Diagnose(modName, role)
	if stuck == nil {
		return &Stuck{Role: role.QualifiedName}
	}
	return stuck
}

func splitQualifiedName(qualified string) (mod, name string) {
	mod, name, ok := strings.Cut(qualified, "::")
	if !ok {
		return "", qualified
	}
	return mod, name
}
