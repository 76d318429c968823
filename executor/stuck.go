package executor

import (
	"fmt"
	"sort"

	"github.com/stl-run/stl/program"
)

// Diagnose reports why role has no immediately firable nullary transition
// in modName from the current global valuation. Reachability search
// scoped to nullary transitions is unlike the teacher's Runtime.CanReach:
// a closed system with no transition enabled in the current marking can
// never become enabled later, since only a firing transition changes the
// valuation and firing requires being enabled — so a breadth-first search
// starting from a deadlocked state always terminates with an empty
// frontier. Diagnose instead reports, for every nullary transition whose
// first event originates at role, which of its pre_states conditions are
// currently unmet, letting a test author see how close each candidate
// transition is to firing — the same filter Driver.Step applies, limited
// to the transitions of modName, so a reported precondition always belongs
// to a transition role could actually have fired. General parameterized reachability (over the
// infinite domain of a StateDecl's int/string parameters) has no finite
// state space to search either, so the scope stays nullary transitions
// only. Returns nil if role already has a firable transition.
func (ex *Executor) Diagnose(modName string, role *program.Role) *Stuck {
	mod, ok := ex.Prog.Modules[modName]
	if !ok {
		return nil
	}

	var blocked []string
	for _, t := range mod.Transitions {
		if len(t.Params) != 0 || len(t.Events) == 0 || t.Events[0].Source != role {
			continue
		}
		frame, err := ex.newFrame(t, nil)
		if err != nil {
			continue
		}
		if ex.matchPreStates(frame, t.PreStates) {
			return nil
		}
		blocked = append(blocked, ex.unmetPreStates(frame, t)...)
	}

	if blocked == nil {
		return nil
	}
	sort.Strings(blocked)
	return &Stuck{Role: role.QualifiedName, ReachablePreconditions: blocked}
}

func (ex *Executor) unmetPreStates(frame *Frame, t *program.TransitionDecl) []string {
	var unmet []string
	for _, ref := range t.PreStates {
		inst, err := ex.computeInstance(frame, ref.Decl, ref.Params)
		if err != nil {
			continue
		}
		cur := ex.Global.Get(inst)
		satisfied := false
		for _, want := range ref.Values {
			if cur == want {
				satisfied = true
				break
			}
		}
		if !satisfied {
			unmet = append(unmet, fmt.Sprintf("%s: needs %s(%v) in %v, has %q",
				t.QualifiedName, ref.Decl.QualifiedName, inst.Params, ref.Values, cur))
		}
	}
	return unmet
}
