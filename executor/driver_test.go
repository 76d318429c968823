package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

const driverSrc = `
module conn;

state Door { kClosed, kOpen, kLocked }

role Alice { int id; }
role Bob { int id; }

event Knock() = external "test.knock";
event Enter() = external "test.enter";

transition Open() {
  pre_states {
    Door = kClosed;
  }
  events {
    Alice -> Knock() -> Bob;
  }
  post_states {
    Door = kOpen;
  }
}

transition Close() {
  pre_states {
    Door = kOpen;
  }
  events {
    Bob -> Enter() -> Alice;
  }
  post_states {
    Door = kLocked;
  }
}
`

func newDriverFixture(t *testing.T) (*Executor, *program.Role, *program.Role) {
	t.Helper()
	prog := mustLink(t, driverSrc)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.knock", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return true, nil
	}))
	require.NoError(t, reg.RegisterEvent("test.enter", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return true, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	alice := prog.Modules["conn"].Roles["Alice"]
	bob := prog.Modules["conn"].Roles["Bob"]
	return ex, alice, bob
}

func doorValue(ex *Executor) string {
	decl := ex.Prog.Modules["conn"].States["Door"]
	return ex.Global.Get(program.StateInstance{Decl: decl, Params: nil})
}

func TestDriver_StepFiresFirstFirableTransitionForRole(t *testing.T) {
	ex, alice, _ := newDriverFixture(t)
	d := NewDriver(ex, []*program.Role{alice})

	require.NoError(t, d.Step(alice))
	assert.Equal(t, "kOpen", doorValue(ex))
}

func TestDriver_StepReturnsStuckWhenNoTransitionFirable(t *testing.T) {
	ex, alice, _ := newDriverFixture(t)
	d := NewDriver(ex, []*program.Role{alice})

	// Door is already open; Alice's only transition (Open) needs kClosed.
	require.NoError(t, d.Step(alice))
	err := d.Step(alice)
	require.Error(t, err)
	stuck, ok := err.(*Stuck)
	require.True(t, ok)
	assert.Equal(t, "conn::Alice", stuck.Role)
}

func TestDriver_RunInterleavesRolesUntilStuck(t *testing.T) {
	ex, alice, bob := newDriverFixture(t)
	d := NewDriver(ex, []*program.Role{alice, bob})

	err := d.Run()
	require.Error(t, err)
	_, stuck := err.(*Stuck)
	assert.True(t, stuck)
	// Open then Close should have fired once each before both roles stall.
	assert.Equal(t, "kLocked", doorValue(ex))
}

func TestDriver_StopHaltsBeforeNextStep(t *testing.T) {
	ex, alice, bob := newDriverFixture(t)
	d := NewDriver(ex, []*program.Role{alice, bob})
	d.Stop()

	assert.True(t, d.Stopped())
	require.NoError(t, d.Run())
	assert.Equal(t, "kClosed", doorValue(ex))
}
