package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/link"
	"github.com/stl-run/stl/parser"
	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

func mustLink(t *testing.T, src string) *program.Program {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	prog, err := link.Link([]*ast.Module{mod})
	require.NoError(t, err)
	return prog
}

func TestExecutor_FireCommitsPostStates(t *testing.T) {
	src := `
module conn;

state Door(int) { kClosed, kOpen }

role Alice { int id; }
role Bob { int id; }

event Knock() = external "test.knock";

transition Open(int doorId) {
  pre_states {
    Door(doorId) = kClosed;
  }
  events {
    Alice -> Knock() -> Bob;
  }
  post_states {
    Door(doorId) = kOpen;
  }
}
`
	prog := mustLink(t, src)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.knock", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return true, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	doorDecl := prog.Modules["conn"].States["Door"]
	before := ex.Global.Get(program.StateInstance{Decl: doorDecl, Params: []interface{}{int64(1)}})
	assert.Equal(t, "kClosed", before)

	err := ex.Fire("conn", "Open", []interface{}{int64(1)})
	require.NoError(t, err)

	after := ex.Global.Get(program.StateInstance{Decl: doorDecl, Params: []interface{}{int64(1)}})
	assert.Equal(t, "kOpen", after)
}

func TestExecutor_EventFailureCommitsErrorStates(t *testing.T) {
	src := `
module conn;

state Door(int) { kClosed, kOpen, kJammed }

role Alice { int id; }
role Bob { int id; }

event Fail() = external "test.fail";

transition TryOpen(int doorId) {
  pre_states {
    Door(doorId) = kClosed;
  }
  events {
    Alice -> Fail() -> Bob;
  }
  post_states {
    Door(doorId) = kOpen;
  }
  error_states {
    Door(doorId) = kJammed;
  }
}
`
	prog := mustLink(t, src)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.fail", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return false, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	err := ex.Fire("conn", "TryOpen", []interface{}{int64(2)})
	require.Error(t, err)
	var ef *EventFailure
	require.ErrorAs(t, err, &ef)

	doorDecl := prog.Modules["conn"].States["Door"]
	got := ex.Global.Get(program.StateInstance{Decl: doorDecl, Params: []interface{}{int64(2)}})
	assert.Equal(t, "kJammed", got)
}

func TestExecutor_CompositeEventPropagatesByRef(t *testing.T) {
	src := `
module conn;

state Door(int) { kClosed, kOpen }

role Alice { int id; }
role Bob { int id; }

event SetVal(&int out) = external "test.setval";

event DoSet(&int x) = SetVal(&x);

transition Bump() {
  int val;
  pre_states {
    Door(0) = kClosed;
  }
  events {
    Alice -> DoSet(&val) -> Bob;
  }
  post_states {
    Door(val) = kOpen;
  }
}
`
	prog := mustLink(t, src)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.setval", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		require.Len(t, refs, 1)
		*refs[0] = value.Int(42)
		return true, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	err := ex.Fire("conn", "Bump", nil)
	require.NoError(t, err)

	doorDecl := prog.Modules["conn"].States["Door"]
	got := ex.Global.Get(program.StateInstance{Decl: doorDecl, Params: []interface{}{int64(42)}})
	assert.Equal(t, "kOpen", got)
}

func TestExecutor_FireFailsWhenPreStatesDoNotMatch(t *testing.T) {
	src := `
module conn;

state Door(int) { kClosed, kOpen }

role Alice { int id; }
role Bob { int id; }

event Knock() = external "test.knock";

transition Open(int doorId) {
  pre_states {
    Door(doorId) = kOpen;
  }
  events {
    Alice -> Knock() -> Bob;
  }
  post_states {
    Door(doorId) = kClosed;
  }
}
`
	prog := mustLink(t, src)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.knock", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return true, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	err := ex.Fire("conn", "Open", []interface{}{int64(1)})
	require.ErrorIs(t, err, ErrNotFirable)
}

func TestExecutor_DiagnoseReportsStuckWithUnmetPreStates(t *testing.T) {
	src := `
module conn;

state Door(int) { kClosed, kOpen, kLocked }

role Alice { int id; }
role Bob { int id; }

event Knock() = external "test.knock";

transition Open() {
  pre_states {
    Door(0) = kClosed;
  }
  events {
    Alice -> Knock() -> Bob;
  }
  post_states {
    Door(0) = kOpen;
  }
}

transition Unlock() {
  pre_states {
    Door(0) = kLocked;
  }
  events {
    Alice -> Knock() -> Bob;
  }
  post_states {
    Door(0) = kClosed;
  }
}
`
	prog := mustLink(t, src)
	reg := registry.New()
	require.NoError(t, reg.RegisterEvent("test.knock", func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		return true, nil
	}))
	reg.Freeze()

	ex := New(prog, reg)
	aliceRole := prog.Modules["conn"].Roles["Alice"]
	assert.Nil(t, ex.Diagnose("conn", aliceRole))

	doorDecl := prog.Modules["conn"].States["Door"]
	ex.Global.Set(program.StateInstance{Decl: doorDecl, Params: []interface{}{int64(0)}}, "kOpen")

	stuck := ex.Diagnose("conn", aliceRole)
	require.NotNil(t, stuck)
	assert.Equal(t, aliceRole.QualifiedName, stuck.Role)
	assert.Len(t, stuck.ReachablePreconditions, 2)
}
