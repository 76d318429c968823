package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/link"
	"github.com/stl-run/stl/parser"
	"github.com/stl-run/stl/program"
)

func mustLink(t *testing.T, src string) *program.Program {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	prog, err := link.Link([]*ast.Module{mod})
	require.NoError(t, err)
	return prog
}

func TestCheck_WellTypedModulePasses(t *testing.T) {
	src := `
module conn;

state Connection(int) { kDisconnected, kConnected }

role Client { int id; }
role Server { int id; }

message ConnectRequest {
  int clientId;
}

qualifier UniqueInt(int) int external "stl.lib.UniqueInt";

event Connect(&int reqId, ConnectRequest req);

transition DoConnect(int cid) {
  int reqId;
  pre_states {
    Connection(cid) = kDisconnected;
  }
  events {
    Client -> Connect(&reqId, ConnectRequest{ clientId = UniqueInt(0) -> reqId; }) -> Server;
  }
  post_states {
    Connection(cid) = kConnected;
  }
}
`
	prog := mustLink(t, src)
	assert.NoError(t, Check(prog))
}

func TestCheck_ArgumentTypeMismatch(t *testing.T) {
	src := `
module bad;

role Client { int id; }

event Ping(int n);

transition T() {
  events {
    Client -> Ping("x") -> Client;
  }
}
`
	prog := mustLink(t, src)
	err := Check(prog)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "int", te.Expected)
	assert.Equal(t, "string", te.Got)
}

func TestCheck_ReferenceArgumentMustBeLocal(t *testing.T) {
	src := `
module bad2;

role Client { int id; }

event Bump(&int n);

transition T() {
  events {
    Client -> Bump(&Client.id) -> Client;
  }
}
`
	prog := mustLink(t, src)
	err := Check(prog)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "transition-local variable", te.Expected)
	assert.Equal(t, "role field", te.Got)
}

func TestCheck_MissingRequiredFieldInMessageLiteral(t *testing.T) {
	src := `
module bad3;

role Client { int id; }

message Ping {
  int n;
  int m;
}

event Send(Ping p);

transition T() {
  events {
    Client -> Send(Ping{ n = 1; }) -> Client;
  }
}
`
	prog := mustLink(t, src)
	err := Check(prog)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Expected, "m")
	assert.Equal(t, "missing", te.Got)
}

func TestCheck_RepeatedFieldRequiresArrayLiteral(t *testing.T) {
	src := `
module bad4;

role Client { int id; }

message Item {
  int n;
}

message Bundle {
  repeated Item items;
}

event Send(Bundle b);

transition T() {
  events {
    Client -> Send(Bundle{ items = Item{ n = 1; }; }) -> Client;
  }
}
`
	prog := mustLink(t, src)
	err := Check(prog)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "array literal", te.Expected)
}
