// Command stlrun is the conformance-test wrapper around the STL front end
// and transition executor: it loads a manifest, parses and links the STL
// files it names, type-checks the result, wires the reference primitive
// registry, and drives the roles listed under `test` until a full round
// passes in which none of them can fire, or a transition returns an error.
//
// This wrapper is a thin external collaborator, not part of the core: the
// manifest loader, the primitive registry wiring, and the driver loop all
// live in their own packages and are usable independently of this binary.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/check"
	"github.com/stl-run/stl/executor"
	"github.com/stl-run/stl/link"
	"github.com/stl-run/stl/manifest"
	"github.com/stl-run/stl/parser"
	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/registry/builtin"
	"github.com/stl-run/stl/registry/checkpoint"
	"github.com/stl-run/stl/registry/qualexpr"
	"github.com/stl-run/stl/registry/scripting"
	"github.com/stl-run/stl/registry/transport"
	"github.com/stl-run/stl/value"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "stlrun: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("stlrun", flag.ExitOnError)

	var manifestArgs string
	fs.StringVar(&manifestArgs, "a", "", "space-separated key=value manifest substitution arguments")
	fs.StringVar(&manifestArgs, "manifest-args", "", "space-separated key=value manifest substitution arguments")

	var debug bool
	fs.BoolVar(&debug, "d", false, "enable debug-level logging")
	fs.BoolVar(&debug, "debug", false, "enable debug-level logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: stlrun <manifest.yaml> [options]

Run a conformance test: parse and link the STL files a manifest names,
type-check the program, and drive the roles listed under "test" through
firable transitions until none of them can fire or a transition fails.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Run a manifest as-is
  stlrun test/conn.yaml

  # Substitute $aliceId/$bobId before parsing the manifest
  stlrun test/conn.yaml -a "aliceId=1 bobId=2"

  # Verbose logging
  stlrun test/conn.yaml -d
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("manifest path required")
	}
	manifestPath := fs.Arg(0)

	log := newLogger(debug)

	argPairs, err := manifest.ParseArgs(strings.Fields(manifestArgs))
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	m, err := manifest.Load(string(raw), argPairs)
	if err != nil {
		return err
	}

	prog, err := loadProgram(manifestPath, m, log)
	if err != nil {
		return err
	}
	if err := check.Check(prog); err != nil {
		return err
	}

	manifestDir := filepath.Dir(manifestPath)

	reg := registry.NewWithLogger(log)
	if err := builtin.RegisterQualifiers(reg); err != nil {
		return err
	}
	if err := applyScript(reg, manifestDir, m.Script); err != nil {
		return err
	}
	if err := applyQualifierGuards(reg, m.QualifierGuards); err != nil {
		return err
	}
	codecs := value.Codecs{Bytestream: reg, Protobuf: reg}
	if err := builtin.RegisterEvents(reg, log, codecs); err != nil {
		return err
	}
	closers, err := applyTransportLinks(reg, prog, codecs, m.Transport)
	defer closeAll(closers)
	if err != nil {
		return err
	}
	reg.Freeze()

	ex := executor.NewWithLogger(prog, reg, log)
	if err := configureRoles(ex, prog, m.Roles); err != nil {
		return err
	}

	testRoles, err := resolveRoles(prog, m.Test)
	if err != nil {
		return err
	}

	driver := executor.NewDriver(ex, testRoles)

	store, err := openCheckpoint(m.Checkpoint)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if err := loadCheckpoint(store, ex, driver); err != nil {
			return err
		}
	}

	runErr := driver.Run()

	if store != nil {
		if err := saveCheckpoint(store, ex, driver); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Println("conformance test passed")
	return nil
}

// applyQualifierGuards wraps each manifest-declared base qualifier with a
// guard expression (package guard, via registry/qualexpr) and registers
// the wrapped qualifier under its own external reference, letting an STL
// qualifier declaration constrain a base qualifier's output without a Go
// recompile.
func applyQualifierGuards(reg *registry.Registry, guards []manifest.QualifierGuard) error {
	for _, g := range guards {
		base, err := reg.Qualifier(g.Base)
		if err != nil {
			return err
		}
		wrapped, err := qualexpr.New(base, qualexpr.Config{
			Expr:        g.Expr,
			ArgNames:    g.ArgNames,
			MaxAttempts: g.MaxAttempts,
		})
		if err != nil {
			return err
		}
		if err := reg.RegisterQualifier(g.Ref, wrapped); err != nil {
			return err
		}
	}
	return nil
}

// applyScript loads the manifest's scripted primitive file, if any,
// resolved relative to dir like an STL source file, and registers each
// declared event/qualifier binding against the registry.
func applyScript(reg *registry.Registry, dir string, s *manifest.Script) error {
	if s == nil {
		return nil
	}
	path := s.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}
	rt, err := scripting.New(string(src))
	if err != nil {
		return err
	}
	for _, e := range s.Events {
		fn, err := rt.Event(e.Func)
		if err != nil {
			return err
		}
		if err := reg.RegisterEvent(e.Ref, fn); err != nil {
			return err
		}
	}
	for _, q := range s.Qualifiers {
		kind, err := parseScalarKind(q.Return)
		if err != nil {
			return err
		}
		fn, err := rt.Qualifier(q.Func, kind)
		if err != nil {
			return err
		}
		if err := reg.RegisterQualifier(q.Ref, fn); err != nil {
			return err
		}
	}
	return nil
}

func parseScalarKind(s string) (value.Kind, error) {
	switch s {
	case "int":
		return value.KInt, nil
	case "bool":
		return value.KBool, nil
	case "string":
		return value.KString, nil
	default:
		return 0, fmt.Errorf("stlrun: unknown scalar return kind %q (want int, bool, or string)", s)
	}
}

// transportLink is the surface *transport.WebSocketLink and
// *transport.MQTTLink share, letting applyTransportLinks treat either
// uniformly.
type transportLink interface {
	SendEvent(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error)
	WaitEvent(decl *program.MessageDecl) registry.EventFunc
}

// applyTransportLinks dials or connects every manifest-declared transport
// link and registers it under its external reference, returning the
// opened connections for the caller to close on exit.
func applyTransportLinks(reg *registry.Registry, prog *program.Program, codecs value.Codecs, links []manifest.TransportLink) ([]io.Closer, error) {
	var closers []io.Closer
	for _, l := range links {
		var conn transportLink
		switch l.Transport {
		case "websocket":
			ws, err := transport.Dial(l.URL, codecs)
			if err != nil {
				return closers, err
			}
			closers = append(closers, ws)
			conn = ws
		case "mqtt":
			mq, err := transport.Connect(l.URL, l.Topic, codecs)
			if err != nil {
				return closers, err
			}
			closers = append(closers, closerFunc(func() error { mq.Close(); return nil }))
			conn = mq
		default:
			return closers, fmt.Errorf("stlrun: unknown transport %q for ref %q", l.Transport, l.Ref)
		}

		switch l.Direction {
		case "send":
			if err := reg.RegisterEvent(l.Ref, conn.SendEvent); err != nil {
				return closers, err
			}
		case "wait":
			decl, err := findMessage(prog, l.Message)
			if err != nil {
				return closers, err
			}
			if err := reg.RegisterEvent(l.Ref, conn.WaitEvent(decl)); err != nil {
				return closers, err
			}
		default:
			return closers, fmt.Errorf("stlrun: unknown transport direction %q for ref %q", l.Direction, l.Ref)
		}
	}
	return closers, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func findMessage(prog *program.Program, qualified string) (*program.MessageDecl, error) {
	modName, msgName, ok := strings.Cut(qualified, "::")
	if !ok {
		return nil, fmt.Errorf("stlrun: message %q is not fully qualified (want module::Message)", qualified)
	}
	mod, ok := prog.Modules[modName]
	if !ok {
		return nil, fmt.Errorf("stlrun: module %q not found for message %q", modName, qualified)
	}
	decl, ok := mod.Messages[msgName]
	if !ok {
		return nil, fmt.Errorf("stlrun: message %q not found in module %q", msgName, modName)
	}
	return decl, nil
}

// openCheckpoint opens the manifest's checkpoint file, if declared.
func openCheckpoint(cfg *manifest.Checkpoint) (*checkpoint.Store, error) {
	if cfg == nil {
		return nil, nil
	}
	return checkpoint.Open(cfg.Path)
}

// loadCheckpoint restores a prior run's global valuation and step count,
// if the checkpoint file already holds one, into ex and driver.
func loadCheckpoint(store *checkpoint.Store, ex *executor.Executor, driver *executor.Driver) error {
	snapshot, err := store.LoadGlobal()
	if err != nil {
		return err
	}
	if snapshot != nil {
		ex.Global.LoadInto(snapshot)
	}
	steps, err := store.LoadSequence()
	if err != nil {
		return err
	}
	driver.Steps = steps
	return nil
}

// saveCheckpoint persists the run's current global valuation and step
// count, so the next run against the same checkpoint file can resume.
func saveCheckpoint(store *checkpoint.Store, ex *executor.Executor, driver *executor.Driver) error {
	if err := store.SaveGlobal(ex.Global.Snapshot()); err != nil {
		return err
	}
	return store.SaveSequence(driver.Steps)
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// loadProgram parses every STL file the manifest names, resolved relative
// to the manifest's own directory, and links them into one Program.
func loadProgram(manifestPath string, m *manifest.Manifest, log zerolog.Logger) (*program.Program, error) {
	dir := filepath.Dir(manifestPath)
	mods := make([]*ast.Module, 0, len(m.STLFiles))
	for _, rel := range m.STLFiles {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, rel)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		mod, err := parser.Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		mods = append(mods, mod)
	}
	return link.NewWithLogger(log).Link(mods)
}

// configureRoles sets every manifest-declared role instance's field
// values on the executor's corresponding live RoleInstance.
func configureRoles(ex *executor.Executor, prog *program.Program, roles []manifest.RoleInstance) error {
	for _, ri := range roles {
		decl, err := findRole(prog, ri.Role)
		if err != nil {
			return err
		}
		inst := ex.Roles[decl]
		if err := inst.ConfigureFields(ri.Fields); err != nil {
			return err
		}
	}
	return nil
}

func resolveRoles(prog *program.Program, names []string) ([]*program.Role, error) {
	roles := make([]*program.Role, 0, len(names))
	for _, name := range names {
		decl, err := findRole(prog, name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, decl)
	}
	return roles, nil
}

func findRole(prog *program.Program, qualified string) (*program.Role, error) {
	modName, roleName, ok := strings.Cut(qualified, "::")
	if !ok {
		return nil, fmt.Errorf("stlrun: role %q is not fully qualified (want module::role)", qualified)
	}
	mod, ok := prog.Modules[modName]
	if !ok {
		return nil, fmt.Errorf("stlrun: module %q not found for role %q", modName, qualified)
	}
	decl, ok := mod.Roles[roleName]
	if !ok {
		return nil, fmt.Errorf("stlrun: role %q not found in module %q", roleName, modName)
	}
	return decl, nil
}

// exitCodeFor maps an error to the process exit code: static errors
// (lex/parse/link/type) and stuck/failed runtime errors are all non-zero,
// per spec's exit-code contract, but classified rather than flattened to
// a single "something went wrong" code where the distinction is cheap.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *executor.Stuck:
		return 2
	case *executor.EventFailure, *executor.Fatal, *executor.DepthExceeded:
		return 3
	default:
		return 1
	}
}
