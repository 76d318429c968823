// Package executor runs a linked, type-checked program.Program: it holds
// the global-state valuation and the live role instances, fires
// transitions by matching pre_states, running their events in sequence,
// and committing post_states or error_states.
package executor

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// DefaultMaxDepth bounds composite-event expansion, catching a runaway
// composite-event cycle before it exhausts the stack.
const DefaultMaxDepth = 64

// Executor holds the mutable state of one conformance-test run: the global
// valuation, the role instances under test, and the primitive registry
// events and qualifiers dispatch through.
type Executor struct {
	RunID    string
	Prog     *program.Program
	Roles    map[*program.Role]*RoleInstance
	Global   *Global
	Reg      *registry.Registry
	MaxDepth int
	Log      zerolog.Logger
}

// New builds an Executor over prog with one RoleInstance per declared role
// in every module, ready to fire transitions.
func New(prog *program.Program, reg *registry.Registry) *Executor {
	return NewWithLogger(prog, reg, zerolog.Nop())
}

// NewWithLogger builds an Executor stamped with a fresh RunID, so every
// log record this run and its transition frames emit can be correlated
// back to one conformance-test invocation.
func NewWithLogger(prog *program.Program, reg *registry.Registry, log zerolog.Logger) *Executor {
	runID := uuid.NewString()
	ex := &Executor{
		RunID:    runID,
		Prog:     prog,
		Roles:    map[*program.Role]*RoleInstance{},
		Global:   NewGlobal(),
		Reg:      reg,
		MaxDepth: DefaultMaxDepth,
		Log:      log.With().Str("run_id", runID).Logger(),
	}
	for _, mod := range prog.Modules {
		for _, r := range mod.Roles {
			ex.Roles[r] = NewRoleInstance(r)
		}
	}
	return ex
}

// FrameState is the lifecycle stage of one Fire call.
type FrameState int

const (
	FrameInit FrameState = iota
	FrameRunning
	FrameCommit
	FrameErrorCommit
	FrameRollback
	FrameDone
)

// Frame is the transition-local activation record for one Fire call: its
// parameter and local-variable bindings, each addressable so that
// `&localVar` arguments and `-> var` qualifier writes can mutate them in
// place.
type Frame struct {
	ID    string
	Decl  *program.TransitionDecl
	Scope map[string]*value.Value
	State FrameState
}

// Fire looks up the named transition, matches its pre_states against the
// current global valuation, runs its events in declaration order, and
// commits post_states on success or error_states on the first event
// failure. It mirrors the historical Transition.Run semantics: sequential
// execution, abort on the first false/error result.
func (ex *Executor) Fire(modName, transitionName string, params []interface{}) error {
	mod, ok := ex.Prog.Modules[modName]
	if !ok {
		return fmt.Errorf("%w: module %q", ErrUnknownTransition, modName)
	}
	decl, ok := mod.Transitions[transitionName]
	if !ok {
		return fmt.Errorf("%w: %s::%s", ErrUnknownTransition, modName, transitionName)
	}

	frame, err := ex.newFrame(decl, params)
	if err != nil {
		return err
	}

	if !ex.matchPreStates(frame, decl.PreStates) {
		return fmt.Errorf("%w: %s::%s", ErrNotFirable, modName, transitionName)
	}

	frame.ID = uuid.NewString()
	frame.State = FrameRunning
	ex.Log.Debug().Str("transition", decl.QualifiedName).Str("frame_id", frame.ID).Msg("firing")

	for i, te := range decl.Events {
		ok, err := ex.fireTransitionEvent(frame, te)
		if err != nil {
			if _, fatal := err.(*Fatal); fatal {
				return err
			}
			return ex.abort(frame, decl, fmt.Sprintf("%s[%d]", decl.QualifiedName, i), err)
		}
		if !ok {
			return ex.abort(frame, decl, fmt.Sprintf("%s[%d]", decl.QualifiedName, i), nil)
		}
	}

	ex.commitStates(frame, decl.PostStates)
	frame.State = FrameCommit
	return nil
}

func (ex *Executor) abort(frame *Frame, decl *program.TransitionDecl, where string, cause error) error {
	if len(decl.ErrorStates) > 0 {
		ex.commitStates(frame, decl.ErrorStates)
		frame.State = FrameErrorCommit
	} else {
		frame.State = FrameRollback
	}
	return &EventFailure{Where: where, Err: cause}
}

func (ex *Executor) fireTransitionEvent(frame *Frame, te program.TransitionEvent) (bool, error) {
	byVal, byRef, err := evalCallArgs(frame.Scope, ex.Roles, ex.Reg, te.Callee.Params, te.Args)
	if err != nil {
		return false, err
	}
	source, ok := ex.Roles[te.Source]
	if !ok {
		return false, fmt.Errorf("executor: no instance bound for role %s", te.Source.QualifiedName)
	}
	target, ok := ex.Roles[te.Target]
	if !ok {
		return false, fmt.Errorf("executor: no instance bound for role %s", te.Target.QualifiedName)
	}
	return fireEventDecl(te.Callee, byVal, byRef, source, target, ex.Roles, ex.Reg, 0, ex.MaxDepth)
}

func (ex *Executor) newFrame(decl *program.TransitionDecl, params []interface{}) (*Frame, error) {
	if len(params) != len(decl.Params) {
		return nil, fmt.Errorf("executor: %s expects %d parameter(s), got %d", decl.QualifiedName, len(decl.Params), len(params))
	}
	scope := make(map[string]*value.Value, len(decl.Params)+len(decl.Locals))
	for i, p := range decl.Params {
		v, err := toValue(p.Type, params[i])
		if err != nil {
			return nil, fmt.Errorf("executor: %s parameter %q: %w", decl.QualifiedName, p.Name, err)
		}
		cp := v
		scope[p.Name] = &cp
	}
	for _, lo := range decl.Locals {
		zv := zeroValue(lo.Type)
		scope[lo.Name] = &zv
	}
	return &Frame{Decl: decl, Scope: scope, State: FrameInit}, nil
}

func (ex *Executor) matchPreStates(frame *Frame, refs []program.StateRefOrSet) bool {
	return ex.matchPreStatesAgainst(ex.Global, frame, refs)
}

func (ex *Executor) matchPreStatesAgainst(g *Global, frame *Frame, refs []program.StateRefOrSet) bool {
	for _, ref := range refs {
		inst, err := ex.computeInstance(frame, ref.Decl, ref.Params)
		if err != nil {
			ex.Log.Error().Err(err).Str("state", ref.Decl.QualifiedName).Msg("pre_states evaluation failed")
			return false
		}
		cur := g.Get(inst)
		matched := false
		for _, want := range ref.Values {
			if cur == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (ex *Executor) commitStates(frame *Frame, refs []program.StateRef) {
	ex.commitStatesTo(ex.Global, frame, refs)
}

func (ex *Executor) commitStatesTo(g *Global, frame *Frame, refs []program.StateRef) {
	for _, ref := range refs {
		inst, err := ex.computeInstance(frame, ref.Decl, ref.Params)
		if err != nil {
			ex.Log.Error().Err(err).Str("state", ref.Decl.QualifiedName).Msg("post/error state evaluation failed")
			continue
		}
		g.Set(inst, ref.Value)
	}
}

func (ex *Executor) computeInstance(frame *Frame, decl *program.StateDecl, params []program.Expr) (program.StateInstance, error) {
	raw := make([]interface{}, len(params))
	for i, p := range params {
		v, err := evalExpr(frame.Scope, ex.Roles, ex.Reg, p)
		if err != nil {
			return program.StateInstance{}, err
		}
		raw[i] = valueToRaw(v)
	}
	return program.StateInstance{Decl: decl, Params: raw}, nil
}

func toValue(t program.Type, raw interface{}) (value.Value, error) {
	switch t.Kind {
	case program.TInt:
		switch n := raw.(type) {
		case int64:
			return value.Int(n), nil
		case int:
			return value.Int(int64(n)), nil
		}
		return value.Value{}, fmt.Errorf("expected int, got %T", raw)
	case program.TBool:
		b, ok := raw.(bool)
		if !ok {
			return value.Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return value.Bool(b), nil
	case program.TString:
		s, ok := raw.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return value.String(s), nil
	default:
		return value.Value{}, fmt.Errorf("parameters of type %s are not accepted at Fire", t.String())
	}
}

func zeroValue(t program.Type) value.Value {
	switch t.Kind {
	case program.TInt:
		return value.Int(0)
	case program.TBool:
		return value.Bool(false)
	case program.TString:
		return value.String("")
	default:
		return value.Null()
	}
}

func valueToRaw(v value.Value) interface{} {
	switch v.Kind {
	case value.KInt:
		return v.Int
	case value.KBool:
		return v.Bool
	case value.KString:
		return v.Str
	default:
		return v.String()
	}
}
