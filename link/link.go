// Package link implements the two-phase name resolver: registration of
// every top-level name under module::name, then resolution of references
// inside declaration bodies into a linked, immutable program.Program.
package link

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/program"
)

// Linker resolves a set of parsed modules into a program.Program.
type Linker struct {
	prog    *program.Program
	astMods map[string]*ast.Module
	log     zerolog.Logger
}

// New constructs a Linker with a no-op logger; use NewWithLogger to observe
// registration and resolution events.
func New() *Linker {
	return &Linker{log: zerolog.Nop()}
}

// NewWithLogger constructs a Linker that logs registration/resolution
// events at debug level.
func NewWithLogger(log zerolog.Logger) *Linker {
	return &Linker{log: log}
}

// Link resolves every module in mods into a single program.Program.
func Link(mods []*ast.Module) (*program.Program, error) {
	return New().Link(mods)
}

func (l *Linker) Link(mods []*ast.Module) (*program.Program, error) {
	l.prog = program.New()
	l.astMods = make(map[string]*ast.Module, len(mods))
	for _, m := range mods {
		if _, dup := l.astMods[m.Name]; dup {
			return nil, &LinkError{Where: m.Name, Message: fmt.Sprintf("duplicate module name %q", m.Name)}
		}
		l.astMods[m.Name] = m
		l.prog.Module(m.Name)
	}

	for _, m := range mods {
		if err := l.registerModule(m); err != nil {
			return nil, err
		}
	}
	for _, m := range mods {
		if err := l.resolveModule(m); err != nil {
			return nil, err
		}
	}
	l.log.Debug().Int("modules", len(mods)).Msg("link complete")
	return l.prog, nil
}

func (l *Linker) registerModule(m *ast.Module) error {
	pm := l.prog.Module(m.Name)
	for _, c := range m.Constants {
		if _, dup := pm.Constants[c.Name]; dup {
			return dupErr(m.Name, "const", c.Name)
		}
		pm.Constants[c.Name] = &program.Constant{QualifiedName: qname(m.Name, c.Name)}
	}
	for _, s := range m.States {
		if _, dup := pm.States[s.Name]; dup {
			return dupErr(m.Name, "state", s.Name)
		}
		pm.States[s.Name] = &program.StateDecl{QualifiedName: qname(m.Name, s.Name)}
	}
	for _, r := range m.Roles {
		if _, dup := pm.Roles[r.Name]; dup {
			return dupErr(m.Name, "role", r.Name)
		}
		pm.Roles[r.Name] = &program.Role{QualifiedName: qname(m.Name, r.Name)}
	}
	for _, msg := range m.Messages {
		if err := l.registerMessage(pm, m.Name, msg); err != nil {
			return err
		}
	}
	for _, q := range m.Qualifiers {
		if _, dup := pm.Qualifiers[q.Name]; dup {
			return dupErr(m.Name, "qualifier", q.Name)
		}
		pm.Qualifiers[q.Name] = &program.QualifierDecl{QualifiedName: qname(m.Name, q.Name)}
	}
	for _, e := range m.Events {
		if _, dup := pm.Events[e.Name]; dup {
			return dupErr(m.Name, "event", e.Name)
		}
		pm.Events[e.Name] = &program.EventDecl{QualifiedName: qname(m.Name, e.Name)}
	}
	for _, t := range m.Transitions {
		if _, dup := pm.Transitions[t.Name]; dup {
			return dupErr(m.Name, "transition", t.Name)
		}
		pm.Transitions[t.Name] = &program.TransitionDecl{QualifiedName: qname(m.Name, t.Name)}
	}
	return nil
}

// registerMessage recursively registers a message and its nested messages,
// the nested ones under "Parent.Child" local names.
func (l *Linker) registerMessage(pm *program.Module, modName string, msg *ast.MessageDecl) error {
	return l.registerMessageAs(pm, modName, msg.Name, msg)
}

func (l *Linker) registerMessageAs(pm *program.Module, modName, localName string, msg *ast.MessageDecl) error {
	if _, dup := pm.Messages[localName]; dup {
		return dupErr(modName, "message", localName)
	}
	pm.Messages[localName] = &program.MessageDecl{QualifiedName: qname(modName, localName)}
	for _, nested := range msg.Nested {
		if err := l.registerMessageAs(pm, modName, localName+"."+nested.Name, nested); err != nil {
			return err
		}
	}
	return nil
}

func dupErr(modName, kind, name string) *LinkError {
	return &LinkError{Where: modName, Message: fmt.Sprintf("duplicate %s name %q", kind, name)}
}

func qname(mod, local string) string { return mod + "::" + local }

// lookup finds the program-side declaration for name (optionally qualified
// as "module::local") within currentModule, falling back to a search over
// every module when unqualified and absent locally.
func lookup[T any](l *Linker, where, kind, currentModule, name string, get func(*program.Module) map[string]T) (T, error) {
	var zero T
	modName, local := currentModule, name
	if idx := strings.Index(name, "::"); idx >= 0 {
		modName, local = name[:idx], name[idx+2:]
	}
	if pm, ok := l.prog.Modules[modName]; ok {
		table := get(pm)
		if v, ok := table[local]; ok {
			return v, nil
		}
		if modName != currentModule {
			return zero, undefinedErr(where, kind, name, keysOf(table))
		}
	}
	// unqualified: search every module
	var matches []T
	var allKeys []string
	for _, pm := range l.prog.Modules {
		table := get(pm)
		allKeys = append(allKeys, keysOf(table)...)
		if v, ok := table[local]; ok {
			matches = append(matches, v)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return zero, ambiguousErr(where, kind, name)
	}
	return zero, undefinedErr(where, kind, name, allKeys)
}

func keysOf[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
