package executor

import (
	"sort"
	"strings"

	"github.com/stl-run/stl/program"
)

// Global is the executor's global-state valuation G: a partial mapping
// from StateInstance to its current symbolic value. An instance absent
// from the map defaults to its StateDecl's first declared value, matching
// the historical implementation's "first value is the initial value" rule.
type Global struct {
	values map[string]string
	decls  map[string]*program.StateDecl
}

// NewGlobal returns an empty valuation.
func NewGlobal() *Global {
	return &Global{values: map[string]string{}, decls: map[string]*program.StateDecl{}}
}

// Get returns inst's current value, defaulting to inst.Decl.Values[0] if
// never explicitly set.
func (g *Global) Get(inst program.StateInstance) string {
	key := inst.Key()
	if v, ok := g.values[key]; ok {
		return v
	}
	if len(inst.Decl.Values) == 0 {
		return ""
	}
	return inst.Decl.Values[0]
}

// Set commits inst's value.
func (g *Global) Set(inst program.StateInstance, val string) {
	key := inst.Key()
	g.values[key] = val
	g.decls[key] = inst.Decl
}

// Clone deep-copies the valuation, so that changes to the copy never
// mutate the live state.
func (g *Global) Clone() *Global {
	cp := &Global{values: make(map[string]string, len(g.values)), decls: make(map[string]*program.StateDecl, len(g.decls))}
	for k, v := range g.values {
		cp.values[k] = v
	}
	for k, v := range g.decls {
		cp.decls[k] = v
	}
	return cp
}

// Snapshot returns a copy of the valuation suitable for checkpointing:
// registry/checkpoint persists it and LoadInto restores it into a fresh
// Global on resume.
func (g *Global) Snapshot() map[string]string {
	cp := make(map[string]string, len(g.values))
	for k, v := range g.values {
		cp[k] = v
	}
	return cp
}

// LoadInto merges snapshot into g's valuation, e.g. one loaded from
// registry/checkpoint at the start of a resumed run: every key in snapshot
// overwrites g's value for it, and keys absent from snapshot keep their
// current value. It does not need
// StateDecl back-references: Get checks the values map before falling
// back to a decl's default, so a restored key resolves correctly even
// before its StateInstance is ever computed again in this run.
func (g *Global) LoadInto(snapshot map[string]string) {
	for k, v := range snapshot {
		g.values[k] = v
	}
}

// Fingerprint returns a deterministic string encoding the explicitly set
// part of the valuation, with keys in sorted order, so two valuations can
// be compared as strings.
func (g *Global) Fingerprint() string {
	keys := make([]string, 0, len(g.values))
	for k := range g.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(g.values[k])
		b.WriteByte(';')
	}
	return b.String()
}
