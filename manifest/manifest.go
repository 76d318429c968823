// Package manifest loads a test manifest: the dictionary-shaped document
// naming the STL source files to parse, the role instances to construct,
// which of those roles the driver steps, and the optional registry
// extensions (guard-constrained qualifiers, scripted primitives,
// transport links, checkpoint file) a run wires in before driving. The
// loader is a deliberately small external collaborator, not part of the
// core engine: a textual substitution pass over `$key` occurrences
// followed by an ordinary YAML read, per the historical loader's own
// scope.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RoleInstance is one entry of the manifest's `roles` list: a
// fully-qualified role name plus its field values, keyed by field name as
// written in the manifest (type-checked against the linked program.Role
// only once the executor constructs the live instance).
type RoleInstance struct {
	Role   string                 `yaml:"role"`
	Fields map[string]interface{} `yaml:",inline"`
}

// QualifierGuard declares a manifest-configured registry.QualifierFunc
// that wraps an already-registered base qualifier with a guard expression
// (package guard, via registry/qualexpr), retrying Base's Generate until
// Expr accepts the result. Registered under Ref, a new external reference
// an STL qualifier declaration can name.
type QualifierGuard struct {
	Ref         string   `yaml:"ref"`
	Base        string   `yaml:"base"`
	Expr        string   `yaml:"expr"`
	ArgNames    []string `yaml:"arg_names"`
	MaxAttempts int      `yaml:"max_attempts"`
}

// ScriptEvent binds an external event reference to a JS function name
// exposed by the manifest's Script.
type ScriptEvent struct {
	Ref  string `yaml:"ref"`
	Func string `yaml:"func"`
}

// ScriptQualifier binds an external qualifier reference to a JS function
// name, plus the STL scalar kind ("int", "bool", or "string") its return
// value converts to.
type ScriptQualifier struct {
	Ref    string `yaml:"ref"`
	Func   string `yaml:"func"`
	Return string `yaml:"return"`
}

// Script declares a JavaScript source file (path resolved relative to the
// manifest's own directory, like STLFiles) plus the external events and
// qualifiers it defines, evaluated via registry/scripting.
type Script struct {
	Path       string            `yaml:"path"`
	Events     []ScriptEvent     `yaml:"events"`
	Qualifiers []ScriptQualifier `yaml:"qualifiers"`
}

// TransportLink declares one registry/transport connection: Transport is
// "websocket" or "mqtt"; Direction is "send" or "wait". A "wait" link
// names the fully-qualified MessageDecl (module::Message) it decodes
// received frames against.
type TransportLink struct {
	Ref       string `yaml:"ref"`
	Transport string `yaml:"transport"`
	URL       string `yaml:"url"`
	Topic     string `yaml:"topic"`
	Direction string `yaml:"direction"`
	Message   string `yaml:"message"`
}

// Checkpoint declares the bbolt file (registry/checkpoint) a run persists
// its global valuation and step count to, and resumes from on the next
// run against the same path.
type Checkpoint struct {
	Path string `yaml:"path"`
}

// Manifest is the resolved, substituted manifest document.
type Manifest struct {
	STLFiles        []string         `yaml:"stl_files"`
	Roles           []RoleInstance   `yaml:"roles"`
	Test            []string         `yaml:"test"`
	QualifierGuards []QualifierGuard `yaml:"qualifier_guards"`
	Script          *Script          `yaml:"script"`
	Transport       []TransportLink  `yaml:"transport"`
	Checkpoint      *Checkpoint      `yaml:"checkpoint"`
}

// Load substitutes args into raw per Substitute and parses the result as
// a Manifest, then validates that every name in `test` also appears in
// `roles`.
func Load(raw string, args map[string]string) (*Manifest, error) {
	substituted := Substitute(raw, args)

	var m Manifest
	if err := yaml.Unmarshal([]byte(substituted), &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}

	known := make(map[string]bool, len(m.Roles))
	for _, r := range m.Roles {
		known[r.Role] = true
	}
	for _, t := range m.Test {
		if !known[t] {
			return nil, fmt.Errorf("manifest: test role %q has no entry in roles", t)
		}
	}
	return &m, nil
}
