// Package registry implements the STL primitive registry: the read-after-
// startup binding from a program's `external "..."` references to actual
// Go implementations of events, qualifiers, and message codecs.
package registry

import (
	"github.com/rs/zerolog"

	"github.com/stl-run/stl/value"
)

// RoleContext exposes the transition-event's source or target role
// instance to an external event handler, without this package depending
// on package executor (which already depends on registry): a routing
// transport primitive can read the sending/receiving role's fields to
// address a message without the executor hardcoding any transport
// concern. A primitive indifferent to its caller's roles, like the
// registry/builtin events, simply ignores it.
type RoleContext interface {
	QualifiedName() string
	Field(name string) value.Value
}

// EventFunc implements one external event's behavior: args holds the
// evaluated by-value arguments in declared order, refs holds pointers to
// the cells bound to by-reference arguments (writable in place), and
// source/target are the transition event's two role instances. It
// returns false, not an error, for an expected protocol-level rejection;
// a non-nil error means the primitive itself failed.
type EventFunc func(args []value.Value, refs []*value.Value, source, target RoleContext) (bool, error)

// QualifierFunc implements one external qualifier: given the qualifier's
// arguments, it returns the qualifier's value (the "Generate" side of the
// historical Validate/Generate qualifier contract; validation of a
// pre-existing value against the same contract is exercised by
// registry/qualtest, not by the linked program, which only ever calls a
// qualifier to produce a value).
type QualifierFunc func(args []value.Value) (value.Value, error)

// Registry is a dotted-name keyed table of external primitives, frozen
// after startup: registration methods return a *RegistryError if called
// after Freeze.
type Registry struct {
	events     map[string]EventFunc
	qualifiers map[string]QualifierFunc
	bytestream value.BytestreamCodec
	proto      value.ProtoSchemaRegistry
	frozen     bool
	log        zerolog.Logger
}

// New returns an empty, unfrozen Registry.
func New() *Registry {
	return &Registry{
		events:     map[string]EventFunc{},
		qualifiers: map[string]QualifierFunc{},
		log:        zerolog.Nop(),
	}
}

// NewWithLogger returns an empty Registry logging through log.
func NewWithLogger(log zerolog.Logger) *Registry {
	r := New()
	r.log = log
	return r
}

// RegisterEvent binds ref to fn. Returns an error if ref is already bound
// or the registry is frozen.
func (r *Registry) RegisterEvent(ref string, fn EventFunc) error {
	if r.frozen {
		return &RegistryError{Ref: ref, Message: "registry is frozen"}
	}
	if _, exists := r.events[ref]; exists {
		return &RegistryError{Ref: ref, Message: "event already registered"}
	}
	r.events[ref] = fn
	r.log.Debug().Str("ref", ref).Msg("registered event")
	return nil
}

// RegisterQualifier binds ref to fn.
func (r *Registry) RegisterQualifier(ref string, fn QualifierFunc) error {
	if r.frozen {
		return &RegistryError{Ref: ref, Message: "registry is frozen"}
	}
	if _, exists := r.qualifiers[ref]; exists {
		return &RegistryError{Ref: ref, Message: "qualifier already registered"}
	}
	r.qualifiers[ref] = fn
	r.log.Debug().Str("ref", ref).Msg("registered qualifier")
	return nil
}

// SetBytestreamCodec installs the codec used for `bytestream`-encoded messages.
func (r *Registry) SetBytestreamCodec(c value.BytestreamCodec) { r.bytestream = c }

// SetProtoSchemaRegistry installs the schema source used for `protobuf`-encoded messages.
func (r *Registry) SetProtoSchemaRegistry(c value.ProtoSchemaRegistry) { r.proto = c }

// Freeze marks the registry read-only; called once startup registration
// is complete and before the executor begins firing transitions.
func (r *Registry) Freeze() { r.frozen = true }

// Event looks up an external event handler by its `external` reference.
func (r *Registry) Event(ref string) (EventFunc, error) {
	fn, ok := r.events[ref]
	if !ok {
		return nil, &RegistryError{Ref: ref, Message: "no event registered"}
	}
	return fn, nil
}

// Qualifier looks up an external qualifier by its `external` reference.
func (r *Registry) Qualifier(ref string) (QualifierFunc, error) {
	fn, ok := r.qualifiers[ref]
	if !ok {
		return nil, &RegistryError{Ref: ref, Message: "no qualifier registered"}
	}
	return fn, nil
}

// FieldCodec implements value.BytestreamCodec by delegating to the
// installed codec, satisfying the executor's codec-lookup needs without
// exposing the registry's internal storage.
func (r *Registry) FieldCodec(externalRef string) (value.FieldCodec, error) {
	if r.bytestream == nil {
		return nil, &RegistryError{Ref: externalRef, Message: "no bytestream codec registered"}
	}
	return r.bytestream.FieldCodec(externalRef)
}

// ProtoSchema implements value.ProtoSchemaRegistry by delegating to the
// installed schema source.
func (r *Registry) ProtoSchema(externalRef string) (value.ProtoSchema, error) {
	if r.proto == nil {
		return nil, &RegistryError{Ref: externalRef, Message: "no protobuf schema registered"}
	}
	return r.proto.ProtoSchema(externalRef)
}
