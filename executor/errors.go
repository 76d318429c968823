package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFirable means a transition's pre_states did not match the
	// current global valuation at Fire time.
	ErrNotFirable = errors.New("executor: transition not firable from current state")
	// ErrUnknownTransition means no transition of that name exists in the module.
	ErrUnknownTransition = errors.New("executor: unknown transition")
)

// EventFailure is a recoverable error: an event in a transition's events
// list returned false or its external handler returned a non-nil error.
// The transition rolls back to its error_states, if any, rather than
// aborting the run.
type EventFailure struct {
	Where string
	Err   error
}

func (e *EventFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("executor: event failed at %s: %v", e.Where, e.Err)
	}
	return fmt.Sprintf("executor: event failed at %s", e.Where)
}

func (e *EventFailure) Unwrap() error { return e.Err }

// Stuck reports that the role under test has no firable transition from
// the current global valuation, together with which pre-state conditions
// of its candidate transitions are not currently met.
type Stuck struct {
	Role               string
	ReachablePreconditions []string
}

func (s *Stuck) Error() string {
	return fmt.Sprintf("executor: %s is stuck; reachable preconditions: %s",
		s.Role, strings.Join(s.ReachablePreconditions, ", "))
}

// DepthExceeded means composite-event expansion recursed past the depth
// bound (default 64) without reaching a non-composite event body.
type DepthExceeded struct {
	Where string
	Depth int
}

func (e *DepthExceeded) Error() string {
	return fmt.Sprintf("executor: composite event expansion at %s exceeded depth %d", e.Where, e.Depth)
}

// Fatal wraps an error that aborts the whole run rather than just the
// in-flight transition, e.g. a RegistryError for a primitive that was
// never registered.
type Fatal struct {
	Err error
}

func (e *Fatal) Error() string { return fmt.Sprintf("executor: fatal: %v", e.Err) }
func (e *Fatal) Unwrap() error { return e.Err }
