package link

import "fmt"

// LinkError reports a name-resolution failure: undefined reference,
// ambiguous reference, arity mismatch, or cyclic constant definition.
type LinkError struct {
	Where      string
	Message    string
	Suggestion string // "" if no close candidate was found
}

func (e *LinkError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("link error at %s: %s (did you mean %q?)", e.Where, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("link error at %s: %s", e.Where, e.Message)
}

func undefinedErr(where, kind, name string, candidates []string) *LinkError {
	return &LinkError{
		Where:      where,
		Message:    fmt.Sprintf("undefined %s %q", kind, name),
		Suggestion: closestCandidate(name, candidates),
	}
}

func ambiguousErr(where, kind, name string) *LinkError {
	return &LinkError{Where: where, Message: fmt.Sprintf("ambiguous %s %q", kind, name)}
}

func arityErr(where, name string, want, got int) *LinkError {
	return &LinkError{Where: where, Message: fmt.Sprintf("%q expects %d argument(s), got %d", name, want, got)}
}

func cyclicErr(where, name string) *LinkError {
	return &LinkError{Where: where, Message: fmt.Sprintf("cyclic constant definition involving %q", name)}
}
