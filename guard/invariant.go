package guard

// EvaluateFieldInvariant checks whether a guard expression holds over a set
// of named field bindings, e.g. a qualifier-write constraint such as
// "requestId > 0 && requestId < 1000000" evaluated against the values bound
// in a transition frame.
func EvaluateFieldInvariant(expr string, fields map[string]interface{}) (bool, error) {
	if expr == "" {
		return true, nil
	}
	return Evaluate(expr, fields, nil)
}
