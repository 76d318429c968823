package registry

import "fmt"

// RegistryError reports a problem binding or looking up an external
// primitive: a duplicate registration, a lookup against an unregistered
// ref, or use of a frozen registry.
type RegistryError struct {
	Ref     string
	Message string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: %s: %s", e.Ref, e.Message)
}
