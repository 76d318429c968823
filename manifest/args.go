package manifest

import (
	"fmt"
	"strings"
)

// ParseArgs parses the `-a/--manifest-args` space-separated key=value
// pairs into the map Substitute expects.
func ParseArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("manifest: malformed argument %q, want key=value", p)
		}
		args[k] = v
	}
	return args, nil
}
