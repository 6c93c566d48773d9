// Package strings holds small slice-of-string helpers shared across packages.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims whitespace, lowercases, and removes duplicates
// and empties from a slice. Order of first occurrence is preserved. Used to
// clean recipient lists read from the environment.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		cleaned := strings.ToLower(strings.TrimSpace(v))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; !ok {
			seen[cleaned] = struct{}{}
			result = append(result, cleaned)
		}
	}

	return result
}
