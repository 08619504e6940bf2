// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved, so a cleaned batch of
// certificate numbers still maps onto its verification results by position.
//
// Example:
//
//	DedupeAndTrim([]string{"  DC-2026-A1B2C3D4 ", "DC-2025-00FF00FF", "DC-2026-A1B2C3D4", ""})
//	// Returns: []string{"DC-2026-A1B2C3D4", "DC-2025-00FF00FF"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
