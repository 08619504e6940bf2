package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"DC-2026-A1B2C3D4"},
			expected: []string{"DC-2026-A1B2C3D4"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  DC-2026-A1B2C3D4  ", "DC-2025-00FF00FF  "},
			expected: []string{"DC-2026-A1B2C3D4", "DC-2025-00FF00FF"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"DC-2026-A1B2C3D4", "DC-2025-00FF00FF", "DC-2026-A1B2C3D4"},
			expected: []string{"DC-2026-A1B2C3D4", "DC-2025-00FF00FF"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"DC-2026-A1B2C3D4", "", "  ", "DC-2025-00FF00FF"},
			expected: []string{"DC-2026-A1B2C3D4", "DC-2025-00FF00FF"},
		},
		{
			name:     "preserves case",
			input:    []string{"DC-2026-A1B2C3D4", "dc-2026-a1b2c3d4"},
			expected: []string{"DC-2026-A1B2C3D4", "dc-2026-a1b2c3d4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
