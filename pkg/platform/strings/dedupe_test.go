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
			name:     "trims whitespace",
			input:    []string{"  Ivan Petrov  ", "ACME LTD  "},
			expected: []string{"Ivan Petrov", "ACME LTD"},
		},
		{
			name:     "removes duplicates preserving first occurrence",
			input:    []string{"B", "A", "B", "C", "A"},
			expected: []string{"B", "A", "C"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"Ivan", "", "  ", "Petrov"},
			expected: []string{"Ivan", "Petrov"},
		},
		{
			name:     "preserves case",
			input:    []string{"Acme", "ACME", "acme"},
			expected: []string{"Acme", "ACME", "acme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "Spain", FirstNonEmpty("", "  ", "Spain", "France"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
	assert.Equal(t, "", FirstNonEmpty())
}
