package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "Identical domains",
			a:        "paypal.com",
			b:        "paypal.com",
			expected: 1.0,
		},
		{
			name:     "Case is ignored",
			a:        "PayPal.com",
			b:        "paypal.com",
			expected: 1.0,
		},
		{
			name:     "One substitution on ten characters",
			a:        "paypa1.com",
			b:        "paypal.com",
			expected: 0.9,
		},
		{
			name:     "Both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "One empty",
			a:        "",
			b:        "abcd",
			expected: 0.0,
		},
		{
			name:     "Completely different",
			a:        "abcd",
			b:        "wxyz",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Similarity(tt.a, tt.b), 0.001)
		})
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	assert.Equal(t, Similarity("micros0ft.com", "microsoft.com"), Similarity("microsoft.com", "micros0ft.com"))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"Empty to empty", "", "", 0},
		{"Empty to word", "", "abc", 3},
		{"Single substitution", "kitten", "sitten", 1},
		{"Classic kitten-sitting", "kitten", "sitting", 3},
		{"Transposition costs two", "paypal", "payapl", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, levenshteinDistance(tt.a, tt.b))
		})
	}
}
