package analyzers

import (
	"strings"
)

// Similarity returns a normalized similarity score in [0,1] between two
// domain strings, where 1.0 means identical. Both inputs are lower-cased
// before comparison so that case differences never count as edits.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	longer, shorter := a, b
	if len(a) < len(b) {
		longer, shorter = b, a
	}
	if len(longer) == 0 {
		return 1.0
	}

	distance := levenshteinDistance(shorter, longer)
	return float64(len(longer)-distance) / float64(len(longer))
}

// levenshteinDistance computes the classic edit distance between two
// strings with a dynamic-programming table.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
