// Package util provides small helpers shared by the converter packages.
package util

import "strings"

// ClosestMatch returns the candidate with the smallest Levenshtein distance to
// input, compared case-insensitively. Returns "" when no candidate is within
// maxDistance edits.
func ClosestMatch(input string, candidates []string, maxDistance int) string {
	needle := strings.ToLower(strings.TrimSpace(input))
	bestDistance := maxDistance + 1
	var bestMatch string

	for _, c := range candidates {
		distance := LevenshteinDistance(needle, strings.ToLower(c))
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = c
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// LevenshteinDistance calculates the minimum number of single-character edits
// (insertions, deletions or substitutions) required to turn a into b.
func LevenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rolling rows are enough
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
