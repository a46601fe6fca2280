package speaker

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Normalize lowercases s, trims surrounding whitespace, and strips every
// character outside [a-z0-9] and whitespace. All similarity comparisons in
// this package operate on normalized strings.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\t', r == '\n':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FirstName returns the first whitespace-delimited token of s, lowercased.
// Returns "" for a blank string.
func FirstName(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// LastName returns the last whitespace-delimited token of s, lowercased,
// when s has more than one token. A single-token or blank string has no last
// name and yields "".
func LastName(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// EditDistance returns the Levenshtein distance between a and b after
// normalization.
func EditDistance(a, b string) int {
	return matchr.Levenshtein(Normalize(a), Normalize(b))
}

// Similarity returns 1 - editDistance/max(len) over the normalized strings,
// in [0, 1]. Two empty strings are defined as identical (similarity 1).
// Deterministic: identical inputs always produce identical results.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(na, nb))/float64(longest)
}
