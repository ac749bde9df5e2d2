// Package similarity scores how alike two strings are on a 0..1 scale.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Levenshtein is the rune-level edit distance between a and b.
func Levenshtein(a, b string) int {
	return fuzzy.LevenshteinDistance(a, b)
}

// Ratio returns 1 - lev(a,b)/max(len(a),len(b)) after lowercasing and
// trimming both sides. Either side empty gives 0.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b), 1)
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}
