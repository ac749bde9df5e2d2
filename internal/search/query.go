// Package search answers ranked queries over the job catalog: it parses
// the query, scores each filtered job, sorts and paginates.
package search

import (
	"regexp"
	"strings"
)

var (
	exclusionRe = regexp.MustCompile(`-([\p{L}\p{N}_]+)`)
	tokenRe     = regexp.MustCompile(`\p{Nd}+(?:\.\p{Nd}+)?|[\p{L}\p{N}_]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Query is a parsed search string.
type Query struct {
	Terms      []string
	Exclusions []string
}

// ExtractExclusions pulls every -word out of query. Exclusions are
// lowercased and kept in order, duplicates included.
func ExtractExclusions(query string) (string, []string) {
	var exclusions []string
	for _, m := range exclusionRe.FindAllStringSubmatch(query, -1) {
		exclusions = append(exclusions, strings.ToLower(m[1]))
	}
	cleaned := exclusionRe.ReplaceAllString(query, "")
	cleaned = strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
	return cleaned, exclusions
}

// Tokenize lowercases text and splits it into words and decimal numbers,
// so "Python 3.9" gives ["python", "3.9"].
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

func ParseQuery(q string) Query {
	cleaned, exclusions := ExtractExclusions(q)
	return Query{Terms: Tokenize(cleaned), Exclusions: exclusions}
}
