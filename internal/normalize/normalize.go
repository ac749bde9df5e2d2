// Package normalize turns free-text company names and job titles into the
// lowercase keys used to pre-filter duplicate candidates.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)

func prepare(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFC.String(s)))
}

func collapse(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
