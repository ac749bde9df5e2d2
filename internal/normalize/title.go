package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviation is a whole-word rewrite. RE2's \b only knows ASCII word
// characters, so boundaries are checked here against Unicode letters and
// digits instead.
type abbreviation struct {
	word   string
	optDot bool // "sr." matches as a unit when a word follows the dot
	repl   string
}

// Order matters: each rule sees the output of the ones before it, and the
// result is a dedup key.
var titleAbbreviations = []abbreviation{
	{word: "swe", repl: "software engineer"},
	{word: "sr", optDot: true, repl: "senior"},
	{word: "jr", optDot: true, repl: "junior"},
	{word: "mgr", optDot: true, repl: "manager"},
	{word: "dev", optDot: true, repl: "developer"},
	{word: "eng", optDot: true, repl: "engineer"},
	{word: "qa", repl: "quality assurance"},
	{word: "ml", repl: "machine learning"},
	{word: "ai", repl: "artificial intelligence"},
	{word: "fe", repl: "frontend"},
	{word: "be", repl: "backend"},
	{word: "fs", repl: "fullstack"},
	{word: "ui/ux", repl: "ui ux"},
}

var titleJunkRe = regexp.MustCompile(`[^\p{L}\p{N}\s/]`)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// expand replaces every whole-word occurrence left to right. Replacements
// are not rescanned.
func (a abbreviation) expand(s string) string {
	var b strings.Builder
	last, i := 0, 0
	for i < len(s) {
		j := strings.Index(s[i:], a.word)
		if j < 0 {
			break
		}
		start := i + j
		end, ok := a.matchAt(s, start)
		if !ok {
			_, size := utf8.DecodeRuneInString(s[start:])
			i = start + size
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(a.repl)
		last, i = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// matchAt reports where a match of a.word starting at start ends, if the
// occurrence sits on word boundaries.
func (a abbreviation) matchAt(s string, start int) (int, bool) {
	if start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(prev) {
			return 0, false
		}
	}
	end := start + len(a.word)
	next, size := utf8.DecodeRuneInString(s[end:])
	if a.optDot && size > 0 && next == '.' {
		if after, n := utf8.DecodeRuneInString(s[end+1:]); n > 0 && isWordRune(after) {
			return end + 1, true
		}
	}
	if size == 0 || !isWordRune(next) {
		return end, true
	}
	return 0, false
}

// Title returns the canonical key for a job title.
func Title(raw string) string {
	s := prepare(raw)
	for _, a := range titleAbbreviations {
		s = a.expand(s)
	}
	s = titleJunkRe.ReplaceAllString(s, "")
	return collapse(s)
}
