package util

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const UserAgent = "JobHunt/1.0 (+local)"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// blockTags end a line of text when rendered.
const blockTags = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr"

// HTMLToText renders an HTML fragment as plain text. Block elements are
// separated by a space so words from adjacent paragraphs never fuse.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(html.UnescapeString(fragment))
	}
	doc.Find("script, style").Remove()
	doc.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return CleanText(doc.Text())
}

// EscapedHTMLToText handles APIs that ship HTML entity-escaped
// (&lt;p&gt;...), such as Greenhouse's content field.
func EscapedHTMLToText(s string) string {
	return HTMLToText(html.UnescapeString(s))
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}
