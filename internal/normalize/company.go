package normalize

import "regexp"

// Applied once each, in this order. A name carrying two suffixes keeps
// whichever one was not reached.
var companySuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s+inc\.?$`),
	regexp.MustCompile(`\s+incorporated$`),
	regexp.MustCompile(`\s+llc\.?$`),
	regexp.MustCompile(`\s+ltd\.?$`),
	regexp.MustCompile(`\s+corporation$`),
	regexp.MustCompile(`\s+corp\.?$`),
	regexp.MustCompile(`\s+company$`),
	regexp.MustCompile(`\s+co\.?$`),
	regexp.MustCompile(`\s+limited$`),
}

var companyJunkRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Company returns the canonical key for a company name.
func Company(raw string) string {
	s := prepare(raw)
	for _, re := range companySuffixes {
		s = re.ReplaceAllString(s, "")
	}
	s = companyJunkRe.ReplaceAllString(s, "")
	return collapse(s)
}
