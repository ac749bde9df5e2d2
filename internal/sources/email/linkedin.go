package email

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobhunt-aggregator/internal/sources/util"
)

// AlertJob is one job card of a LinkedIn job-alert mail.
type AlertJob struct {
	JobID    string // numeric id from /jobs/view/<id>
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
}

var (
	reSalary = regexp.MustCompile(`\$\s?\d[\d,]*(?:K|M)?\s*(?:-\s*\$\s?\d[\d,]*(?:K|M)?)?\s*/\s*(?:year|yr|hour|hr)`)
	reJobID  = regexp.MustCompile(`/jobs/view/(\d+)`)
)

// ParseLinkedInAlert reads job cards from an alert's HTML body. A card
// usually has several anchors (logo, title, company) pointing at the same
// job; they are merged by job id so the logo anchor cannot hide the title.
func ParseLinkedInAlert(htmlBody string) ([]AlertJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byID := map[string]*AlertJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		jobURL := unwrapRedirect(strings.TrimSpace(href))
		if !looksLikeLinkedInJobURL(jobURL) {
			return
		}
		m := reJobID.FindStringSubmatch(jobURL)
		if m == nil {
			return
		}

		j, ok := byID[m[1]]
		if !ok {
			j = &AlertJob{JobID: m[1], URL: canonicalJobURL(m[1])}
			byID[m[1]] = j
			order = append(order, m[1])
		}

		if t := stripBadTitleSuffixes(util.CleanText(a.Text())); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Parent()
		}

		// Company · Location sits in its own <p>.
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if t == "" {
				return
			}
			if j.Company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
				return
			}
			if t2 := stripBadTitleSuffixes(t); betterTitle(t2, j.Title) {
				j.Title = t2
			}
		})

		if j.Salary == "" {
			j.Salary = strings.TrimSpace(reSalary.FindString(util.CleanText(card.Text())))
		}
	})

	out := make([]AlertJob, 0, len(order))
	for _, id := range order {
		j := byID[id]
		if j.Title == "" || j.Company == "" {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func canonicalJobURL(id string) string {
	return "https://www.linkedin.com/jobs/view/" + id
}

func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return u.String()
}

func looksLikeLinkedInJobURL(href string) bool {
	h := strings.ToLower(href)
	return strings.Contains(h, "linkedin.com") && strings.Contains(h, "/jobs/view/")
}

func looksLikeLinkedInJobAlert(from, subj, body string) bool {
	if strings.Contains(strings.ToLower(from), "jobalerts-noreply") {
		return true
	}
	s := strings.ToLower(subj)
	if strings.Contains(s, "job alert") || strings.Contains(s, "linkedin") || strings.Contains(s, "jobs for you") {
		b := strings.ToLower(body)
		return strings.Contains(b, "linkedin.com/comm/jobs/view") ||
			strings.Contains(b, "linkedin.com/jobs/view")
	}
	return false
}

func stripBadTitleSuffixes(s string) string {
	for _, b := range []string{"Actively recruiting", "Easy Apply", "Promoted"} {
		s = strings.ReplaceAll(s, b, "")
	}
	low := strings.ToLower(s)
	for _, bad := range []string{"alumni", "connections", "applicants", "school"} {
		if strings.Contains(low, bad) {
			return ""
		}
	}
	return util.CleanText(s)
}

// betterTitle reports whether candidate should replace current. Replacing
// needs a clear margin so two close strings do not flip-flop.
func betterTitle(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	cs := titleScore(candidate)
	if current == "" {
		return cs >= 5
	}
	return cs >= titleScore(current)+3
}

var titleWords = []string{
	"engineer", "developer", "software", "backend", "frontend", "full stack", "full-stack",
	"platform", "cloud", "devops", "sre", "security", "embedded", "firmware",
	"data", "ml", "ai", "scientist", "analyst", "architect",
	"manager", "director", "lead", "principal", "staff", "intern", "technician",
}

// titleScore is a rough likelihood that s is a job title rather than a
// call to action, a salary or a location line.
func titleScore(s string) int {
	l := strings.ToLower(s)
	if strings.Contains(l, "unsubscribe") || (strings.Contains(l, "manage") && strings.Contains(l, "alert")) {
		return -50
	}
	if strings.Contains(l, "http://") || strings.Contains(l, "https://") || strings.Contains(l, "www.") {
		return -30
	}

	score := 0
	if strings.ContainsAny(s, "$€£") {
		score -= 8
	}
	for _, bad := range []string{"apply", "view job", "see job", "see details", "learn more", "sign in"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}
	for _, loc := range []string{"remote", "hybrid", "on-site", "onsite", "united states"} {
		if strings.Contains(l, loc) {
			score -= 3
		}
	}
	for _, w := range titleWords {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}
	for _, w := range strings.FieldsFunc(l, func(r rune) bool { return strings.ContainsRune(" -/(),.|", r) }) {
		switch w {
		case "sr", "senior", "jr", "junior", "ii", "iii", "iv":
			score += 2
		}
	}

	switch n := len([]rune(s)); {
	case n >= 6 && n <= 80:
		score += 2
	case n < 4 || n > 140:
		score -= 6
	}
	if strings.HasSuffix(s, ".") || strings.Contains(l, "you will") || strings.Contains(l, "we are") {
		score -= 4
	}
	return score
}
