package httpapi

import (
	"io"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/search"
)

// ---- ingest ----

type ingestJob struct {
	ID          *string   `json:"id"`
	Source      *string   `json:"source"`
	Company     *string   `json:"company"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	URL         *string   `json:"url"`
	DatePosted  *flexTime `json:"date_posted"`
}

type ingestRequest struct {
	Source string      `json:"source"`
	Jobs   []ingestJob `json:"jobs"`
}

type ingestResponse struct {
	Inserted       int `json:"inserted"`
	Merged         int `json:"merged"`
	TotalProcessed int `json:"total_processed"`
}

// ParseIngest reads an ingest request body, as accepted by POST
// /jobs/ingest, and validates it.
func ParseIngest(r io.Reader) (domain.Source, []domain.PostingInput, error) {
	var req ingestRequest
	if err := decodeReader(r, &req); err != nil {
		return "", nil, err
	}
	return req.toPostings()
}

// toPostings validates the request. Every field of every job must be
// present; id, company and title must also be non-blank. A job's source
// must name the batch source, which is the one recorded on its link.
func (req ingestRequest) toPostings() (domain.Source, []domain.PostingInput, error) {
	source, err := domain.ParseSource(req.Source)
	if err != nil {
		return "", nil, err
	}
	if req.Jobs == nil {
		return "", nil, errors.InvalidRequestf("jobs is required")
	}

	out := make([]domain.PostingInput, 0, len(req.Jobs))
	for i, j := range req.Jobs {
		missing := missingFields(j)
		if len(missing) > 0 {
			return "", nil, errors.InvalidRequestf("jobs[%d]: missing %s", i, strings.Join(missing, ", "))
		}
		js, err := domain.ParseSource(*j.Source)
		if err != nil {
			return "", nil, errors.Wrapf(err, "jobs[%d].source", i)
		}
		if js != source {
			return "", nil, errors.InvalidRequestf("jobs[%d].source %q does not match batch source %q", i, js, source)
		}
		out = append(out, domain.PostingInput{
			SourceID:    strings.TrimSpace(*j.ID),
			Company:     *j.Company,
			Title:       *j.Title,
			Description: *j.Description,
			Location:    *j.Location,
			URL:         *j.URL,
			DatePosted:  time.Time(*j.DatePosted),
		})
	}
	return source, out, nil
}

func missingFields(j ingestJob) []string {
	var missing []string
	blank := func(p *string) bool { return p == nil || strings.TrimSpace(*p) == "" }
	if blank(j.ID) {
		missing = append(missing, "id")
	}
	if j.Source == nil {
		missing = append(missing, "source")
	}
	if blank(j.Company) {
		missing = append(missing, "company")
	}
	if blank(j.Title) {
		missing = append(missing, "title")
	}
	if j.Description == nil {
		missing = append(missing, "description")
	}
	if j.Location == nil {
		missing = append(missing, "location")
	}
	if j.URL == nil {
		missing = append(missing, "url")
	}
	if j.DatePosted == nil {
		missing = append(missing, "date_posted")
	}
	return missing
}

// flexTime accepts RFC 3339 and the zone-less forms feeds commonly send.
// Zone-less values are taken as UTC.
type flexTime time.Time

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	for _, layout := range flexLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = flexTime(v.UTC())
			return nil
		}
	}
	return errors.InvalidRequestf("date_posted %q is not a date", s)
}

// ---- search / detail ----

type sourceRef struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

type jobResult struct {
	JobID             string      `json:"job_id"`
	Company           string      `json:"company"`
	Title             string      `json:"title"`
	Location          string      `json:"location"`
	DatePosted        time.Time   `json:"date_posted"`
	RelevanceScore    *float64    `json:"relevance_score,omitempty"`
	Sources           []sourceRef `json:"sources"`
	ApplicationStatus *string     `json:"application_status"`
}

type searchResponse struct {
	Results  []jobResult `json:"results"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type jobDetail struct {
	JobID             string      `json:"job_id"`
	Company           string      `json:"company"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Location          string      `json:"location"`
	DatePosted        time.Time   `json:"date_posted"`
	CreatedAt         time.Time   `json:"created_at"`
	Sources           []sourceRef `json:"sources"`
	ApplicationStatus *string     `json:"application_status"`
	ApplicationNotes  *string     `json:"application_notes"`
}

// NewSearchResponse renders a search page the way GET /jobs/search does.
func NewSearchResponse(p search.Params, page search.Page) any {
	return newSearchResponse(p, page)
}

func newSearchResponse(p search.Params, page search.Page) searchResponse {
	out := searchResponse{
		Results:  make([]jobResult, 0, len(page.Results)),
		Total:    page.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	for _, hit := range page.Results {
		out.Results = append(out.Results, toJobResult(hit.Job, hit.Score))
	}
	return out
}

// displayCompany title-cases the normalized company ("acme widgets" ->
// "Acme Widgets").
func displayCompany(normalized string) string {
	return cases.Title(language.Und).String(normalized)
}

func sourceRefs(links []domain.SourceLink) []sourceRef {
	out := make([]sourceRef, 0, len(links))
	for _, l := range links {
		out = append(out, sourceRef{Source: string(l.Source), URL: l.URL})
	}
	return out
}

func roundScore(score float64) *float64 {
	r := math.Round(score*1000) / 1000
	if r == 0 {
		return nil
	}
	return &r
}

func toJobResult(j domain.JobPosting, score float64) jobResult {
	res := jobResult{
		JobID:          j.ID,
		Company:        displayCompany(j.NormalizedCompany),
		Title:          j.OriginalTitle,
		Location:       j.Location,
		DatePosted:     j.DatePosted,
		RelevanceScore: roundScore(score),
		Sources:        sourceRefs(j.Sources),
	}
	if j.Application != nil {
		s := string(j.Application.Status)
		res.ApplicationStatus = &s
	}
	return res
}

func toJobDetail(j domain.JobPosting) jobDetail {
	d := jobDetail{
		JobID:       j.ID,
		Company:     displayCompany(j.NormalizedCompany),
		Title:       j.OriginalTitle,
		Description: j.Description,
		Location:    j.Location,
		DatePosted:  j.DatePosted,
		CreatedAt:   j.CreatedAt,
		Sources:     sourceRefs(j.Sources),
	}
	if a := j.Application; a != nil {
		s, n := string(a.Status), a.Notes
		d.ApplicationStatus, d.ApplicationNotes = &s, &n
	}
	return d
}

// ---- applications ----

type applicationCreate struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type applicationUpdate struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type applicationResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
	Job       jobResult `json:"job"`
}

func toApplicationResponse(a domain.Application, j domain.JobPosting) applicationResponse {
	j.Application = &a
	res := applicationResponse{
		JobID:     a.JobID,
		Status:    string(a.Status),
		UpdatedAt: a.UpdatedAt,
		Job:       toJobResult(j, 0),
	}
	if a.Notes != "" {
		n := a.Notes
		res.Notes = &n
	}
	return res
}
