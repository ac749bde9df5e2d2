// Package greenhouse polls public Greenhouse job boards through the
// boards API.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/sources"
	"jobhunt-aggregator/internal/sources/util"
)

const DefaultBaseURL = "https://boards-api.greenhouse.io"

type Config struct {
	Companies []Company // list of boards
	BaseURL   string
}

type Company struct {
	Slug string // boards.greenhouse.io/<slug>
	Name string // display name
}

type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.SugaredLogger
	now     func() time.Time
}

func New(cfg Config, limiter *util.HostLimiter, log *zap.SugaredLogger) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (f *Fetcher) Name() string { return string(domain.SourceGreenhouse) }

type boardResponse struct {
	Jobs []struct {
		ID             int64  `json:"id"`
		Title          string `json:"title"`
		AbsoluteURL    string `json:"absolute_url"`
		UpdatedAt      string `json:"updated_at"`
		FirstPublished string `json:"first_published"`
		CompanyName    string `json:"company_name"`
		Location       struct {
			Name string `json:"name"`
		} `json:"location"`
		Content string `json:"content"` // entity-escaped html
	} `json:"jobs"`
}

// Fetch walks the boards one by one; boards share a host so the limiter
// would serialize them anyway. A board that is down is logged and skipped.
func (f *Fetcher) Fetch(ctx context.Context) (sources.Batch, error) {
	var out []domain.PostingInput
	for _, co := range f.cfg.Companies {
		if err := ctx.Err(); err != nil {
			return sources.Batch{}, errors.Wrap(err, "greenhouse fetch")
		}
		jobs, err := f.fetchCompany(ctx, co)
		if err != nil {
			f.log.Warnw("greenhouse board failed", "company", co.Name, "slug", co.Slug, "error", err)
			continue
		}
		out = append(out, jobs...)
	}
	f.log.Infow("greenhouse fetched", "companies", len(f.cfg.Companies), "postings", len(out))
	return sources.Batch{Source: domain.SourceGreenhouse, Postings: out}, nil
}

func (f *Fetcher) fetchCompany(ctx context.Context, co Company) ([]domain.PostingInput, error) {
	boardURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", strings.TrimRight(f.cfg.BaseURL, "/"), co.Slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "greenhouse request")
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if err := f.limiter.WaitURL(ctx, boardURL); err != nil {
		return nil, err
	}
	res, err := f.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "greenhouse get board")
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, errors.Newf("greenhouse board status %d", res.StatusCode)
	}

	var body boardResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "greenhouse decode board")
	}

	out := make([]domain.PostingInput, 0, len(body.Jobs))
	for _, j := range body.Jobs {
		title := util.CleanText(j.Title)
		if j.ID == 0 || title == "" {
			continue
		}
		company := co.Name
		if company == "" {
			company = util.CleanText(j.CompanyName)
		}
		if company == "" {
			company = co.Slug
		}
		out = append(out, domain.PostingInput{
			SourceID:    co.Slug + ":" + strconv.FormatInt(j.ID, 10),
			Company:     company,
			Title:       title,
			Description: util.EscapedHTMLToText(j.Content),
			Location:    util.NormalizeLocation(j.Location.Name),
			URL:         j.AbsoluteURL,
			DatePosted:  f.postedAt(j.FirstPublished, j.UpdatedAt),
		})
	}
	return out, nil
}

// postedAt prefers first_published; older boards only carry updated_at.
func (f *Fetcher) postedAt(stamps ...string) time.Time {
	for _, s := range stamps {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return f.now()
}
