// Package lever polls public Lever posting boards.
package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/sources"
	"jobhunt-aggregator/internal/sources/util"
)

const DefaultBaseURL = "https://api.lever.co"

type Config struct {
	Companies []Company
	// BaseURL overrides the API host; empty means DefaultBaseURL.
	BaseURL string
	Workers int
}

type Company struct {
	Slug string // api.lever.co/v0/postings/<slug>
	Name string
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
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (f *Fetcher) Name() string { return string(domain.SourceLever) }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
	Lists            []struct {
		Text    string `json:"text"`
		Content string `json:"content"` // html
	} `json:"lists"`
}

// Fetch polls every configured company. A company that fails is logged and
// skipped; the run only fails when ctx ends.
func (f *Fetcher) Fetch(ctx context.Context) (sources.Batch, error) {
	companies := f.cfg.Companies
	jobsCh := make(chan []domain.PostingInput, len(companies))
	workCh := make(chan Company)

	var wg sync.WaitGroup
	wg.Add(f.cfg.Workers)

	for i := 0; i < f.cfg.Workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				jobs, err := f.fetchCompany(cctx, co)
				cancel()

				if err != nil {
					f.log.Warnw("lever company failed", "company", co.Name, "slug", co.Slug, "error", err)
					continue
				}
				if len(jobs) > 0 {
					jobsCh <- jobs
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(jobsCh)

	if err := ctx.Err(); err != nil {
		return sources.Batch{}, errors.Wrap(err, "lever fetch")
	}

	var out []domain.PostingInput
	for batch := range jobsCh {
		out = append(out, batch...)
	}

	f.log.Infow("lever fetched", "companies", len(companies), "postings", len(out))
	return sources.Batch{Source: domain.SourceLever, Postings: out}, nil
}

func (f *Fetcher) fetchCompany(ctx context.Context, co Company) ([]domain.PostingInput, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", strings.TrimRight(f.cfg.BaseURL, "/"), co.Slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lever request")
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if err := f.limiter.WaitURL(ctx, apiURL); err != nil {
		return nil, err
	}
	res, err := f.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lever get")
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, errors.Newf("lever status %d", res.StatusCode)
	}

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, errors.Wrap(err, "lever decode")
	}

	company := co.Name
	if company == "" {
		company = co.Slug
	}

	out := make([]domain.PostingInput, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		posted := f.now()
		if p.CreatedAt > 0 {
			posted = time.UnixMilli(p.CreatedAt).UTC()
		}
		out = append(out, domain.PostingInput{
			SourceID:    co.Slug + ":" + p.ID,
			Company:     company,
			Title:       strings.TrimSpace(p.Text),
			Description: description(p),
			Location:    util.NormalizeLocation(p.Categories.Location),
			URL:         p.HostedURL,
			DatePosted:  posted,
		})
	}
	return out, nil
}

func description(p leverPosting) string {
	parts := []string{util.CleanText(p.DescriptionPlain)}
	if parts[0] == "" {
		parts[0] = util.HTMLToText(p.Description)
	}
	for _, l := range p.Lists {
		parts = append(parts, util.CleanText(l.Text), util.HTMLToText(l.Content))
	}
	return util.CleanText(strings.Join(parts, " "))
}
