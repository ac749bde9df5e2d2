package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/store"
)

const (
	SortRelevance = "relevance"
	SortDate      = "date"

	DefaultPageSize = 20
)

// Reader is the part of store.Store search needs.
type Reader interface {
	FindJobs(ctx context.Context, f store.Filter) ([]domain.JobPosting, error)
	FindJobByID(ctx context.Context, id string) (domain.JobPosting, bool, error)
}

type Params struct {
	Query    string
	Company  string
	Location string
	// Days keeps jobs posted in the last Days days. 0 disables the filter.
	Days   int
	Source domain.Source
	Sort   string
	// Page is 1-indexed.
	Page     int
	PageSize int
}

type Hit struct {
	Job   domain.JobPosting
	Score float64
}

type Page struct {
	Results []Hit
	// Total counts every job that survived scoring, across all pages.
	Total int
}

type Engine struct {
	reader Reader

	mu     sync.RWMutex
	scorer Scorer
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewEngine(r Reader, scorer Scorer, log *zap.SugaredLogger) *Engine {
	now := scorer.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{reader: r, scorer: scorer, now: now, log: logger.OrNop(log)}
}

// SetScorer swaps the weights used by later searches. The clock set at
// construction is kept.
func (e *Engine) SetScorer(s Scorer) {
	if s.Now == nil {
		s.Now = e.now
	}
	e.mu.Lock()
	e.scorer = s
	e.mu.Unlock()
}

func (e *Engine) Search(ctx context.Context, p Params) (Page, error) {
	q := ParseQuery(p.Query)

	f := store.Filter{
		Company:  strings.TrimSpace(p.Company),
		Location: strings.TrimSpace(p.Location),
		Source:   p.Source,
	}
	if p.Days > 0 {
		f.PostedSince = e.now().Add(-time.Duration(p.Days) * 24 * time.Hour)
	}

	jobs, err := e.reader.FindJobs(ctx, f)
	if err != nil {
		return Page{}, errors.Wrap(err, "search jobs")
	}

	e.mu.RLock()
	scorer := e.scorer
	e.mu.RUnlock()

	hits := make([]Hit, 0, len(jobs))
	for _, j := range jobs {
		score, ok := scorer.Score(j, q.Terms, q.Exclusions)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Job: j, Score: score})
	}

	if p.Sort != SortDate && len(q.Terms) > 0 {
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	} else {
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].Job.DatePosted.After(hits[b].Job.DatePosted) })
	}

	e.log.Debugw("search",
		"terms", q.Terms,
		"exclusions", q.Exclusions,
		"fetched", len(jobs),
		"matched", len(hits),
	)

	return Page{Results: paginate(hits, p.Page, p.PageSize), Total: len(hits)}, nil
}

func paginate(hits []Hit, page, size int) []Hit {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 || page-1 > len(hits)/size {
		return []Hit{}
	}
	start := (page - 1) * size
	if start >= len(hits) {
		return []Hit{}
	}
	end := min(start+size, len(hits))
	return hits[start:end]
}

// Job returns one posting by id with its links and application.
func (e *Engine) Job(ctx context.Context, id string) (domain.JobPosting, bool, error) {
	j, ok, err := e.reader.FindJobByID(ctx, id)
	if err != nil {
		return domain.JobPosting{}, false, errors.Wrapf(err, "find job %s", id)
	}
	return j, ok, nil
}
