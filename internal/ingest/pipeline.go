// Package ingest turns batches of raw postings into canonical job records,
// merging postings that describe a job already known from another source.
package ingest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/dedup"
	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/normalize"
	"jobhunt-aggregator/internal/store"
)

// Result counts what happened to each posting of a batch.
// Inserted+Merged+Skipped equals the batch size.
type Result struct {
	Inserted int `json:"inserted"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
}

func (r Result) Total() int { return r.Inserted + r.Merged + r.Skipped }

type Pipeline struct {
	store    store.Store
	resolver dedup.Resolver
	events   events.Publisher
	log      *zap.SugaredLogger

	// Batches run one at a time so the candidate scan and the insert or
	// merge decision of two batches never interleave in this process.
	mu sync.Mutex
}

type Option func(*Pipeline)

func WithResolver(r dedup.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) {
		if pub != nil {
			p.events = pub
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = logger.OrNop(l) }
}

// SetResolver replaces the thresholds used from the next batch on.
func (p *Pipeline) SetResolver(r dedup.Resolver) {
	p.mu.Lock()
	p.resolver = r
	p.mu.Unlock()
}

func NewPipeline(s store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    s,
		resolver: dedup.NewResolver(),
		events:   events.Nop,
		log:      logger.OrNop(nil),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Ingest processes postings in order inside one storage batch. On any
// error the batch is rolled back and nothing from it is visible.
// The event goes out after the lock is released, so a slow or re-entrant
// publisher never holds up the next batch.
func (p *Pipeline) Ingest(ctx context.Context, source domain.Source, postings []domain.PostingInput) (Result, error) {
	res, err := p.ingestBatch(ctx, source, postings)
	if err != nil {
		return Result{}, err
	}

	p.log.Infow("batch ingested",
		"source", source,
		"inserted", res.Inserted,
		"merged", res.Merged,
		"skipped", res.Skipped,
	)
	p.events.Publish(events.MakeEvent("", events.TypeJobsIngested, 1, events.JobsIngested{
		Source:   string(source),
		Inserted: res.Inserted,
		Merged:   res.Merged,
		Skipped:  res.Skipped,
	}))
	return res, nil
}

func (p *Pipeline) ingestBatch(ctx context.Context, source domain.Source, postings []domain.PostingInput) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.store.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = b.Rollback() }()

	var res Result
	for i, in := range postings {
		if err := ctx.Err(); err != nil {
			return Result{}, errors.Wrap(err, "ingest cancelled")
		}
		if err := p.ingestOne(ctx, b, source, in, &res); err != nil {
			return Result{}, errors.Wrapf(err, "posting %d (%s/%s)", i, source, in.SourceID)
		}
	}

	if err := b.Commit(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, b store.Batch, source domain.Source, in domain.PostingInput, res *Result) error {
	if _, seen, err := b.FindSourceLink(ctx, source, in.SourceID); err != nil {
		return err
	} else if seen {
		res.Skipped++
		p.log.Debugw("posting already ingested", "source", source, "source_id", in.SourceID)
		return nil
	}

	company := normalize.Company(in.Company)
	title := normalize.Title(in.Title)

	candidates, err := b.FindCandidates(ctx, company, title)
	if err != nil {
		return err
	}

	// Both sides are compared by their normalized keys, as stored.
	incoming := dedup.Candidate{Company: company, Title: title, Description: in.Description}
	for _, c := range candidates {
		existing := dedup.Candidate{Company: c.NormalizedCompany, Title: c.NormalizedTitle, Description: c.Description}
		dup, score := p.resolver.IsDuplicate(incoming, existing)
		if !dup {
			continue
		}
		if _, err := b.AttachSourceLink(ctx, c.ID, source, in.SourceID, in.URL); err != nil {
			return err
		}
		res.Merged++
		p.log.Debugw("posting merged", "source", source, "source_id", in.SourceID, "job_id", c.ID, "score", score)
		return nil
	}

	job, err := b.CreateJobPosting(ctx, store.NewJob{
		NormalizedCompany: company,
		NormalizedTitle:   title,
		OriginalTitle:     in.Title,
		Description:       in.Description,
		Location:          in.Location,
		DatePosted:        in.DatePosted,
	})
	if err != nil {
		return err
	}
	if _, err := b.AttachSourceLink(ctx, job.ID, source, in.SourceID, in.URL); err != nil {
		return err
	}
	res.Inserted++
	p.log.Debugw("posting inserted", "source", source, "source_id", in.SourceID, "job_id", job.ID, "candidates", len(candidates))
	return nil
}
