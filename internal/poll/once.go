// Package poll runs the configured sources and feeds what they find through
// the ingestion pipeline.
package poll

import (
	"context"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/ingest"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/sources"
)

// Ingester is the part of ingest.Pipeline a poll needs.
type Ingester interface {
	Ingest(ctx context.Context, source domain.Source, postings []domain.PostingInput) (ingest.Result, error)
}

// Report is the outcome of one poll.
type Report struct {
	ingest.Result
	// Failed names the fetchers whose fetch or ingest failed.
	Failed []string
}

type fetched struct {
	name  string
	batch sources.Batch
}

// Once fetches from all fetchers concurrently, each bounded by timeout,
// then ingests the batches one after another. A failing fetcher does not
// stop the others; its name lands in Report.Failed and the first error is
// returned alongside the report.
func Once(ctx context.Context, log *zap.SugaredLogger, ing Ingester, fetchers []sources.Fetcher, timeout time.Duration) (Report, error) {
	log = logger.OrNop(log)

	var g errgroup.Group
	results := make(chan fetched, len(fetchers))
	errs := make(chan error, len(fetchers))

	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			batch, err := f.Fetch(fctx)
			if err != nil {
				log.Warnw("fetch failed", "source", f.Name(), "error", err)
				errs <- errors.Wrapf(err, "fetch %s", f.Name())
				return nil
			}
			log.Infow("fetched", "source", f.Name(), "postings", len(batch.Postings), "took", time.Since(start))
			results <- fetched{name: f.Name(), batch: batch}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	close(errs)

	var rep Report
	var firstErr error
	for err := range errs {
		if firstErr == nil {
			firstErr = err
		}
	}

	// Stable ingest order keeps which source "owns" a merged job predictable.
	var batches []fetched
	for r := range results {
		batches = append(batches, r)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].name < batches[j].name })

	for _, b := range batches {
		if len(b.batch.Postings) > 0 {
			res, err := ing.Ingest(ctx, b.batch.Source, b.batch.Postings)
			if err != nil {
				log.Errorw("ingest failed", "source", b.name, "error", err)
				rep.Failed = append(rep.Failed, b.name)
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "ingest %s", b.name)
				}
				continue
			}
			rep.Inserted += res.Inserted
			rep.Merged += res.Merged
			rep.Skipped += res.Skipped
		}
		if b.batch.Finalize != nil {
			if err := b.batch.Finalize(ctx); err != nil {
				log.Warnw("finalize failed", "source", b.name, "error", err)
			}
		}
	}

	for _, f := range fetchers {
		fetchedOK := slices.ContainsFunc(batches, func(b fetched) bool { return b.name == f.Name() })
		if !fetchedOK && !slices.Contains(rep.Failed, f.Name()) {
			rep.Failed = append(rep.Failed, f.Name())
		}
	}
	sort.Strings(rep.Failed)
	return rep, firstErr
}
