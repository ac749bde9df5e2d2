package sqlstore

import (
	"context"
	"database/sql"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/store"
)

type batch struct {
	db *DB
	tx *sql.Tx
}

func (d *DB) Begin(ctx context.Context) (store.Batch, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin batch")
	}
	return &batch{db: d, tx: tx}, nil
}

func (b *batch) q(query string) string { return b.db.Dialect.rebind(query) }

func (b *batch) FindSourceLink(ctx context.Context, source domain.Source, sourceJobID string) (domain.SourceLink, bool, error) {
	row := b.tx.QueryRowContext(ctx, b.q(`
SELECT id, job_id, source, source_job_id, url, created_at
FROM job_sources
WHERE source = ? AND source_job_id = ?;`), string(source), sourceJobID)

	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SourceLink{}, false, nil
	}
	if err != nil {
		return domain.SourceLink{}, false, errors.Wrapf(err, "find source link %s/%s", source, sourceJobID)
	}
	return l, true, nil
}

func (b *batch) FindCandidates(ctx context.Context, normalizedCompany, normalizedTitle string) ([]domain.JobPosting, error) {
	rows, err := b.tx.QueryContext(ctx, b.q(`
SELECT `+jobColumns+`
FROM jobs j
WHERE j.normalized_company = ? AND j.normalized_title = ?
ORDER BY j.created_at, j.id;`), normalizedCompany, normalizedTitle)
	if err != nil {
		return nil, errors.Wrap(err, "query candidates")
	}
	defer rows.Close()

	var out []domain.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan candidate")
		}
		out = append(out, j)
	}
	return out, errors.Wrap(rows.Err(), "iterate candidates")
}

func (b *batch) CreateJobPosting(ctx context.Context, nj store.NewJob) (domain.JobPosting, error) {
	j := domain.JobPosting{
		ID:                b.db.NewID(),
		NormalizedCompany: nj.NormalizedCompany,
		NormalizedTitle:   nj.NormalizedTitle,
		OriginalTitle:     nj.OriginalTitle,
		Description:       nj.Description,
		Location:          nj.Location,
		DatePosted:        nj.DatePosted.UTC(),
		CreatedAt:         b.db.Now().UTC(),
	}
	d := b.db.Dialect
	_, err := b.tx.ExecContext(ctx, b.q(`
INSERT INTO jobs (id, normalized_company, normalized_title, original_title, description, location, date_posted, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`),
		j.ID, j.NormalizedCompany, j.NormalizedTitle, j.OriginalTitle, j.Description, j.Location,
		d.timeArg(j.DatePosted), d.timeArg(j.CreatedAt),
	)
	if err != nil {
		return domain.JobPosting{}, errors.Wrap(err, "insert job")
	}
	return j, nil
}

func (b *batch) AttachSourceLink(ctx context.Context, jobID string, source domain.Source, sourceJobID, url string) (domain.SourceLink, error) {
	l := domain.SourceLink{
		JobID:       jobID,
		Source:      source,
		SourceJobID: sourceJobID,
		URL:         url,
		CreatedAt:   b.db.Now().UTC(),
	}
	err := b.tx.QueryRowContext(ctx, b.q(`
INSERT INTO job_sources (job_id, source, source_job_id, url, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id;`),
		jobID, string(source), sourceJobID, url, b.db.Dialect.timeArg(l.CreatedAt),
	).Scan(&l.ID)
	if err != nil {
		return domain.SourceLink{}, errors.Wrapf(err, "insert source link %s/%s", source, sourceJobID)
	}
	return l, nil
}

func (b *batch) Commit() error {
	return errors.Wrap(b.tx.Commit(), "commit batch")
}

// Rollback is a no-op after Commit.
func (b *batch) Rollback() error {
	err := b.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return errors.Wrap(err, "rollback batch")
}
