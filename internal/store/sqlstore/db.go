// Package sqlstore implements store.Store over database/sql. The sqlite and
// postgres packages open the connection, migrate the schema and hand the
// pool to New with their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/store"
)

type DB struct {
	Pool    *sql.DB
	Dialect Dialect

	Now   func() time.Time
	NewID func() string

	// AfterClose runs once Pool is closed, for drivers that own a pool of their own.
	AfterClose func()
}

var _ store.Store = (*DB)(nil)

func New(pool *sql.DB, d Dialect) *DB {
	return &DB{
		Pool:    pool,
		Dialect: d,
		Now:     time.Now,
		NewID:   func() string { return uuid.NewString() },
	}
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	err := d.Pool.Close()
	if d.AfterClose != nil {
		d.AfterClose()
	}
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const jobColumns = `j.id, j.normalized_company, j.normalized_title, j.original_title,
  j.description, j.location, j.date_posted, j.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner, extra ...any) (domain.JobPosting, error) {
	var j domain.JobPosting
	dest := []any{
		&j.ID,
		&j.NormalizedCompany,
		&j.NormalizedTitle,
		&j.OriginalTitle,
		&j.Description,
		&j.Location,
		scanTime{&j.DatePosted},
		scanTime{&j.CreatedAt},
	}
	err := r.Scan(append(dest, extra...)...)
	return j, err
}

// where builds the WHERE clause for f against the jobs table aliased j.
func (d *DB) where(f store.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if strings.TrimSpace(f.Company) != "" {
		conds = append(conds, `j.normalized_company `+d.Dialect.LikeOp+` ? ESCAPE '\'`)
		args = append(args, likePattern(f.Company))
	}
	if strings.TrimSpace(f.Location) != "" && !d.Dialect.ASCIIFold {
		conds = append(conds, `LOWER(j.location) `+d.Dialect.LikeOp+` ? ESCAPE '\'`)
		args = append(args, likePattern(f.Location))
	}
	if !f.PostedSince.IsZero() {
		conds = append(conds, `j.date_posted >= ?`)
		args = append(args, d.Dialect.timeArg(f.PostedSince))
	}
	if f.Source != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM job_sources x WHERE x.job_id = j.id AND x.source = ?)`)
		args = append(args, string(f.Source))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (d *DB) FindJobs(ctx context.Context, f store.Filter) ([]domain.JobPosting, error) {
	where, args := d.where(f)
	jobs, err := d.findJobs(ctx, where, args)
	if err != nil || !d.Dialect.ASCIIFold {
		return jobs, err
	}
	return filterLocation(jobs, f.Location), nil
}

// filterLocation keeps jobs whose location contains needle, ignoring case
// across all of Unicode.
func filterLocation(jobs []domain.JobPosting, needle string) []domain.JobPosting {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return jobs
	}
	out := jobs[:0]
	for _, j := range jobs {
		if strings.Contains(strings.ToLower(j.Location), needle) {
			out = append(out, j)
		}
	}
	return out
}

func (d *DB) FindJobByID(ctx context.Context, id string) (domain.JobPosting, bool, error) {
	jobs, err := d.findJobs(ctx, "WHERE j.id = ?", []any{id})
	if err != nil {
		return domain.JobPosting{}, false, err
	}
	if len(jobs) == 0 {
		return domain.JobPosting{}, false, nil
	}
	return jobs[0], true, nil
}

func (d *DB) findJobs(ctx context.Context, where string, args []any) ([]domain.JobPosting, error) {
	q := `
SELECT ` + jobColumns + `,
  a.status, a.notes, a.created_at, a.updated_at
FROM jobs j
LEFT JOIN applications a ON a.job_id = j.id
` + where + `
ORDER BY j.date_posted DESC, j.created_at DESC, j.id;`

	rows, err := d.Pool.QueryContext(ctx, d.Dialect.rebind(q), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query jobs")
	}
	defer rows.Close()

	var (
		out   []domain.JobPosting
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			status, notes sql.NullString
			app           domain.Application
		)
		j, err := scanJob(rows, &status, &notes, scanTime{&app.CreatedAt}, scanTime{&app.UpdatedAt})
		if err != nil {
			return nil, errors.Wrap(err, "scan job")
		}
		if status.Valid {
			app.JobID = j.ID
			app.Status = domain.ApplicationStatus(status.String)
			app.Notes = notes.String
			j.Application = &app
		}
		index[j.ID] = len(out)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate jobs")
	}
	if len(out) == 0 {
		return out, nil
	}

	links, err := d.findLinks(ctx, where, args)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if i, ok := index[l.JobID]; ok {
			out[i].Sources = append(out[i].Sources, l)
		}
	}
	return out, nil
}

func (d *DB) findLinks(ctx context.Context, where string, args []any) ([]domain.SourceLink, error) {
	q := `
SELECT s.id, s.job_id, s.source, s.source_job_id, s.url, s.created_at
FROM job_sources s
JOIN jobs j ON j.id = s.job_id
` + where + `
ORDER BY s.id;`

	rows, err := d.Pool.QueryContext(ctx, d.Dialect.rebind(q), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query job sources")
	}
	defer rows.Close()

	var out []domain.SourceLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan job source")
		}
		out = append(out, l)
	}
	return out, errors.Wrap(rows.Err(), "iterate job sources")
}

func scanLink(r rowScanner) (domain.SourceLink, error) {
	var (
		l   domain.SourceLink
		src string
	)
	err := r.Scan(&l.ID, &l.JobID, &src, &l.SourceJobID, &l.URL, scanTime{&l.CreatedAt})
	l.Source = domain.Source(src)
	return l, err
}
