package sqlstore

import (
	"context"
	"database/sql"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/store"
)

func (d *DB) jobExists(ctx context.Context, q querier, jobID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, d.Dialect.rebind(`SELECT 1 FROM jobs WHERE id = ?;`), jobID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "check job")
	}
	return true, nil
}

func (d *DB) getApplication(ctx context.Context, q querier, jobID string) (domain.Application, error) {
	var (
		a      domain.Application
		status string
		notes  sql.NullString
	)
	err := q.QueryRowContext(ctx, d.Dialect.rebind(`
SELECT job_id, status, notes, created_at, updated_at
FROM applications
WHERE job_id = ?;`), jobID).Scan(&a.JobID, &status, &notes, scanTime{&a.CreatedAt}, scanTime{&a.UpdatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, errors.Wrapf(store.ErrNotFound, "application for job %s", jobID)
	}
	if err != nil {
		return domain.Application{}, errors.Wrap(err, "get application")
	}
	a.Status = domain.ApplicationStatus(status)
	a.Notes = notes.String
	return a, nil
}

// UpsertApplication creates the record or overwrites status and notes.
func (d *DB) UpsertApplication(ctx context.Context, jobID string, status domain.ApplicationStatus, notes string) (domain.Application, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	ok, err := d.jobExists(ctx, tx, jobID)
	if err != nil {
		return domain.Application{}, err
	}
	if !ok {
		return domain.Application{}, errors.Wrapf(store.ErrNotFound, "job %s", jobID)
	}

	now := d.Dialect.timeArg(d.Now())
	if _, err := tx.ExecContext(ctx, d.Dialect.rebind(`
INSERT INTO applications (job_id, status, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (job_id) DO UPDATE SET
  status = excluded.status,
  notes = excluded.notes,
  updated_at = excluded.updated_at;`), jobID, string(status), notes, now, now); err != nil {
		return domain.Application{}, errors.Wrap(err, "upsert application")
	}

	a, err := d.getApplication(ctx, tx, jobID)
	if err != nil {
		return domain.Application{}, err
	}
	return a, errors.Wrap(tx.Commit(), "commit application")
}

func (d *DB) UpdateApplication(ctx context.Context, jobID string, patch store.ApplicationPatch) (domain.Application, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	a, err := d.getApplication(ctx, tx, jobID)
	if err != nil {
		return domain.Application{}, err
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	a.UpdatedAt = d.Now().UTC()

	if _, err := tx.ExecContext(ctx, d.Dialect.rebind(`
UPDATE applications SET status = ?, notes = ?, updated_at = ?
WHERE job_id = ?;`), string(a.Status), a.Notes, d.Dialect.timeArg(a.UpdatedAt), jobID); err != nil {
		return domain.Application{}, errors.Wrap(err, "update application")
	}
	return a, errors.Wrap(tx.Commit(), "commit application")
}

func (d *DB) ListApplications(ctx context.Context) ([]domain.Application, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT job_id, status, notes, created_at, updated_at
FROM applications
ORDER BY updated_at DESC, job_id;`)
	if err != nil {
		return nil, errors.Wrap(err, "list applications")
	}
	defer rows.Close()

	out := []domain.Application{}
	for rows.Next() {
		var (
			a      domain.Application
			status string
			notes  sql.NullString
		)
		if err := rows.Scan(&a.JobID, &status, &notes, scanTime{&a.CreatedAt}, scanTime{&a.UpdatedAt}); err != nil {
			return nil, errors.Wrap(err, "scan application")
		}
		a.Status = domain.ApplicationStatus(status)
		a.Notes = notes.String
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "iterate applications")
}

func (d *DB) DeleteApplication(ctx context.Context, jobID string) error {
	res, err := d.Pool.ExecContext(ctx, d.Dialect.rebind(`DELETE FROM applications WHERE job_id = ?;`), jobID)
	if err != nil {
		return errors.Wrap(err, "delete application")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete application")
	}
	if n == 0 {
		return errors.Wrapf(store.ErrNotFound, "application for job %s", jobID)
	}
	return nil
}
