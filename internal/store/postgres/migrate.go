package postgres

import (
	"context"
	"database/sql"

	"jobhunt-aggregator/internal/errors"
)

const schemaVersion = 1

// Arbitrary key for pg_advisory_xact_lock so concurrent engines migrate one at a time.
const migrationLockKey = 7262001

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  normalized_company TEXT NOT NULL,
  normalized_title TEXT NOT NULL,
  original_title TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  date_posted TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS job_sources (
  id BIGSERIAL PRIMARY KEY,
  job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  source TEXT NOT NULL,
  source_job_id TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS applications (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'Not Applied',
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_job_sources_source_job ON job_sources(source, source_job_id);`,
	`CREATE INDEX IF NOT EXISTS idx_job_sources_job ON job_sources(job_id);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_normalized ON jobs(normalized_company, normalized_title);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_date_posted ON jobs(date_posted);`,
	`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);`,
}

// Migrate applies the schema. The version lives in schema_version since
// Postgres has no user_version pragma.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1);`, migrationLockKey); err != nil {
		return errors.Wrap(err, "lock migration")
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);`); err != nil {
		return errors.Wrap(err, "create schema_version")
	}

	var v int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version;`).Scan(&v)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaV1 {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema v1")
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1);`, schemaVersion); err != nil {
		return errors.Wrap(err, "mark schema v1")
	}
	return errors.Wrap(tx.Commit(), "commit migration")
}

// Version reports the applied schema version, 0 before the first migration.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version;`).Scan(&v)
	return v, errors.Wrap(err, "read schema version")
}
