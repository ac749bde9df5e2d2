package sqlite

import (
	"context"
	"database/sql"

	"jobhunt-aggregator/internal/errors"
)

const schemaVersion = 1

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  normalized_company TEXT NOT NULL,
  normalized_title TEXT NOT NULL,
  original_title TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  date_posted TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS job_sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  source TEXT NOT NULL,
  source_job_id TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS applications (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'Not Applied',
  notes TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
	`
CREATE UNIQUE INDEX IF NOT EXISTS idx_job_sources_source_job
ON job_sources(source, source_job_id);`,
	`
CREATE INDEX IF NOT EXISTS idx_job_sources_job
ON job_sources(job_id);`,
	`
CREATE INDEX IF NOT EXISTS idx_jobs_normalized
ON jobs(normalized_company, normalized_title);`,
	`
CREATE INDEX IF NOT EXISTS idx_jobs_date_posted
ON jobs(date_posted);`,
	`
CREATE INDEX IF NOT EXISTS idx_applications_status
ON applications(status);`,
}

// Migrate brings the schema to the current version. Versions are tracked
// with PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
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

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return errors.Wrap(err, "mark schema v1")
	}

	return errors.Wrap(tx.Commit(), "commit migration")
}

// Version reports the schema version stored in the database.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
	return v, errors.Wrap(err, "read schema version")
}
