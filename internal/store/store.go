// Package store defines the persistence contract the ingest pipeline and
// the search engine are written against. Implementations live in
// store/sqlite and store/postgres, both built on store/sqlstore.
package store

import (
	"context"
	"time"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
)

// ErrNotFound is returned by application lookups that match no row.
var ErrNotFound = errors.ErrNotFound

// NewJob carries the fields of a posting that is about to be created.
type NewJob struct {
	NormalizedCompany string
	NormalizedTitle   string
	OriginalTitle     string
	Description       string
	Location          string
	DatePosted        time.Time
}

// Filter is conjunctive. Zero values disable a clause.
type Filter struct {
	// Company is a case-insensitive substring of the normalized company.
	Company string
	// Location is a case-insensitive substring of the location.
	Location string
	// PostedSince keeps postings with DatePosted >= PostedSince.
	PostedSince time.Time
	// Source keeps postings with at least one link from this source.
	Source domain.Source
}

type ApplicationPatch struct {
	Status *domain.ApplicationStatus
	Notes  *string
}

// Batch is one atomic unit of ingest work. Reads see the batch's own
// writes. Nothing is visible to other readers before Commit.
type Batch interface {
	FindSourceLink(ctx context.Context, source domain.Source, sourceJobID string) (domain.SourceLink, bool, error)
	// FindCandidates returns postings with exactly these keys, oldest first.
	FindCandidates(ctx context.Context, normalizedCompany, normalizedTitle string) ([]domain.JobPosting, error)
	CreateJobPosting(ctx context.Context, j NewJob) (domain.JobPosting, error)
	AttachSourceLink(ctx context.Context, jobID string, source domain.Source, sourceJobID, url string) (domain.SourceLink, error)
	Commit() error
	Rollback() error
}

type Store interface {
	Begin(ctx context.Context) (Batch, error)

	// FindJobs returns matching postings with their links and application
	// attached, newest first.
	FindJobs(ctx context.Context, f Filter) ([]domain.JobPosting, error)
	FindJobByID(ctx context.Context, id string) (domain.JobPosting, bool, error)

	UpsertApplication(ctx context.Context, jobID string, status domain.ApplicationStatus, notes string) (domain.Application, error)
	UpdateApplication(ctx context.Context, jobID string, patch ApplicationPatch) (domain.Application, error)
	ListApplications(ctx context.Context) ([]domain.Application, error)
	DeleteApplication(ctx context.Context, jobID string) error

	Close() error
}
