package domain

import "time"

// PostingInput is one raw posting as delivered by a source.
type PostingInput struct {
	SourceID    string
	Company     string
	Title       string
	Description string
	Location    string
	URL         string
	DatePosted  time.Time
}

// JobPosting is the canonical, deduplicated record. NormalizedCompany and
// NormalizedTitle are fixed at creation.
type JobPosting struct {
	ID                string
	NormalizedCompany string
	NormalizedTitle   string
	OriginalTitle     string
	Description       string
	Location          string
	DatePosted        time.Time
	CreatedAt         time.Time

	Sources     []SourceLink
	Application *Application
}

type SourceLink struct {
	ID          int64
	JobID       string
	Source      Source
	SourceJobID string
	URL         string
	CreatedAt   time.Time
}
