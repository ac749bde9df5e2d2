// Package sources defines the pollable job feeds. Each subpackage knows one
// upstream (an ATS API or a mailbox) and turns it into raw postings for the
// ingestion pipeline.
package sources

import (
	"context"

	"jobhunt-aggregator/internal/domain"
)

// Batch is everything one fetcher found in one run.
type Batch struct {
	Source   domain.Source
	Postings []domain.PostingInput
	// Finalize, when set, runs after the batch was ingested successfully
	// (e.g. to mark alert mails as seen).
	Finalize func(context.Context) error
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (Batch, error)
}

// Status is the last poll outcome as served by GET /poll/status.
type Status struct {
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastAdded  int    `json:"last_added"`
	LastMerged int    `json:"last_merged"`
	Running    bool   `json:"running"`
}
