// Package errors re-exports github.com/cockroachdb/errors so the rest of the
// engine gets stack traces, hints and markers from one import path.
//
//	if err := batch.Commit(); err != nil {
//	    return errors.Wrap(err, "commit ingest batch")
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New       = crdb.New
	Newf      = crdb.Newf
	Wrap      = crdb.Wrap
	Wrapf     = crdb.Wrapf
	WithStack = crdb.WithStack
)

var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
	Mark   = crdb.Mark
)

// GetStack is an alias for GetReportableStackTrace.
var GetStack = crdb.GetReportableStackTrace

// Sentinels shared across packages. Wrap them to add context; match with Is.
var (
	// ErrNotFound marks a lookup that found nothing.
	ErrNotFound = New("not found")

	// ErrInvalidRequest marks input rejected before it reaches the core.
	ErrInvalidRequest = New("invalid request")
)

// InvalidRequestf builds an error marked as ErrInvalidRequest.
func InvalidRequestf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}

// IsInvalidRequest reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequest(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
