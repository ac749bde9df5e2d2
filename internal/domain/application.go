package domain

import (
	"time"

	"jobhunt-aggregator/internal/errors"
)

type ApplicationStatus string

const (
	StatusNotApplied ApplicationStatus = "Not Applied"
	StatusApplied    ApplicationStatus = "Applied"
	StatusInterview  ApplicationStatus = "Interview"
	StatusRejected   ApplicationStatus = "Rejected"
	StatusOffer      ApplicationStatus = "Offer"
)

var ErrInvalidStatus = errors.Mark(errors.New("invalid application status"), errors.ErrInvalidRequest)

// Application tracks what the user did about one job. At most one per job.
type Application struct {
	JobID     string
	Status    ApplicationStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseApplicationStatus matches the status names exactly.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch v := ApplicationStatus(s); v {
	case StatusNotApplied, StatusApplied, StatusInterview, StatusRejected, StatusOffer:
		return v, nil
	}
	return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
}
