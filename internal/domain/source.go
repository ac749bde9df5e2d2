package domain

import (
	"strings"

	"jobhunt-aggregator/internal/errors"
)

type Source string

const (
	SourceLinkedIn   Source = "linkedin"
	SourceIndeed     Source = "indeed"
	SourceGreenhouse Source = "greenhouse"
	SourceLever      Source = "lever"
	SourceManual     Source = "manual"
)

var ErrInvalidSource = errors.Mark(errors.New("invalid source"), errors.ErrInvalidRequest)

// Sources lists every accepted source in a stable order.
func Sources() []Source {
	return []Source{SourceLinkedIn, SourceIndeed, SourceGreenhouse, SourceLever, SourceManual}
}

func ParseSource(s string) (Source, error) {
	v := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sources() {
		if v == known {
			return v, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidSource, "%q (allowed: linkedin, indeed, greenhouse, lever, manual)", s)
}
