// Package dedup decides whether two postings describe the same job.
package dedup

import (
	"strings"

	"jobhunt-aggregator/internal/normalize"
	"jobhunt-aggregator/internal/similarity"
)

const (
	DefaultTitleThreshold       = 0.75
	DefaultDescriptionThreshold = 0.70
	DefaultDescriptionSample    = 1000
)

// Candidate is the raw company/title/description triple being compared.
type Candidate struct {
	Company     string
	Title       string
	Description string
}

type Resolver struct {
	TitleThreshold       float64
	DescriptionThreshold float64
	// DescriptionSample is how many leading runes of each description are compared.
	DescriptionSample int
}

func NewResolver() Resolver {
	return Resolver{
		TitleThreshold:       DefaultTitleThreshold,
		DescriptionThreshold: DefaultDescriptionThreshold,
		DescriptionSample:    DefaultDescriptionSample,
	}
}

// IsDuplicate short-circuits on company, then title, then description.
// The score is the similarity of the last stage reached, 0 on a company
// mismatch.
func (r Resolver) IsDuplicate(a, b Candidate) (bool, float64) {
	if normalize.Company(a.Company) != normalize.Company(b.Company) {
		return false, 0
	}

	titleSim := similarity.Ratio(normalize.Title(a.Title), normalize.Title(b.Title))
	if titleSim < r.TitleThreshold {
		return false, titleSim
	}

	descSim := similarity.Ratio(r.sample(a.Description), r.sample(b.Description))
	return descSim >= r.DescriptionThreshold, descSim
}

func (r Resolver) sample(desc string) string {
	desc = strings.ToLower(desc)
	if r.DescriptionSample <= 0 {
		return desc
	}
	runes := []rune(desc)
	if len(runes) > r.DescriptionSample {
		runes = runes[:r.DescriptionSample]
	}
	return string(runes)
}
