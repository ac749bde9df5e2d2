package search

import (
	"math"
	"strings"
	"time"

	"jobhunt-aggregator/internal/domain"
)

const (
	DefaultTitleWeight       = 1.0
	DefaultDescriptionWeight = 3.0
	DefaultRecencyWindowDays = 7
	DefaultRecencyMaxBoost   = 0.5
)

// Scorer computes a job's relevance for a parsed query.
type Scorer struct {
	TitleWeight       float64
	DescriptionWeight float64
	RecencyWindowDays int
	RecencyMaxBoost   float64

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewScorer() Scorer {
	return Scorer{
		TitleWeight:       DefaultTitleWeight,
		DescriptionWeight: DefaultDescriptionWeight,
		RecencyWindowDays: DefaultRecencyWindowDays,
		RecencyMaxBoost:   DefaultRecencyMaxBoost,
	}
}

func (s Scorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Score returns the relevance of job and true, or false when the job is
// excluded: it contains an exclusion term, or matches none of the terms.
// With no terms the score is the recency boost alone and exclusions are
// not consulted.
func (s Scorer) Score(job domain.JobPosting, terms, exclusions []string) (float64, bool) {
	boost := s.RecencyBoost(job.DatePosted)
	if len(terms) == 0 {
		return boost, true
	}

	if len(exclusions) > 0 {
		text := strings.ToLower(job.OriginalTitle + " " + job.Description)
		for _, ex := range exclusions {
			if strings.Contains(text, ex) {
				return 0, false
			}
		}
	}

	titleTF := termFrequencies(job.OriginalTitle)
	descTF := termFrequencies(job.Description)

	var titleScore, descScore float64
	for _, term := range terms {
		if tf := titleTF[term]; tf > 0 {
			titleScore += s.TitleWeight * math.Log1p(float64(tf))
		}
		if tf := descTF[term]; tf > 0 {
			descScore += s.DescriptionWeight * math.Log1p(float64(tf))
		}
	}

	total := titleScore + descScore
	if total == 0 {
		return 0, false
	}
	return total/float64(len(terms)) + boost, true
}

// RecencyBoost decays linearly from RecencyMaxBoost at day 0 to 0 at
// RecencyWindowDays. Age is counted in whole days; future dates count as 0.
func (s Scorer) RecencyBoost(posted time.Time) float64 {
	if s.RecencyWindowDays <= 0 {
		return 0
	}
	ageDays := math.Floor(s.now().Sub(posted).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	window := float64(s.RecencyWindowDays)
	if ageDays > window {
		return 0
	}
	return s.RecencyMaxBoost * (1 - ageDays/window)
}

func termFrequencies(text string) map[string]int {
	tf := map[string]int{}
	for _, tok := range Tokenize(text) {
		tf[tok]++
	}
	return tf
}
