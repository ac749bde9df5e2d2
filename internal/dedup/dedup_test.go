package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const desc = "We are hiring a backend engineer to build payment APIs in Go. You will own services end to end."

func TestIsDuplicate(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name      string
		a, b      Candidate
		want      bool
		wantScore func(t *testing.T, score float64)
	}{
		{
			name: "company mismatch blocks identical text",
			a:    Candidate{Company: "Stripe", Title: "Backend Engineer", Description: desc},
			b:    Candidate{Company: "Square", Title: "Backend Engineer", Description: desc},
			want: false,
			wantScore: func(t *testing.T, score float64) {
				assert.Equal(t, 0.0, score)
			},
		},
		{
			name: "company suffixes normalize away",
			a:    Candidate{Company: "Stripe, Inc.", Title: "Backend Engineer", Description: desc},
			b:    Candidate{Company: "stripe llc", Title: "Backend Engineer", Description: desc},
			want: true,
			wantScore: func(t *testing.T, score float64) {
				assert.Equal(t, 1.0, score)
			},
		},
		{
			name: "title below threshold returns title similarity",
			a:    Candidate{Company: "Stripe", Title: "Backend Engineer", Description: desc},
			b:    Candidate{Company: "Stripe", Title: "Product Designer", Description: desc},
			want: false,
			wantScore: func(t *testing.T, score float64) {
				assert.Less(t, score, DefaultTitleThreshold)
			},
		},
		{
			name: "abbreviated title still matches",
			a:    Candidate{Company: "Stripe", Title: "Sr. Backend Eng", Description: desc},
			b:    Candidate{Company: "Stripe", Title: "Senior Backend Engineer", Description: desc + " Remote friendly."},
			want: true,
			wantScore: func(t *testing.T, score float64) {
				assert.GreaterOrEqual(t, score, DefaultDescriptionThreshold)
			},
		},
		{
			name: "different description is not a duplicate",
			a:    Candidate{Company: "Stripe", Title: "Backend Engineer", Description: desc},
			b:    Candidate{Company: "Stripe", Title: "Backend Engineer", Description: "Join the treasury team and design ledgers for cross border money movement."},
			want: false,
			wantScore: func(t *testing.T, score float64) {
				assert.Less(t, score, DefaultDescriptionThreshold)
			},
		},
		{
			name: "empty descriptions never match",
			a:    Candidate{Company: "Stripe", Title: "Backend Engineer"},
			b:    Candidate{Company: "Stripe", Title: "Backend Engineer"},
			want: false,
			wantScore: func(t *testing.T, score float64) {
				assert.Equal(t, 0.0, score)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := r.IsDuplicate(tt.a, tt.b)
			assert.Equal(t, tt.want, got)
			tt.wantScore(t, score)
		})
	}
}

func TestIsDuplicateComparesOnlyTheSample(t *testing.T) {
	r := NewResolver()
	head := strings.Repeat("a", DefaultDescriptionSample)

	a := Candidate{Company: "Acme", Title: "Engineer", Description: head + strings.Repeat("x", 500)}
	b := Candidate{Company: "Acme", Title: "Engineer", Description: head + strings.Repeat("y", 500)}

	dup, score := r.IsDuplicate(a, b)
	assert.True(t, dup)
	assert.Equal(t, 1.0, score)
}

func TestIsDuplicateCustomThresholds(t *testing.T) {
	strict := Resolver{TitleThreshold: 1, DescriptionThreshold: 1, DescriptionSample: DefaultDescriptionSample}
	a := Candidate{Company: "Acme", Title: "Backend Engineer", Description: desc}
	b := Candidate{Company: "Acme", Title: "Backend Engineers", Description: desc}

	dup, score := strict.IsDuplicate(a, b)
	assert.False(t, dup)
	assert.Less(t, score, 1.0)
}
