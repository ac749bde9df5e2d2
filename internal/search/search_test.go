package search

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/store"
	"jobhunt-aggregator/internal/store/sqlite"
)

type fakeReader struct {
	jobs   []domain.JobPosting
	filter store.Filter
	err    error
}

func (f *fakeReader) FindJobs(_ context.Context, flt store.Filter) ([]domain.JobPosting, error) {
	f.filter = flt
	return f.jobs, f.err
}

func (f *fakeReader) FindJobByID(_ context.Context, id string) (domain.JobPosting, bool, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, true, nil
		}
	}
	return domain.JobPosting{}, false, f.err
}

func newEngine(t *testing.T, r Reader) *Engine {
	return NewEngine(r, fixedScorer(), zaptest.NewLogger(t).Sugar())
}

func ids(hits []Hit) []string {
	out := []string{}
	for _, h := range hits {
		out = append(out, h.Job.ID)
	}
	return out
}

func TestSearchPaginationPartitionsResults(t *testing.T) {
	r := &fakeReader{}
	for i := 0; i < 25; i++ {
		r.jobs = append(r.jobs, domain.JobPosting{
			ID:            fmt.Sprintf("job-%02d", i),
			OriginalTitle: "Go Engineer",
			DatePosted:    daysAgo(float64(i)),
		})
	}
	e := newEngine(t, r)
	ctx := context.Background()

	p1, err := e.Search(ctx, Params{Query: "go", Sort: SortRelevance, Page: 1, PageSize: 20})
	require.NoError(t, err)
	p2, err := e.Search(ctx, Params{Query: "go", Sort: SortRelevance, Page: 2, PageSize: 20})
	require.NoError(t, err)
	p3, err := e.Search(ctx, Params{Query: "go", Sort: SortRelevance, Page: 3, PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, 25, p1.Total)
	assert.Equal(t, 25, p2.Total)
	assert.Len(t, p1.Results, 20)
	assert.Len(t, p2.Results, 5)
	assert.Empty(t, p3.Results)
	assert.Equal(t, 25, p3.Total)

	seen := map[string]bool{}
	for _, id := range append(ids(p1.Results), ids(p2.Results)...) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 25)
}

func TestSearchOutOfRangePages(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{{ID: "a", DatePosted: now}}}
	e := newEngine(t, r)

	for _, page := range []int{0, -1, 2, 1 << 40} {
		got, err := e.Search(context.Background(), Params{Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, got.Results, "page %d", page)
		assert.NotNil(t, got.Results)
		assert.Equal(t, 1, got.Total)
	}
}

func TestSearchDefaultPageSize(t *testing.T) {
	r := &fakeReader{}
	for i := 0; i < 30; i++ {
		r.jobs = append(r.jobs, domain.JobPosting{ID: fmt.Sprint(i), DatePosted: now})
	}
	got, err := newEngine(t, r).Search(context.Background(), Params{Page: 1})
	require.NoError(t, err)
	assert.Len(t, got.Results, DefaultPageSize)
}

func TestSearchEmptyQueryOrdersByDate(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{
		{ID: "old", OriginalTitle: "A", DatePosted: daysAgo(20)},
		{ID: "new", OriginalTitle: "B", DatePosted: daysAgo(1)},
		{ID: "mid", OriginalTitle: "C", DatePosted: daysAgo(10)},
	}}

	got, err := newEngine(t, r).Search(context.Background(), Params{Sort: SortRelevance, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids(got.Results))
	assert.Equal(t, 3, got.Total)
}

func TestSearchExclusionOnlyQueryBrowses(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{
		{ID: "a", OriginalTitle: "Senior Engineer", DatePosted: daysAgo(1)},
		{ID: "b", OriginalTitle: "Engineer", DatePosted: daysAgo(2)},
	}}

	got, err := newEngine(t, r).Search(context.Background(), Params{Query: "-senior", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got.Results))
}

func TestSearchRelevanceOrderAndExclusion(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{
		{ID: "plain", OriginalTitle: "Engineer", Description: "engineer", DatePosted: daysAgo(30)},
		{ID: "senior", OriginalTitle: "Senior Engineer", Description: "engineer engineer engineer engineer", DatePosted: now},
		{ID: "strong", OriginalTitle: "Engineer", Description: "engineer engineer engineer", DatePosted: daysAgo(30)},
		{ID: "none", OriginalTitle: "Designer", Description: "figma", DatePosted: now},
	}}
	e := newEngine(t, r)

	got, err := e.Search(context.Background(), Params{Query: "engineer -senior", Sort: SortRelevance, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"strong", "plain"}, ids(got.Results))
	assert.Equal(t, 2, got.Total, "total counts survivors, not fetched rows")
	assert.Greater(t, got.Results[0].Score, got.Results[1].Score)

	got, err = e.Search(context.Background(), Params{Query: "engineer -senior", Sort: SortDate, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "strong"}, ids(got.Results), "equal dates keep fetch order")
}

func TestSearchBuildsFilter(t *testing.T) {
	r := &fakeReader{}
	e := newEngine(t, r)

	_, err := e.Search(context.Background(), Params{Company: " stripe ", Location: "Remote", Days: 3, Source: domain.SourceLever, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "stripe", r.filter.Company)
	assert.Equal(t, "Remote", r.filter.Location)
	assert.Equal(t, domain.SourceLever, r.filter.Source)
	assert.Equal(t, now.Add(-72*time.Hour), r.filter.PostedSince)

	_, err = e.Search(context.Background(), Params{Page: 1})
	require.NoError(t, err)
	assert.True(t, r.filter.PostedSince.IsZero())
}

func TestSearchPropagatesStorageErrors(t *testing.T) {
	r := &fakeReader{err: errors.New("connection reset")}
	_, err := newEngine(t, r).Search(context.Background(), Params{Page: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestEngineJob(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{{ID: "a"}}}
	e := newEngine(t, r)

	j, ok, err := e.Job(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", j.ID)

	_, ok, err = e.Job(context.Background(), "zzz")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Filters run against a real store to check they are all applied together.
func TestSearchFiltersAgainstStore(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer db.Close()

	type row struct {
		company, title, location string
		age                      float64
		source                   domain.Source
	}
	rows := []row{
		{"stripe", "Backend Engineer", "San Francisco", 1, domain.SourceLever},
		{"stripe", "Frontend Engineer", "Remote", 2, domain.SourceGreenhouse},
		{"square", "Backend Engineer", "Remote", 3, domain.SourceLever},
		{"stripe", "Data Engineer", "Remote", 20, domain.SourceLever},
	}
	b, err := db.Begin(ctx)
	require.NoError(t, err)
	byTitle := map[string]string{}
	for i, r := range rows {
		j, err := b.CreateJobPosting(ctx, store.NewJob{
			NormalizedCompany: r.company,
			NormalizedTitle:   r.title,
			OriginalTitle:     r.title,
			Description:       "Engineering role",
			Location:          r.location,
			DatePosted:        daysAgo(r.age),
		})
		require.NoError(t, err)
		_, err = b.AttachSourceLink(ctx, j.ID, r.source, fmt.Sprint(i), "")
		require.NoError(t, err)
		byTitle[j.ID] = r.company + "/" + r.title
	}
	require.NoError(t, b.Commit())

	e := newEngine(t, db)
	titles := func(p Page) []string {
		var out []string
		for _, h := range p.Results {
			out = append(out, byTitle[h.Job.ID])
		}
		return out
	}

	tests := []struct {
		name   string
		params Params
		want   []string
	}{
		{name: "company", params: Params{Company: "STRIPE"}, want: []string{"stripe/Backend Engineer", "stripe/Frontend Engineer", "stripe/Data Engineer"}},
		{name: "location", params: Params{Location: "remote"}, want: []string{"stripe/Frontend Engineer", "square/Backend Engineer", "stripe/Data Engineer"}},
		{name: "days", params: Params{Days: 7}, want: []string{"stripe/Backend Engineer", "stripe/Frontend Engineer", "square/Backend Engineer"}},
		{name: "source", params: Params{Source: domain.SourceGreenhouse}, want: []string{"stripe/Frontend Engineer"}},
		{name: "all together", params: Params{Company: "stripe", Location: "remote", Days: 7, Source: domain.SourceGreenhouse}, want: []string{"stripe/Frontend Engineer"}},
		{name: "filters with a query", params: Params{Query: "backend", Company: "stripe", Sort: SortRelevance}, want: []string{"stripe/Backend Engineer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Page = 1
			got, err := e.Search(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
			assert.Equal(t, len(tt.want), got.Total)
		})
	}
}

func TestSetScorerChangesWeights(t *testing.T) {
	r := &fakeReader{jobs: []domain.JobPosting{
		{ID: "title", OriginalTitle: "Rust Engineer", Description: "systems", DatePosted: daysAgo(30)},
		{ID: "desc", OriginalTitle: "Engineer", Description: "rust rust services", DatePosted: daysAgo(30)},
	}}
	e := newEngine(t, r)
	params := Params{Query: "rust", Page: 1, PageSize: 10}

	got, err := e.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{"desc", "title"}, ids(got.Results))

	s := NewScorer()
	s.TitleWeight = 10
	e.SetScorer(s)

	got, err = e.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "desc"}, ids(got.Results))
}
