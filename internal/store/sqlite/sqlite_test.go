package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/store"
	"jobhunt-aggregator/internal/store/sqlstore"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tick := 0
	db.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return db
}

type seed struct {
	company, title, location string
	posted                   time.Time
	source                   domain.Source
	sourceID                 string
}

func seedJobs(t *testing.T, db *sqlstore.DB, seeds ...seed) []domain.JobPosting {
	t.Helper()
	ctx := context.Background()
	b, err := db.Begin(ctx)
	require.NoError(t, err)

	var out []domain.JobPosting
	for _, s := range seeds {
		j, err := b.CreateJobPosting(ctx, store.NewJob{
			NormalizedCompany: s.company,
			NormalizedTitle:   s.title,
			OriginalTitle:     s.title,
			Description:       "about " + s.title,
			Location:          s.location,
			DatePosted:        s.posted,
		})
		require.NoError(t, err)
		_, err = b.AttachSourceLink(ctx, j.ID, s.source, s.sourceID, "https://example.com/"+s.sourceID)
		require.NoError(t, err)
		out = append(out, j)
	}
	require.NoError(t, b.Commit())
	return out
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jobs.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db.Pool))
	v, err := Version(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	v, err = Version(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestBatchSeesOwnWritesAndCommits(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	b, err := db.Begin(ctx)
	require.NoError(t, err)

	j, err := b.CreateJobPosting(ctx, store.NewJob{
		NormalizedCompany: "stripe",
		NormalizedTitle:   "backend engineer",
		OriginalTitle:     "Backend Engineer",
		Description:       "Payments",
		Location:          "Remote",
		DatePosted:        base,
	})
	require.NoError(t, err)
	assert.Len(t, j.ID, 36)

	l, err := b.AttachSourceLink(ctx, j.ID, domain.SourceLever, "lv-1", "https://jobs.lever.co/stripe/lv-1")
	require.NoError(t, err)
	assert.NotZero(t, l.ID)

	found, ok, err := b.FindSourceLink(ctx, domain.SourceLever, "lv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, j.ID, found.JobID)

	_, ok, err = b.FindSourceLink(ctx, domain.SourceGreenhouse, "lv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	cands, err := b.FindCandidates(ctx, "stripe", "backend engineer")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Payments", cands[0].Description)

	require.NoError(t, b.Commit())
	require.NoError(t, b.Rollback(), "rollback after commit is a no-op")

	got, ok, err := db.FindJobByID(ctx, j.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", got.OriginalTitle)
	assert.True(t, got.DatePosted.Equal(base))
	require.Len(t, got.Sources, 1)
	assert.Equal(t, domain.SourceLever, got.Sources[0].Source)
	assert.Nil(t, got.Application)
}

func TestBatchRollbackDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	b, err := db.Begin(ctx)
	require.NoError(t, err)
	j, err := b.CreateJobPosting(ctx, store.NewJob{NormalizedCompany: "acme", NormalizedTitle: "engineer", DatePosted: base})
	require.NoError(t, err)
	_, err = b.AttachSourceLink(ctx, j.ID, domain.SourceManual, "m-1", "")
	require.NoError(t, err)
	require.NoError(t, b.Rollback())

	_, ok, err := db.FindJobByID(ctx, j.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	jobs, err := db.FindJobs(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSourceLinkIsUnique(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := seedJobs(t, db, seed{company: "acme", title: "engineer", posted: base, source: domain.SourceLever, sourceID: "x"})

	b, err := db.Begin(ctx)
	require.NoError(t, err)
	defer b.Rollback()

	_, err = b.AttachSourceLink(ctx, jobs[0].ID, domain.SourceLever, "x", "")
	assert.Error(t, err)
}

func TestFindCandidatesOldestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seeded := seedJobs(t, db,
		seed{company: "acme", title: "engineer", posted: base, source: domain.SourceLever, sourceID: "1"},
		seed{company: "acme", title: "engineer", posted: base.Add(48 * time.Hour), source: domain.SourceLever, sourceID: "2"},
		seed{company: "acme", title: "designer", posted: base, source: domain.SourceLever, sourceID: "3"},
	)

	b, err := db.Begin(ctx)
	require.NoError(t, err)
	defer b.Rollback()

	cands, err := b.FindCandidates(ctx, "acme", "engineer")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, seeded[0].ID, cands[0].ID)
	assert.Equal(t, seeded[1].ID, cands[1].ID)
}

func TestFindJobsFilters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := seedJobs(t, db,
		seed{company: "stripe", title: "backend engineer", location: "San Francisco, CA", posted: base, source: domain.SourceLever, sourceID: "a"},
		seed{company: "stripe", title: "frontend engineer", location: "Remote", posted: base.Add(-10 * 24 * time.Hour), source: domain.SourceGreenhouse, sourceID: "b"},
		seed{company: "square", title: "backend engineer", location: "remote - US", posted: base.Add(-2 * 24 * time.Hour), source: domain.SourceLever, sourceID: "c"},
		seed{company: "100% pure", title: "data_engineer", location: "NYC", posted: base, source: domain.SourceManual, sourceID: "d"},
	)

	ids := func(js []domain.JobPosting) []string {
		var out []string
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.Filter
		want   []string
	}{
		{name: "no filter newest first", filter: store.Filter{}, want: []string{jobs[3].ID, jobs[0].ID, jobs[2].ID, jobs[1].ID}},
		{name: "company substring", filter: store.Filter{Company: "STRI"}, want: []string{jobs[0].ID, jobs[1].ID}},
		{name: "location case insensitive", filter: store.Filter{Location: "REMOTE"}, want: []string{jobs[2].ID, jobs[1].ID}},
		{name: "posted since", filter: store.Filter{PostedSince: base.Add(-3 * 24 * time.Hour)}, want: []string{jobs[3].ID, jobs[0].ID, jobs[2].ID}},
		{name: "source", filter: store.Filter{Source: domain.SourceGreenhouse}, want: []string{jobs[1].ID}},
		{name: "conjunctive", filter: store.Filter{Company: "stripe", Location: "remote"}, want: []string{jobs[1].ID}},
		{name: "like wildcards are literal", filter: store.Filter{Company: "%"}, want: []string{jobs[3].ID}},
		{name: "underscore is literal", filter: store.Filter{Location: "_"}, want: nil},
		{name: "nothing matches", filter: store.Filter{Source: domain.SourceIndeed}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FindJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			for _, j := range got {
				assert.Len(t, j.Sources, 1, "links attached to %s", j.ID)
			}
		})
	}
}

func TestFindJobsLocationFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := seedJobs(t, db,
		seed{company: "acme", title: "engineer", location: "Évry, France", posted: base, source: domain.SourceLever, sourceID: "1"},
		seed{company: "acme", title: "designer", location: "ZÜRICH", posted: base, source: domain.SourceLever, sourceID: "2"},
	)

	tests := []struct {
		location string
		want     []string
	}{
		{location: "Évry", want: []string{jobs[0].ID}},
		{location: "évry", want: []string{jobs[0].ID}},
		{location: "ÉVRY, FRANCE", want: []string{jobs[0].ID}},
		{location: "france", want: []string{jobs[0].ID}},
		{location: "zürich", want: []string{jobs[1].ID}},
		{location: "Evry", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, err := db.FindJobs(ctx, store.Filter{Location: tt.location})
			require.NoError(t, err)
			var ids []string
			for _, j := range got {
				ids = append(ids, j.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindJobsAttachesAllLinksWhenFilteredBySource(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := seedJobs(t, db, seed{company: "acme", title: "engineer", posted: base, source: domain.SourceLever, sourceID: "1"})

	b, err := db.Begin(ctx)
	require.NoError(t, err)
	_, err = b.AttachSourceLink(ctx, jobs[0].ID, domain.SourceLinkedIn, "li-1", "https://linkedin.com/jobs/view/1")
	require.NoError(t, err)
	require.NoError(t, b.Commit())

	got, err := db.FindJobs(ctx, store.Filter{Source: domain.SourceLinkedIn})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Sources, 2)
	assert.Equal(t, domain.SourceLever, got[0].Sources[0].Source)
	assert.Equal(t, domain.SourceLinkedIn, got[0].Sources[1].Source)
}

func TestApplications(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := seedJobs(t, db,
		seed{company: "acme", title: "engineer", posted: base, source: domain.SourceLever, sourceID: "1"},
		seed{company: "acme", title: "designer", posted: base, source: domain.SourceLever, sourceID: "2"},
	)

	_, err := db.UpsertApplication(ctx, "missing", domain.StatusApplied, "")
	assert.True(t, errors.IsNotFound(err))

	a, err := db.UpsertApplication(ctx, jobs[0].ID, domain.StatusApplied, "sent resume")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, a.Status)
	assert.Equal(t, "sent resume", a.Notes)
	created := a.CreatedAt

	a, err = db.UpsertApplication(ctx, jobs[0].ID, domain.StatusInterview, "phone screen")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterview, a.Status)
	assert.True(t, a.CreatedAt.Equal(created), "created_at kept on update")
	assert.True(t, a.UpdatedAt.After(created))

	offer := domain.StatusOffer
	a, err = db.UpdateApplication(ctx, jobs[0].ID, store.ApplicationPatch{Status: &offer})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOffer, a.Status)
	assert.Equal(t, "phone screen", a.Notes, "notes untouched by partial update")

	_, err = db.UpdateApplication(ctx, jobs[1].ID, store.ApplicationPatch{Status: &offer})
	assert.True(t, errors.IsNotFound(err))

	got, ok, err := db.FindJobByID(ctx, jobs[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Application)
	assert.Equal(t, domain.StatusOffer, got.Application.Status)

	list, err := db.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, jobs[0].ID, list[0].JobID)

	require.NoError(t, db.DeleteApplication(ctx, jobs[0].ID))
	assert.True(t, errors.IsNotFound(db.DeleteApplication(ctx, jobs[0].ID)))

	list, err = db.ListApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentReadsAfterCommit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	for i := 0; i < 3; i++ {
		seedJobs(t, db, seed{company: "acme", title: fmt.Sprintf("role %d", i), posted: base, source: domain.SourceManual, sourceID: fmt.Sprint(i)})
	}

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			jobs, err := db.FindJobs(ctx, store.Filter{Company: "acme"})
			if err == nil && len(jobs) != 3 {
				err = fmt.Errorf("got %d jobs", len(jobs))
			}
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}
}
