package poll

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/ingest"
	"jobhunt-aggregator/internal/sources"
	"jobhunt-aggregator/internal/store/sqlite"
)

type stubFetcher struct {
	name      string
	batch     sources.Batch
	err       error
	wait      bool
	finalized bool
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context) (sources.Batch, error) {
	if f.wait {
		<-ctx.Done()
		return sources.Batch{}, ctx.Err()
	}
	if f.batch.Postings != nil {
		f.batch.Finalize = func(context.Context) error { f.finalized = true; return nil }
	}
	return f.batch, f.err
}

func posting(id, company, title string) domain.PostingInput {
	return domain.PostingInput{
		SourceID:    id,
		Company:     company,
		Title:       title,
		Description: "Build distributed systems in Go for " + company,
		Location:    "Remote",
		URL:         "https://example.com/" + id,
		DatePosted:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newPipeline(t *testing.T) *ingest.Pipeline {
	t.Helper()
	db, err := sqlite.Open(context.Background(), t.TempDir()+"/jobs.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return ingest.NewPipeline(db, ingest.WithLogger(zaptest.NewLogger(t).Sugar()))
}

func TestOnceIngestsEverySource(t *testing.T) {
	gh := &stubFetcher{name: "greenhouse", batch: sources.Batch{
		Source:   domain.SourceGreenhouse,
		Postings: []domain.PostingInput{posting("stripe:1", "Stripe Inc.", "Senior Software Engineer")},
	}}
	lv := &stubFetcher{name: "lever", batch: sources.Batch{
		Source: domain.SourceLever,
		Postings: []domain.PostingInput{
			posting("stripe:a", "Stripe", "Sr. Software Engineer"),
			posting("plaid:b", "Plaid", "Data Engineer"),
		},
	}}
	broken := &stubFetcher{name: "email", err: errors.New("imap down")}

	rep, err := Once(context.Background(), zaptest.NewLogger(t).Sugar(), newPipeline(t),
		[]sources.Fetcher{lv, broken, gh}, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap down")
	assert.Equal(t, []string{"email"}, rep.Failed)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Merged, "greenhouse ingests first, lever merges into it")
	assert.True(t, gh.finalized)
	assert.True(t, lv.finalized)
}

func TestOnceAppliesFetchTimeout(t *testing.T) {
	slow := &stubFetcher{name: "lever", wait: true}
	start := time.Now()
	rep, err := Once(context.Background(), nil, newPipeline(t), []sources.Fetcher{slow}, 50*time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"lever"}, rep.Failed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type failingIngester struct{}

func (failingIngester) Ingest(context.Context, domain.Source, []domain.PostingInput) (ingest.Result, error) {
	return ingest.Result{}, errors.New("disk full")
}

func TestOnceSkipsFinalizeWhenIngestFails(t *testing.T) {
	gh := &stubFetcher{name: "greenhouse", batch: sources.Batch{
		Source:   domain.SourceGreenhouse,
		Postings: []domain.PostingInput{posting("stripe:1", "Stripe", "Engineer")},
	}}
	rep, err := Once(context.Background(), nil, failingIngester{}, []sources.Fetcher{gh}, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest greenhouse")
	assert.Equal(t, []string{"greenhouse"}, rep.Failed)
	assert.False(t, gh.finalized, "mails stay unseen when their postings were not stored")
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evt string) {
	var e events.Event
	_ = json.Unmarshal([]byte(evt), &e)
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func TestPollerRunTracksStatus(t *testing.T) {
	rec := &recorder{}
	cfg := config.Default()
	p := NewPoller(newPipeline(t), func() config.Config { return cfg }, rec, zaptest.NewLogger(t).Sugar())
	p.now = func() time.Time { return time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC) }

	lv := &stubFetcher{name: "lever", batch: sources.Batch{
		Source:   domain.SourceLever,
		Postings: []domain.PostingInput{posting("plaid:b", "Plaid", "Data Engineer")},
	}}
	p.build = func(config.Config, *zap.SugaredLogger) []sources.Fetcher { return []sources.Fetcher{lv} }

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)

	st := p.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.LastAdded)
	assert.Equal(t, "2024-04-02T12:00:00Z", st.LastRunAt)
	assert.Equal(t, "2024-04-02T12:00:00Z", st.LastOkAt)
	assert.Empty(t, st.LastError)

	require.Len(t, rec.events, 2)
	assert.Equal(t, events.TypePollStarted, rec.events[0].Type)
	assert.Equal(t, events.TypePollFinished, rec.events[1].Type)
	var fin events.PollFinished
	require.NoError(t, json.Unmarshal(rec.events[1].Data, &fin))
	assert.Equal(t, 1, fin.Inserted)
}

func TestPollerRejectsOverlappingRuns(t *testing.T) {
	cfg := config.Default()
	p := NewPoller(failingIngester{}, func() config.Config { return cfg }, nil, nil)
	p.busy.Store(true)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunning)
	assert.True(t, errors.IsInvalidRequest(err))
}

func TestFetchersFollowConfig(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, Fetchers(cfg, nil))

	cfg.Sources.Greenhouse.Enabled = true
	cfg.Sources.Lever.Enabled = true
	cfg.Email.Enabled = true
	var names []string
	for _, f := range Fetchers(cfg, nil) {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"greenhouse", "lever", "email"}, names)
}
