package poll

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/secrets"
	"jobhunt-aggregator/internal/sources"
	"jobhunt-aggregator/internal/sources/email"
	"jobhunt-aggregator/internal/sources/greenhouse"
	"jobhunt-aggregator/internal/sources/lever"
	"jobhunt-aggregator/internal/sources/util"
)

// ErrRunning is returned by Run while another poll is in flight.
var ErrRunning = errors.Mark(errors.New("a poll is already running"), errors.ErrInvalidRequest)

// Poller runs Once against the current config and remembers how the last
// run went.
type Poller struct {
	ing    Ingester
	cfg    func() config.Config
	pub    events.Publisher
	log    *zap.SugaredLogger
	now    func() time.Time
	build  func(config.Config, *zap.SugaredLogger) []sources.Fetcher
	status atomic.Value // sources.Status
	busy   atomic.Bool
}

func NewPoller(ing Ingester, cfg func() config.Config, pub events.Publisher, log *zap.SugaredLogger) *Poller {
	if pub == nil {
		pub = events.Nop
	}
	p := &Poller{
		ing:   ing,
		cfg:   cfg,
		pub:   pub,
		log:   logger.OrNop(log),
		now:   time.Now,
		build: Fetchers,
	}
	p.status.Store(sources.Status{})
	return p
}

func (p *Poller) Status() sources.Status { return p.status.Load().(sources.Status) }

// Run polls once. Runs never overlap; a second caller gets ErrRunning.
func (p *Poller) Run(ctx context.Context) (Report, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return Report{}, ErrRunning
	}
	defer p.busy.Store(false)

	cfg := p.cfg()
	fetchers := p.build(cfg, p.log)

	st := p.Status()
	st.Running = true
	st.LastRunAt = p.now().UTC().Format(time.RFC3339)
	p.status.Store(st)
	p.pub.Publish(events.MakeEvent("", events.TypePollStarted, 1, map[string]int{"sources": len(fetchers)}))

	timeout := time.Duration(cfg.Polling.FetchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	rep, err := Once(ctx, p.log, p.ing, fetchers, timeout)

	st = p.Status()
	st.Running = false
	st.LastAdded = rep.Inserted
	st.LastMerged = rep.Merged
	if err != nil {
		st.LastError = err.Error()
		p.log.Warnw("poll finished with errors", "inserted", rep.Inserted, "merged", rep.Merged, "failed", rep.Failed, "error", err)
	} else {
		st.LastError = ""
		st.LastOkAt = p.now().UTC().Format(time.RFC3339)
		p.log.Infow("poll ok", "inserted", rep.Inserted, "merged", rep.Merged, "skipped", rep.Skipped)
	}
	p.status.Store(st)

	p.pub.Publish(events.MakeEvent("", events.TypePollFinished, 1, events.PollFinished{
		Inserted: rep.Inserted,
		Merged:   rep.Merged,
		Skipped:  rep.Skipped,
		Failed:   rep.Failed,
	}))
	return rep, err
}

// Fetchers builds the enabled sources of cfg. All HTTP sources share one
// per-host limiter.
func Fetchers(cfg config.Config, log *zap.SugaredLogger) []sources.Fetcher {
	limiter := util.NewHostLimiter(cfg.Sources.RequestsPerSecond, 2)

	var out []sources.Fetcher
	if cfg.Sources.Greenhouse.Enabled {
		var cos []greenhouse.Company
		for _, c := range cfg.Sources.Greenhouse.Companies {
			cos = append(cos, greenhouse.Company{Slug: c.Slug, Name: c.Name})
		}
		out = append(out, greenhouse.New(greenhouse.Config{Companies: cos}, limiter, log))
	}
	if cfg.Sources.Lever.Enabled {
		var cos []lever.Company
		for _, c := range cfg.Sources.Lever.Companies {
			cos = append(cos, lever.Company{Slug: c.Slug, Name: c.Name})
		}
		out = append(out, lever.New(lever.Config{Companies: cos}, limiter, log))
	}
	if cfg.Email.Enabled {
		out = append(out, email.New(email.Config{
			Host:       cfg.Email.IMAPHost,
			Port:       cfg.Email.IMAPPort,
			Username:   cfg.Email.Username,
			Mailbox:    cfg.Email.Mailbox,
			SubjectAny: cfg.Email.SearchSubjectAny,
			MaxPerPoll: cfg.Email.MaxPerPoll,
			Password:   func() (string, error) { return secrets.ResolveIMAPPassword(cfg) },
		}, log))
	}
	return out
}
