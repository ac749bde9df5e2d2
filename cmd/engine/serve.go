package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/httpapi"
	"jobhunt-aggregator/internal/ingest"
	"jobhunt-aggregator/internal/poll"
	"jobhunt-aggregator/internal/scheduler"
	"jobhunt-aggregator/internal/search"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, config hot reload and scheduled polling",
	Long: `serve takes an exclusive lock on the data dir, opens the configured store
and listens on app.port. POST /shutdown with the token from
<data-dir>/shutdown.token stops it from a local client.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "interface to listen on")
}

func runServe(cmd *cobra.Command, _ []string) error {
	sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, stop := context.WithCancel(sigCtx)
	defer stop()

	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()
	cfg := a.live.Get()

	lock := flock.New(filepath.Join(a.dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "lock data dir")
	}
	if !locked {
		return errors.WithHint(errors.Newf("data dir %s is in use", a.dataDir),
			"another engine is serving it; stop that one or pass --data-dir")
	}
	defer func() { _ = lock.Unlock() }()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := events.NewHub()
	pub, closePub, err := publisher(ctx, cfg, hub, a.log.Named("events"))
	if err != nil {
		return err
	}
	defer closePub()

	pipeline := ingest.NewPipeline(db,
		ingest.WithResolver(resolverFrom(cfg)),
		ingest.WithPublisher(pub),
		ingest.WithLogger(a.log.Named("ingest")),
	)
	engine := search.NewEngine(db, scorerFrom(cfg), a.log.Named("search"))
	poller := poll.NewPoller(pipeline, a.live.Get, pub, a.log.Named("poll"))

	sched := scheduler.New(ctx, a.log.Named("scheduler"))
	polling := &pollSchedule{sched: sched, poller: poller, log: a.log}
	polling.apply(cfg)
	sched.Start()

	err = a.live.Watch(ctx, a.log.Named("config"), func(c config.Config) {
		pipeline.SetResolver(resolverFrom(c))
		engine.SetScorer(scorerFrom(c))
		polling.apply(c)
	})
	if err != nil {
		a.log.Warnw("config hot reload disabled", "error", err)
	}

	token, err := shutdownToken(a.dataDir)
	if err != nil {
		return err
	}

	d := httpapi.Deps{
		Store:       db,
		Pipeline:    pipeline,
		Search:      engine,
		Hub:         hub,
		Events:      pub,
		Config:      a.live,
		Poller:      poller,
		BaseContext: ctx,
		Log:         a.log.Named("http"),
		Version:     version,
	}
	mux := httpapi.NewMux(d)
	mux.HandleFunc("/shutdown", shutdownHandler(token, stop))

	srv := &http.Server{
		Addr:              net.JoinHostPort(serveHost, strconv.Itoa(cfg.App.Port)),
		Handler:           httpapi.Handler(mux, d),
		ReadHeaderTimeout: 5 * time.Second,
		// SSE streams end with ctx instead of holding Shutdown open.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", srv.Addr)
	}
	a.log.Infow("engine listening",
		"addr", "http://"+ln.Addr().String(),
		"driver", cfg.Database.Driver,
		"config", a.live.Path(),
		"version", version,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
	}

	a.log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

const pollTask = "poll"

// pollSchedule keeps the poll task in step with polling.enabled and
// polling.schedule. An unchanged spec keeps the running timer.
type pollSchedule struct {
	sched  *scheduler.Scheduler
	poller *poll.Poller
	log    *zap.SugaredLogger

	mu   sync.Mutex
	spec string
}

func (p *pollSchedule) apply(cfg config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !cfg.Polling.Enabled {
		if p.spec != "" {
			p.sched.Unschedule(pollTask)
			p.log.Infow("polling disabled")
		}
		p.spec = ""
		return
	}
	if cfg.Polling.Schedule == p.spec {
		return
	}

	err := p.sched.Schedule(pollTask, cfg.Polling.Schedule, func(ctx context.Context) error {
		_, err := p.poller.Run(ctx)
		if errors.Is(err, poll.ErrRunning) {
			return nil
		}
		return err
	})
	if err != nil {
		p.log.Warnw("polling not scheduled", "error", err, "hints", errors.GetAllHints(err))
		return
	}
	p.spec = cfg.Polling.Schedule
}
