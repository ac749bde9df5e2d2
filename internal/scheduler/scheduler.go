// Package scheduler runs named tasks on cron specs.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
)

type Task func(ctx context.Context) error

// Scheduler wraps a cron instance whose jobs share one context. A run that
// is still going when its next tick fires makes the tick a no-op.
type Scheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
	ctx  context.Context
	log  *zap.SugaredLogger
	ids  map[string]cron.EntryID
}

func New(ctx context.Context, log *zap.SugaredLogger) *Scheduler {
	log = logger.OrNop(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log}))),
		ctx:  ctx,
		log:  log,
		ids:  map[string]cron.EntryID{},
	}
}

// Schedule registers task under name, replacing an earlier task of the
// same name. spec is a standard cron spec or a descriptor like "@every 30m".
func (s *Scheduler) Schedule(name, spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		if err := task(s.ctx); err != nil {
			s.log.Warnw("scheduled task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "schedule %s", name), `use a cron spec such as "*/30 * * * *" or "@every 30m"`)
	}
	if old, ok := s.ids[name]; ok {
		s.cron.Remove(old)
	}
	s.ids[name] = id
	s.log.Infow("task scheduled", "task", name, "spec", spec)
	return nil
}

// Unschedule drops name if it is scheduled.
func (s *Scheduler) Unschedule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[name]; ok {
		s.cron.Remove(id)
		delete(s.ids, name)
	}
}

// Next reports when name runs next. ok is false for unknown tasks.
func (s *Scheduler) Next(name string) (next cron.Entry, ok bool) {
	s.mu.Lock()
	id, ok := s.ids[name]
	s.mu.Unlock()
	if !ok {
		return cron.Entry{}, false
	}
	return s.cron.Entry(id), true
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running tasks, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
