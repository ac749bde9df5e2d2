package config

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
)

// Live holds the running config. Readers call Get; the config handlers and
// Watch replace it.
type Live struct {
	v    atomic.Value // stores Config
	path string
	// Reload reads the file again, applying overlays and env.
	Reload func() (Config, error)
}

func NewLive(path string, cfg Config, reload func() (Config, error)) *Live {
	l := &Live{path: path, Reload: reload}
	l.v.Store(cfg)
	return l
}

func (l *Live) Get() Config { return l.v.Load().(Config) }

func (l *Live) Set(cfg Config) { l.v.Store(cfg) }

func (l *Live) Path() string { return l.path }

// Watch reloads the config file whenever it changes on disk, until ctx is
// done. Invalid edits are logged and the previous config stays active.
// onChange runs after every successful reload.
func (l *Live) Watch(ctx context.Context, log *zap.SugaredLogger, onChange func(Config)) error {
	log = logger.OrNop(log)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create config watcher")
	}
	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "watch %s", dir)
	}

	go func() {
		defer w.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(l.path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					debounce = time.After(200 * time.Millisecond)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warnw("config watcher error", "error", err)
			case <-debounce:
				debounce = nil
				l.reload(log, onChange)
			}
		}
	}()
	return nil
}

func (l *Live) reload(log *zap.SugaredLogger, onChange func(Config)) {
	cfg, err := l.Reload()
	if err != nil {
		log.Warnw("config reload failed, keeping previous config", "path", l.path, "error", err)
		return
	}
	normalized, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		log.Warnw("config reload rejected", "path", l.path, "errors", vr.Errors)
		return
	}
	for _, w := range vr.Warnings {
		log.Infow("config warning", "warning", w)
	}
	l.Set(normalized)
	log.Infow("config reloaded", "path", l.path)
	if onChange != nil {
		onChange(normalized)
	}
}
