package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/reperrors"
)

// ApplyFunc receives each successfully reloaded configuration. Callers apply
// the hot-safe subset; anything else is reported as needing a restart before
// the callback runs.
type ApplyFunc func(ctx context.Context, cfg *Config) error

// Watcher monitors the configuration file and reloads it on change. A bad
// edit is logged and skipped; the previous configuration stays active.
type Watcher struct {
	path     string
	apply    ApplyFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	current *Config

	stopOnce sync.Once
	stopChan chan struct{}
	reload   chan struct{}
}

// NewWatcher creates a watcher for the file at path. current is the
// configuration in effect when watching starts.
func NewWatcher(path string, current *Config, apply ApplyFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryConfig, "create file watcher").Build()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, reperrors.Wrap(err, reperrors.CategoryConfig, "resolve configuration path").
			WithContext("path", path).
			Build()
	}

	return &Watcher{
		path:     abs,
		apply:    apply,
		watcher:  fsw,
		debounce: 2 * time.Second,
		current:  current,
		stopChan: make(chan struct{}),
		reload:   make(chan struct{}, 1),
	}, nil
}

// Start begins watching. Editors replace files rather than writing in place,
// so the parent directory is watched and events are filtered by name.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return reperrors.Wrap(err, reperrors.CategoryConfig, "watch configuration directory").
			WithContext("dir", dir).
			Build()
	}

	slog.Info("watching configuration file", logfields.File(w.path))

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			slog.Error("close configuration watcher", logfields.Error(err))
		}
	})
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) watchLoop(ctx context.Context) {
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				w.trigger()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("configuration file removed", logfields.File(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("configuration watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop debounces bursts of file events into a single reload.
func (w *Watcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reload:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.performReload(ctx); err != nil {
					slog.Error("configuration reload failed", logfields.Error(err))
				}
			})
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.reload <- struct{}{}:
	default:
		// Reload already pending.
	}
}

func (w *Watcher) performReload(ctx context.Context) error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	previous := w.current
	w.current = cfg
	w.mu.Unlock()

	if fields := restartOnlyChanges(previous, cfg); len(fields) > 0 {
		slog.Warn("configuration changes need a restart to take effect",
			slog.Any("fields", fields))
	}

	if w.apply != nil {
		if err := w.apply(ctx, cfg); err != nil {
			return err
		}
	}

	slog.Info("configuration reloaded", logfields.File(w.path))
	return nil
}

// restartOnlyChanges names top-level sections whose changes cannot be applied
// to a running server. Everything except logging is bound at construction.
func restartOnlyChanges(old, updated *Config) []string {
	if old == nil {
		return nil
	}

	var fields []string
	if old.Server != updated.Server {
		fields = append(fields, "server")
	}
	if old.Site != updated.Site {
		fields = append(fields, "site")
	}
	if storeChanged(old.Store, updated.Store) {
		fields = append(fields, "store")
	}
	if old.Auth != updated.Auth {
		fields = append(fields, "auth")
	}
	if old.Notify != updated.Notify {
		fields = append(fields, "notify")
	}
	if old.Publisher != updated.Publisher {
		fields = append(fields, "publisher")
	}
	if old.Metrics != updated.Metrics {
		fields = append(fields, "metrics")
	}
	return fields
}

func storeChanged(a, b StoreConfig) bool {
	if a.Backend != b.Backend || a.PostsDir != b.PostsDir || a.PagesDir != b.PagesDir {
		return true
	}
	if (a.GitHub == nil) != (b.GitHub == nil) {
		return true
	}
	if a.GitHub != nil && *a.GitHub != *b.GitHub {
		return true
	}
	if (a.Git == nil) != (b.Git == nil) {
		return true
	}
	if a.Git != nil && *a.Git != *b.Git {
		return true
	}
	return false
}
