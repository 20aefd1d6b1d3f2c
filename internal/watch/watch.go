// Package watch periodically reloads a learner's view and hands it to a callback.
//
// This is polling, not push: each tick runs one LoadView. Ticks never
// overlap; a tick that would start while the previous one is still running
// is skipped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/roach88/coursesync/internal/orchestrator"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 30 * time.Second

// ErrRunning is returned by Start when the watcher is already started.
var ErrRunning = errors.New("watcher already running")

// Loader loads a learner's view.
type Loader interface {
	LoadView(ctx context.Context, userID string) (orchestrator.View, error)
}

// Watcher refreshes one user's view on a schedule.
type Watcher struct {
	loader   Loader
	userID   string
	interval time.Duration
	timeout  time.Duration
	onView   func(orchestrator.View)
	onError  func(error)
	logger   *slog.Logger

	mu    sync.Mutex
	sched *gocron.Scheduler
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithTimeout bounds each LoadView call. Defaults to the interval.
func WithTimeout(d time.Duration) Option {
	return func(w *Watcher) {
		w.timeout = d
	}
}

// OnView registers the callback for freshly loaded views.
func OnView(fn func(orchestrator.View)) Option {
	return func(w *Watcher) {
		w.onView = fn
	}
}

// OnError registers the callback for failed refreshes.
func OnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a stopped watcher for userID.
func New(loader Loader, userID string, opts ...Option) *Watcher {
	w := &Watcher{
		loader:   loader,
		userID:   userID,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.timeout <= 0 {
		w.timeout = w.interval
	}
	return w
}

// Start schedules refreshes. The first one runs immediately.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sched != nil {
		return ErrRunning
	}
	if w.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", w.interval)
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(w.interval).Do(w.refresh); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	s.StartAsync()
	w.sched = s

	w.logger.Info("watching progress", "user", w.userID, "interval", w.interval)
	return nil
}

// Stop cancels future refreshes. A refresh already running finishes first.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sched == nil {
		return
	}
	w.sched.Stop()
	w.sched = nil
	w.logger.Info("stopped watching", "user", w.userID)
}

// Running reports whether the watcher is started.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sched != nil
}

func (w *Watcher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	v, err := w.loader.LoadView(ctx, w.userID)
	if err != nil {
		w.logger.Warn("refresh failed", "user", w.userID, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onView != nil {
		w.onView(v)
	}
}
