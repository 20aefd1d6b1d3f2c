// Package retry wraps a single fallible operation with bounded retries and a
// fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Defaults applied by New.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 500 * time.Millisecond
)

// Executor retries operations with a constant backoff.
type Executor struct {
	maxAttempts uint
	delay       time.Duration
	retryable   func(error) bool
	logger      *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts sets the total number of attempts (not retries). Values below 1 mean 1.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.maxAttempts = uint(n)
	}
}

// WithDelay sets the fixed wait between attempts.
func WithDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.delay = d
	}
}

// WithRetryable sets the classifier deciding whether an error is worth retrying.
// Errors it rejects are returned immediately. By default every error is retried.
func WithRetryable(fn func(error) bool) Option {
	return func(e *Executor) {
		e.retryable = fn
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// New creates an Executor with 3 attempts and a 500ms delay unless overridden.
func New(opts ...Option) *Executor {
	e := &Executor{
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAttempts returns the configured attempt budget.
func (e *Executor) MaxAttempts() int {
	return int(e.maxAttempts)
}

// Do runs op until it succeeds or the attempt budget is spent, and returns the
// last observed error. Once started the loop is not cancellable: op receives a
// context detached from ctx's cancellation.
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	attempt := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if e.retryable != nil && !e.retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.delay)),
		backoff.WithMaxTries(e.maxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			e.logger.Warn("attempt failed, retrying",
				"op", name,
				"attempt", attempt,
				"max_attempts", e.maxAttempts,
				"retry_in", next,
				"error", err,
			)
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if err != nil {
		e.logger.Debug("operation gave up", "op", name, "attempts", attempt, "error", err)
	}
	return err
}
