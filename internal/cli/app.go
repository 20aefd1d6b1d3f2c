package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/coursesync/internal/config"
	"github.com/roach88/coursesync/internal/docstore"
	"github.com/roach88/coursesync/internal/docstore/memstore"
	"github.com/roach88/coursesync/internal/docstore/redisstore"
	"github.com/roach88/coursesync/internal/docstore/sqlstore"
	"github.com/roach88/coursesync/internal/orchestrator"
	"github.com/roach88/coursesync/internal/retry"
	"github.com/roach88/coursesync/internal/session"
)

// flushTimeout bounds how long a command waits for queued writes before exiting.
const flushTimeout = 30 * time.Second

// app is the per-command wiring: configuration, logger, store and orchestrator.
type app struct {
	cfg    config.Config
	user   string
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
	out    *OutputFormatter
	close  func() error
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	}
}

// openApp loads configuration and connects to the configured store.
// Failures are reported through the formatter and returned as *ExitError.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, report(out, ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	user := cfg.User
	if opts.User != "" {
		user = opts.User
	}

	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())

	backend, closeFn, err := openBackend(cfg.Store)
	if err != nil {
		return nil, report(out, ExitCommandError, ErrCodeStore, "failed to open store", err)
	}
	logger.Debug("store ready", "driver", cfg.Store.Driver)

	orch := orchestrator.New(backend,
		orchestrator.WithLogger(logger),
		orchestrator.WithCollections(orchestrator.Collections{
			Chapters:  cfg.Collections.Chapters,
			Progress:  cfg.Collections.Progress,
			Resources: cfg.Collections.Resources,
		}),
		orchestrator.WithRetry(retry.New(
			retry.WithMaxAttempts(cfg.Retry.MaxAttempts),
			retry.WithDelay(cfg.Retry.Delay),
			retry.WithRetryable(docstore.IsRetryable),
			retry.WithLogger(logger),
		)),
		orchestrator.WithQueueDelay(cfg.Queue.Delay),
		orchestrator.WithChapterWrites(cfg.ChapterWrites),
	)

	return &app{
		cfg:    cfg,
		user:   user,
		orch:   orch,
		logger: logger,
		out:    out,
		close:  closeFn,
	}, nil
}

// Close waits for queued writes and releases the store.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.orch.Flush(ctx); err != nil {
		a.logger.Error("queued writes did not finish", "pending", a.orch.Pending(), "error", err)
	}
	if err := a.close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
}

// fail reports err with a code derived from its kind.
func (a *app) fail(message string, err error) error {
	code, exit := classify(err)
	return report(a.out, exit, code, message, err)
}

func report(out *OutputFormatter, exit int, code, message string, err error) error {
	_ = out.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return Exit(exit, message, err)
}

func classify(err error) (string, int) {
	switch {
	case errors.Is(err, orchestrator.ErrUnknownQuestion),
		errors.Is(err, orchestrator.ErrNoChapters),
		docstore.IsNotFound(err):
		return ErrCodeNotFound, ExitFailure
	case errors.Is(err, orchestrator.ErrInvalidSelection),
		errors.Is(err, session.ErrInvalidTransition):
		return ErrCodeInvalid, ExitFailure
	case docstore.IsDecode(err):
		return ErrCodeData, ExitFailure
	default:
		return ErrCodeStore, ExitFailure
	}
}

// newLogger builds the process logger on w. --verbose forces debug level.
func newLogger(cfg config.Log, verbose bool, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openBackend connects to the configured document store.
func openBackend(cfg config.Store) (docstore.Backend, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), func() error { return nil }, nil
	case config.DriverSQLite, config.DriverPostgres:
		st, err := sqlstore.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.DriverRedis:
		st, err := redisstore.Open(cfg.Addr, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
