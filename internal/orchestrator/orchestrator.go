package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/docstore"
	"github.com/roach88/coursesync/internal/opqueue"
	"github.com/roach88/coursesync/internal/progress"
	"github.com/roach88/coursesync/internal/retry"
	"github.com/roach88/coursesync/internal/session"
)

// Queue names.
const (
	ProgressQueue = "progress"
	ChaptersQueue = "chapters"
)

// Collections names the collections the orchestrator reads and writes.
type Collections struct {
	Chapters  string
	Progress  string
	Resources string
}

// DefaultCollections returns the standard collection names.
func DefaultCollections() Collections {
	return Collections{
		Chapters:  curriculum.DefaultCollection,
		Progress:  progress.DefaultCollection,
		Resources: curriculum.ResourcesCollection,
	}
}

// Orchestrator is the entry point for loading views and submitting answers.
//
// Thread-safety: All methods are safe for concurrent use.
type Orchestrator struct {
	chapters  *docstore.Collection[curriculum.Chapter, *curriculum.Chapter]
	resources *docstore.Collection[curriculum.ResourceTopic, *curriculum.ResourceTopic]
	tracker   *progress.Tracker
	retry     *retry.Executor
	progressQ *opqueue.Queue
	chaptersQ *opqueue.Queue
	sessions  *session.Book

	observers     []Observer
	chapterWrites bool
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*config)

type config struct {
	collections   Collections
	logger        *slog.Logger
	retry         *retry.Executor
	queueDelay    time.Duration
	queueOpts     []opqueue.Option
	observers     []Observer
	chapterWrites bool
}

// WithCollections overrides the collection names.
func WithCollections(c Collections) Option {
	return func(cfg *config) {
		cfg.collections = c
	}
}

// WithLogger sets the logger shared by the orchestrator, its queues and its tracker.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithRetry replaces the write-path retry executor.
func WithRetry(e *retry.Executor) Option {
	return func(cfg *config) {
		cfg.retry = e
	}
}

// WithQueueDelay sets the spacing between queued writes.
func WithQueueDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.queueDelay = d
	}
}

// WithQueueOptions passes extra options to both write queues.
func WithQueueOptions(opts ...opqueue.Option) Option {
	return func(cfg *config) {
		cfg.queueOpts = append(cfg.queueOpts, opts...)
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(cfg *config) {
		cfg.observers = append(cfg.observers, o)
	}
}

// WithChapterWrites toggles writing question states back onto chapter
// documents after a correct answer. Enabled by default.
func WithChapterWrites(enabled bool) Option {
	return func(cfg *config) {
		cfg.chapterWrites = enabled
	}
}

// New creates an orchestrator over backend.
func New(backend docstore.Backend, opts ...Option) *Orchestrator {
	cfg := config{
		collections:   DefaultCollections(),
		logger:        slog.Default(),
		queueDelay:    opqueue.DefaultDelay,
		chapterWrites: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.retry == nil {
		cfg.retry = retry.New(
			retry.WithRetryable(docstore.IsRetryable),
			retry.WithLogger(cfg.logger),
		)
	}

	queueOpts := append([]opqueue.Option{
		opqueue.WithDelay(cfg.queueDelay),
		opqueue.WithLogger(cfg.logger),
	}, cfg.queueOpts...)

	return &Orchestrator{
		chapters: docstore.NewCollection[curriculum.Chapter](backend, cfg.collections.Chapters,
			docstore.WithSchema(curriculum.Schema)),
		resources: docstore.NewCollection[curriculum.ResourceTopic](backend, cfg.collections.Resources,
			docstore.WithSchema(curriculum.ResourceSchema)),
		tracker: progress.NewTracker(backend,
			progress.WithCollection(cfg.collections.Progress),
			progress.WithLogger(cfg.logger)),
		retry:         cfg.retry,
		progressQ:     opqueue.New(ProgressQueue, queueOpts...),
		chaptersQ:     opqueue.New(ChaptersQueue, queueOpts...),
		sessions:      session.NewBook(),
		observers:     cfg.observers,
		chapterWrites: cfg.chapterWrites,
		logger:        cfg.logger,
	}
}

// Flush blocks until both write queues have drained or ctx is done.
func (o *Orchestrator) Flush(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range []*opqueue.Queue{o.progressQ, o.chaptersQ} {
		g.Go(func() error {
			if err := q.Wait(ctx); err != nil {
				return fmt.Errorf("flush %s queue: %w", q.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Pending returns the number of writes not yet started across both queues.
func (o *Orchestrator) Pending() int {
	return o.progressQ.Len() + o.chaptersQ.Len()
}

// loadChapters fetches all chapters in course order.
func (o *Orchestrator) loadChapters(ctx context.Context) ([]curriculum.Chapter, error) {
	chapters, err := o.chapters.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chapters: %w", err)
	}
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}
	curriculum.Sort(chapters)
	return chapters, nil
}
