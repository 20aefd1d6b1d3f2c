package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/coursesync/internal/docstore"
)

// DefaultCollection is the collection holding progress documents.
const DefaultCollection = "userProgress"

// Tracker reads and writes ProgressRecords.
//
// Tracker holds no per-user state; serializing writes for a user is the
// caller's job (the orchestrator funnels them through one operation queue).
type Tracker struct {
	records *docstore.Collection[Record, *Record]
	logger  *slog.Logger
}

// Option configures a Tracker.
type Option func(*trackerConfig)

type trackerConfig struct {
	collection string
	logger     *slog.Logger
}

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(c *trackerConfig) {
		c.collection = name
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *trackerConfig) {
		c.logger = l
	}
}

// NewTracker creates a tracker over backend.
func NewTracker(backend docstore.Backend, opts ...Option) *Tracker {
	cfg := trackerConfig{collection: DefaultCollection, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Tracker{
		records: docstore.NewCollection[Record](backend, cfg.collection, docstore.WithSchema(Schema)),
		logger:  cfg.logger,
	}
}

// Collection returns the collection name.
func (t *Tracker) Collection() string {
	return t.records.Name()
}

// FetchOrCreate returns the user's record, creating a default one on first access.
// Errors other than NOT_FOUND are returned unchanged in kind. If another
// writer creates the record between the read and the create, the stored
// record wins and is returned.
func (t *Tracker) FetchOrCreate(ctx context.Context, userID, defaultChapterID, defaultQuestionID string) (Record, error) {
	rec, err := t.records.FetchByID(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !docstore.IsNotFound(err) {
		return Record{}, fmt.Errorf("fetch progress for %s: %w", userID, err)
	}

	rec = NewRecord(userID, defaultChapterID, defaultQuestionID)
	created, err := t.records.CreateIfAbsent(ctx, userID, rec)
	if err != nil {
		return Record{}, fmt.Errorf("create progress for %s: %w", userID, err)
	}
	if !created {
		t.logger.Debug("progress record created concurrently", "user", userID)
		return t.Fetch(ctx, userID)
	}
	t.logger.Info("created progress record",
		"user", userID,
		"chapter", defaultChapterID,
		"question", defaultQuestionID,
	)
	return rec, nil
}

// Fetch returns the stored record without creating one.
func (t *Tracker) Fetch(ctx context.Context, userID string) (Record, error) {
	rec, err := t.records.FetchByID(ctx, userID)
	if err != nil {
		return Record{}, fmt.Errorf("fetch progress for %s: %w", userID, err)
	}
	return rec, nil
}

// Apply re-reads the stored record, applies muts in order and writes the full
// result back. A missing record is created from an empty default.
// Mutations see the latest stored state, never a caller's stale snapshot.
func (t *Tracker) Apply(ctx context.Context, userID string, muts ...Mutation) (Record, error) {
	rec, err := t.records.FetchByID(ctx, userID)
	if err != nil && !docstore.IsNotFound(err) {
		return Record{}, fmt.Errorf("apply progress for %s: %w", userID, err)
	}

	if err != nil {
		fresh := apply(NewRecord(userID, "", ""), muts)
		created, err := t.records.CreateIfAbsent(ctx, userID, fresh)
		if err != nil {
			return Record{}, fmt.Errorf("write progress for %s: %w", userID, err)
		}
		if created {
			return fresh, nil
		}
		// Created by someone else since the read; mutate what they stored.
		if rec, err = t.records.FetchByID(ctx, userID); err != nil {
			return Record{}, fmt.Errorf("apply progress for %s: %w", userID, err)
		}
	}

	rec = apply(rec, muts)
	if err := t.records.Update(ctx, userID, rec); err != nil {
		return Record{}, fmt.Errorf("write progress for %s: %w", userID, err)
	}
	return rec, nil
}

func apply(rec Record, muts []Mutation) Record {
	for _, mut := range muts {
		rec = mut(rec)
	}
	return rec
}
