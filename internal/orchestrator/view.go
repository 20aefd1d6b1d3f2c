package orchestrator

import (
	"context"
	"fmt"

	"github.com/roach88/coursesync/internal/curriculum"
)

// LoadView reads the curriculum and the user's progress and derives every
// question's state. It is all-or-nothing: any read failure aborts the call
// with one error and no partial view.
//
// A user without a progress record gets one, pointing at the first question
// of the course.
func (o *Orchestrator) LoadView(ctx context.Context, userID string) (View, error) {
	chapters, err := o.loadChapters(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load view for %s: %w", userID, err)
	}

	start, ok := curriculum.First(chapters)
	if !ok {
		start = curriculum.Locator{ChapterID: chapters[0].ID}
	}
	rec, err := o.tracker.FetchOrCreate(ctx, userID, start.ChapterID, start.QuestionID)
	if err != nil {
		return View{}, fmt.Errorf("load view for %s: %w", userID, err)
	}

	derived := curriculum.DeriveStates(chapters, rec.CompletedSet())
	v := View{
		UserID:        userID,
		Chapters:      derived,
		Progress:      rec,
		Summary:       curriculum.Summarize(derived),
		WrongAttempts: rec.TotalWrongAttempts(),
	}
	if loc, ok := curriculum.Resume(derived, rec.ChapterID); ok {
		v.Resume = &loc
	}

	o.logger.Debug("view loaded",
		"user", userID,
		"chapters", len(derived),
		"completed", v.Summary.Completed,
		"total", v.Summary.Total,
	)
	for _, obs := range o.observers {
		obs.ViewLoaded(v)
	}
	return v, nil
}

// Resources returns the reference topics ordered by id.
func (o *Orchestrator) Resources(ctx context.Context) ([]curriculum.ResourceTopic, error) {
	topics, err := o.resources.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch resources: %w", err)
	}
	curriculum.SortTopics(topics)
	return topics, nil
}

// Seed writes chapters and resource topics directly, bypassing the queues.
// Existing documents with the same ids are overwritten.
func (o *Orchestrator) Seed(ctx context.Context, chapters []curriculum.Chapter, topics []curriculum.ResourceTopic) error {
	for _, ch := range chapters {
		if err := o.chapters.Create(ctx, ch.ID, ch); err != nil {
			return fmt.Errorf("seed chapter %s: %w", ch.ID, err)
		}
	}
	for _, t := range topics {
		if err := o.resources.Create(ctx, t.ID, t); err != nil {
			return fmt.Errorf("seed resource %s: %w", t.ID, err)
		}
	}
	o.logger.Info("seeded content", "chapters", len(chapters), "resources", len(topics))
	return nil
}
