package orchestrator

import (
	"context"
	"fmt"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/progress"
)

// scheduleProgress queues a read-modify-write of the user's progress record.
// The record is re-read inside the queue, so writes for one user apply in
// submission order without losing each other's changes.
func (o *Orchestrator) scheduleProgress(userID, name string, mut progress.Mutation) string {
	return o.progressQ.Enqueue(name, func(ctx context.Context) error {
		return o.retry.Do(ctx, name, func(ctx context.Context) error {
			_, err := o.tracker.Apply(ctx, userID, mut)
			return err
		})
	})
}

// scheduleChapterStates queues the denormalized question-state writes for a
// correct answer: the answered question becomes completed and the next one
// unlocked. When the next question lives in another chapter, that chapter
// gets its own write.
func (o *Orchestrator) scheduleChapterStates(chapterID, questionID string, next curriculum.Locator, hasNext bool) []string {
	sameChapter := hasNext && next.ChapterID == chapterID

	ids := []string{o.scheduleChapterPatch(chapterID, "chapters.complete "+questionID, func(ch curriculum.Chapter) curriculum.Chapter {
		ch = curriculum.MarkCompleted(ch, questionID)
		if sameChapter {
			ch = curriculum.MarkUnlocked(ch, next.QuestionID)
		}
		return ch
	})}

	if hasNext && !sameChapter {
		ids = append(ids, o.scheduleChapterPatch(next.ChapterID, "chapters.unlock "+next.QuestionID, func(ch curriculum.Chapter) curriculum.Chapter {
			return curriculum.MarkUnlocked(ch, next.QuestionID)
		}))
	}
	return ids
}

// scheduleChapterPatch queues a fetch of the chapter, a transform of its
// questions and a partial update that touches only the questions field.
func (o *Orchestrator) scheduleChapterPatch(chapterID, name string, patch func(curriculum.Chapter) curriculum.Chapter) string {
	return o.chaptersQ.Enqueue(name, func(ctx context.Context) error {
		return o.retry.Do(ctx, name, func(ctx context.Context) error {
			ch, err := o.chapters.FetchByID(ctx, chapterID)
			if err != nil {
				return fmt.Errorf("fetch chapter %s: %w", chapterID, err)
			}
			updated := patch(ch)
			if err := o.chapters.UpdateFields(ctx, chapterID, updated.QuestionsPatch()); err != nil {
				return fmt.Errorf("update chapter %s: %w", chapterID, err)
			}
			return nil
		})
	})
}
