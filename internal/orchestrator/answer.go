package orchestrator

import (
	"context"
	"fmt"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/progress"
	"github.com/roach88/coursesync/internal/session"
)

// SubmitAnswer grades a selection, schedules the resulting writes and
// returns the outcome. Read failures are returned; write failures happen
// later on the queues and are only logged.
//
// While a reveal is on offer for the question, further answers fail with
// session.ErrInvalidTransition until Reveal or Retry is called.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, a Answer) (Outcome, error) {
	chapters, err := o.loadChapters(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit answer: %w", err)
	}
	ch, q, ok := curriculum.Find(chapters, a.ChapterID, a.QuestionID)
	if !ok {
		return Outcome{}, fmt.Errorf("submit answer: %w: %s/%s", ErrUnknownQuestion, a.ChapterID, a.QuestionID)
	}
	if a.Selected < 0 || a.Selected >= len(q.Options) {
		return Outcome{}, fmt.Errorf("submit answer: %w: %d not in [0,%d)", ErrInvalidSelection, a.Selected, len(q.Options))
	}

	rec, err := o.tracker.FetchOrCreate(ctx, a.UserID, a.ChapterID, a.QuestionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit answer: %w", err)
	}

	var (
		phase   session.Phase
		attempt int
	)
	err = o.sessions.With(a.UserID, q.ID, q.CorrectAnswer, func(s *session.Session) error {
		var err error
		phase, err = s.Answer(a.Selected)
		attempt = s.Attempts()
		return err
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("submit answer: %w", err)
	}

	var out Outcome
	if phase == session.Correct {
		out = o.recordCorrect(chapters, ch, q, rec, a)
	} else {
		out = o.recordWrong(q, rec, a, attempt, phase == session.OfferReveal)
	}

	o.logger.Info("answer recorded",
		"user", a.UserID,
		"chapter", a.ChapterID,
		"question", a.QuestionID,
		"kind", out.Kind,
		"attempt", out.Attempt,
		"reveal_offered", out.RevealOffered,
	)
	for _, obs := range o.observers {
		obs.AnswerRecorded(a, out)
	}
	return out, nil
}

func (o *Orchestrator) recordCorrect(chapters []curriculum.Chapter, ch curriculum.Chapter, q curriculum.Question, rec progress.Record, a Answer) Outcome {
	out := Outcome{
		Kind:     Correct,
		Progress: progress.RecordCompletion(rec, q.ID, ch.ID),
	}
	out.Scheduled = append(out.Scheduled,
		o.scheduleProgress(a.UserID, "progress.completion "+q.ID, progress.Completion(q.ID, ch.ID)))

	next, hasNext := curriculum.NextAfter(chapters, ch.ID, q.ID)
	if hasNext {
		out.Next = &next
	}
	if o.chapterWrites {
		out.Scheduled = append(out.Scheduled, o.scheduleChapterStates(ch.ID, q.ID, next, hasNext)...)
	}
	return out
}

func (o *Orchestrator) recordWrong(q curriculum.Question, rec progress.Record, a Answer, attempt int, reveal bool) Outcome {
	updated, _ := progress.RecordWrongAttempt(rec, q.ID)
	return Outcome{
		Kind:          Wrong,
		Attempt:       attempt,
		RevealOffered: reveal,
		Progress:      updated,
		Scheduled: []string{
			o.scheduleProgress(a.UserID, "progress.wrong_attempt "+q.ID, progress.WrongAttempt(q.ID)),
		},
	}
}

// Reveal accepts an offered reveal and returns the correct option index.
func (o *Orchestrator) Reveal(userID, questionID string) (int, error) {
	var idx int
	err := o.sessions.Existing(userID, questionID, func(s *session.Session) error {
		var err error
		idx, err = s.Reveal()
		return err
	})
	if err != nil {
		return session.NoSelection, fmt.Errorf("reveal: %w", err)
	}
	return idx, nil
}

// Retry declines an offered reveal so the learner can answer again.
func (o *Orchestrator) Retry(userID, questionID string) error {
	err := o.sessions.Existing(userID, questionID, func(s *session.Session) error {
		return s.Retry()
	})
	if err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Open starts a new instance of a question for userID. Session attempt
// counting restarts; persisted wrong-attempt counts are kept.
func (o *Orchestrator) Open(userID, questionID string) {
	o.sessions.Close(userID, questionID)
}

// SessionPhase returns the phase of the user's current session for questionID.
func (o *Orchestrator) SessionPhase(userID, questionID string) session.Phase {
	return o.sessions.Phase(userID, questionID)
}
