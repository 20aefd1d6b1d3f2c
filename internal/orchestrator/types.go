package orchestrator

import (
	"errors"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/progress"
)

var (
	// ErrNoChapters is returned when the curriculum holds no chapters.
	ErrNoChapters = errors.New("curriculum has no chapters")

	// ErrUnknownQuestion is returned when an answer names a question that does not exist.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrInvalidSelection is returned when the selected option index is out of range.
	ErrInvalidSelection = errors.New("selected option out of range")
)

// View is the learner's course with lock states derived from their progress.
type View struct {
	UserID        string               `json:"userId"`
	Chapters      []curriculum.Chapter `json:"chapters"`
	Progress      progress.Record      `json:"progress"`
	Summary       curriculum.Summary   `json:"summary"`
	WrongAttempts int                  `json:"wrongAttempts"`

	// Resume is where the learner should continue, if anywhere.
	Resume *curriculum.Locator `json:"resume,omitempty"`
}

// Answer is one submitted selection.
type Answer struct {
	UserID     string
	ChapterID  string
	QuestionID string
	Selected   int
}

// OutcomeKind says whether an answer was right.
type OutcomeKind string

const (
	Correct OutcomeKind = "correct"
	Wrong   OutcomeKind = "wrong"
)

// Outcome is the result of SubmitAnswer.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// Attempt is the wrong-attempt number within the current question
	// session. Zero for a correct answer.
	Attempt int `json:"attempt,omitempty"`

	// RevealOffered is set on exactly the second wrong attempt of a session.
	// Resolve it with Reveal or Retry.
	RevealOffered bool `json:"revealOffered,omitempty"`

	// Next is the question after this one when the answer was correct.
	// Nil when the course is complete.
	Next *curriculum.Locator `json:"next,omitempty"`

	// Progress is the locally updated record. The stored copy catches up
	// once the scheduled writes run.
	Progress progress.Record `json:"-"`

	// Scheduled lists the ids of the queued write operations.
	Scheduled []string `json:"scheduled"`
}

// Observer is notified after successful orchestrator calls.
// Callbacks run on the caller's goroutine.
type Observer interface {
	ViewLoaded(v View)
	AnswerRecorded(a Answer, out Outcome)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnView   func(View)
	OnAnswer func(Answer, Outcome)
}

// ViewLoaded implements Observer.
func (f ObserverFuncs) ViewLoaded(v View) {
	if f.OnView != nil {
		f.OnView(v)
	}
}

// AnswerRecorded implements Observer.
func (f ObserverFuncs) AnswerRecorded(a Answer, out Outcome) {
	if f.OnAnswer != nil {
		f.OnAnswer(a, out)
	}
}
