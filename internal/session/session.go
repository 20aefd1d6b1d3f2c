// Package session tracks the answer state of one question while a learner is
// looking at it. Nothing here is persisted: only completion and wrong-attempt
// counts reach the progress record.
//
// Transitions:
//
//	Unanswered  -> Answered(selected)
//	Answered    -> Answered(selected) | Correct | Wrong(n)
//	Wrong(n)    -> Answered(selected)
//	Wrong(2)    -> OfferReveal            (immediately, on the second miss)
//	OfferReveal -> Revealed | Unanswered
//
// Correct and Revealed are terminal for the instance.
package session

import (
	"errors"
	"fmt"
)

// RevealAfter is the wrong-attempt count at which a reveal is offered.
const RevealAfter = 2

// ErrInvalidTransition is returned when an action is not allowed in the current phase.
var ErrInvalidTransition = errors.New("invalid session transition")

// Phase is the state of a question session.
type Phase string

const (
	Unanswered  Phase = "unanswered"
	Answered    Phase = "answered"
	Correct     Phase = "correct"
	Wrong       Phase = "wrong"
	OfferReveal Phase = "offer_reveal"
	Revealed    Phase = "revealed"
)

// NoSelection marks a session with no option selected.
const NoSelection = -1

// Session is the answer state machine for one question instance.
// A Session is not safe for concurrent use; Book serializes access.
type Session struct {
	questionID string
	correct    int

	phase    Phase
	selected int
	attempts int
}

// New starts a session for a question whose correct option is correctIndex.
func New(questionID string, correctIndex int) *Session {
	return &Session{
		questionID: questionID,
		correct:    correctIndex,
		phase:      Unanswered,
		selected:   NoSelection,
	}
}

// QuestionID returns the question this session belongs to.
func (s *Session) QuestionID() string { return s.questionID }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Selected returns the selected option, or NoSelection.
func (s *Session) Selected() int { return s.selected }

// Attempts returns the number of wrong submissions in this session.
func (s *Session) Attempts() int { return s.attempts }

// Terminal reports whether the session has ended.
func (s *Session) Terminal() bool {
	return s.phase == Correct || s.phase == Revealed
}

// Select records the chosen option.
func (s *Session) Select(index int) error {
	switch s.phase {
	case Unanswered, Answered, Wrong:
		s.selected = index
		s.phase = Answered
		return nil
	default:
		return s.invalid("select")
	}
}

// Submit grades the current selection. A wrong answer moves to Wrong, or to
// OfferReveal when it is the RevealAfter-th miss.
func (s *Session) Submit() (Phase, error) {
	if s.phase != Answered {
		return s.phase, s.invalid("submit")
	}
	if s.selected == s.correct {
		s.phase = Correct
		return s.phase, nil
	}
	s.attempts++
	s.phase = Wrong
	if s.attempts == RevealAfter {
		s.phase = OfferReveal
	}
	return s.phase, nil
}

// Answer selects index and submits it in one step.
func (s *Session) Answer(index int) (Phase, error) {
	if err := s.Select(index); err != nil {
		return s.phase, err
	}
	return s.Submit()
}

// Reveal accepts an offered reveal; the selection is forced to the correct option.
func (s *Session) Reveal() (int, error) {
	if s.phase != OfferReveal {
		return NoSelection, s.invalid("reveal")
	}
	s.phase = Revealed
	s.selected = s.correct
	return s.correct, nil
}

// Retry declines an offered reveal and clears the selection.
func (s *Session) Retry() error {
	if s.phase != OfferReveal {
		return s.invalid("retry")
	}
	s.phase = Unanswered
	s.selected = NoSelection
	return nil
}

func (s *Session) invalid(action string) error {
	return fmt.Errorf("%w: %s in phase %s (question %s)", ErrInvalidTransition, action, s.phase, s.questionID)
}
