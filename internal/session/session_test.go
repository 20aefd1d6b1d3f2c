package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CorrectFirstTry(t *testing.T) {
	s := New("q1", 2)
	assert.Equal(t, Unanswered, s.Phase())
	assert.Equal(t, NoSelection, s.Selected())

	require.NoError(t, s.Select(0))
	require.NoError(t, s.Select(2))
	assert.Equal(t, Answered, s.Phase())

	phase, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, Correct, phase)
	assert.True(t, s.Terminal())
	assert.Equal(t, 0, s.Attempts())
}

func TestSession_RevealOfferedOnSecondMissOnly(t *testing.T) {
	s := New("q1", 1)

	phase, err := s.Answer(0)
	require.NoError(t, err)
	assert.Equal(t, Wrong, phase)
	assert.Equal(t, 1, s.Attempts())

	phase, err = s.Answer(2)
	require.NoError(t, err)
	assert.Equal(t, OfferReveal, phase)
	assert.Equal(t, 2, s.Attempts())

	require.NoError(t, s.Retry())
	assert.Equal(t, Unanswered, s.Phase())
	assert.Equal(t, NoSelection, s.Selected())

	phase, err = s.Answer(0)
	require.NoError(t, err)
	assert.Equal(t, Wrong, phase, "third miss must not offer a reveal again")
	assert.Equal(t, 3, s.Attempts())
}

func TestSession_Reveal(t *testing.T) {
	s := New("q1", 3)
	_, _ = s.Answer(0)
	_, _ = s.Answer(1)

	idx, err := s.Reveal()
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 3, s.Selected())
	assert.Equal(t, Revealed, s.Phase())
	assert.True(t, s.Terminal())
}

func TestSession_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*Session)
		action func(*Session) error
	}{
		{"submit without selection", func(*Session) {}, func(s *Session) error { _, err := s.Submit(); return err }},
		{"reveal before offer", func(*Session) {}, func(s *Session) error { _, err := s.Reveal(); return err }},
		{"retry before offer", func(s *Session) { _, _ = s.Answer(0) }, func(s *Session) error { return s.Retry() }},
		{"select after correct", func(s *Session) { _, _ = s.Answer(1) }, func(s *Session) error { return s.Select(0) }},
		{"select while reveal offered", func(s *Session) { _, _ = s.Answer(0); _, _ = s.Answer(0) }, func(s *Session) error { return s.Select(1) }},
		{"submit after reveal", func(s *Session) { _, _ = s.Answer(0); _, _ = s.Answer(0); _, _ = s.Reveal() }, func(s *Session) error { _, err := s.Submit(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("q1", 1)
			tt.setup(s)
			before := s.Phase()

			err := tt.action(s)

			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, s.Phase(), "failed transition must not change phase")
		})
	}
}

func TestBook_CloseResets(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.With("u1", "q1", 1, func(s *Session) error {
		_, err := s.Answer(0)
		return err
	}))
	assert.Equal(t, Wrong, b.Phase("u1", "q1"))

	b.Close("u1", "q1")
	assert.Equal(t, Unanswered, b.Phase("u1", "q1"))

	var attempts int
	require.NoError(t, b.With("u1", "q1", 1, func(s *Session) error {
		attempts = s.Attempts()
		return nil
	}))
	assert.Equal(t, 0, attempts)
}

func TestBook_TerminalSessionRestarts(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.With("u1", "q1", 0, func(s *Session) error {
		_, err := s.Answer(0)
		return err
	}))
	assert.Equal(t, Unanswered, b.Phase("u1", "q1"))
	assert.Equal(t, 0, b.Len(), "ended session must be evicted")

	require.NoError(t, b.With("u1", "q1", 0, func(s *Session) error {
		assert.Equal(t, Unanswered, s.Phase())
		return nil
	}))
}

func TestBook_EvictsEndedSessions(t *testing.T) {
	b := NewBook()
	miss := func(s *Session) error {
		_, err := s.Answer(0)
		return err
	}

	for _, q := range []string{"q1", "q2", "q3"} {
		require.NoError(t, b.With("u1", q, 1, miss))
	}
	assert.Equal(t, 3, b.Len())

	// q1 is answered correctly.
	require.NoError(t, b.With("u1", "q1", 1, func(s *Session) error {
		_, err := s.Answer(1)
		return err
	}))
	assert.Equal(t, 2, b.Len())

	// q2 reaches the reveal offer and is revealed.
	require.NoError(t, b.With("u1", "q2", 1, miss))
	assert.Equal(t, OfferReveal, b.Phase("u1", "q2"))
	require.NoError(t, b.Existing("u1", "q2", func(s *Session) error {
		_, err := s.Reveal()
		return err
	}))
	assert.Equal(t, 1, b.Len())
	assert.ErrorIs(t, b.Existing("u1", "q2", func(*Session) error { return nil }), ErrInvalidTransition)

	// A failed transition leaves the open session in place.
	err := b.Existing("u1", "q3", func(s *Session) error {
		_, err := s.Reveal()
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Wrong, b.Phase("u1", "q3"))
	assert.Equal(t, 1, b.Len())
}

func TestBook_IsolatesUsersAndQuestions(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.With("u1", "q1", 1, func(s *Session) error {
		_, err := s.Answer(0)
		return err
	}))

	assert.Equal(t, Wrong, b.Phase("u1", "q1"))
	assert.Equal(t, Unanswered, b.Phase("u2", "q1"))
	assert.Equal(t, Unanswered, b.Phase("u1", "q2"))
}

func TestBook_ExistingRequiresSession(t *testing.T) {
	b := NewBook()

	err := b.Existing("u1", "q1", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, b.With("u1", "q1", 0, func(*Session) error { return nil }))
	assert.NoError(t, b.Existing("u1", "q1", func(*Session) error { return nil }))

	b.Close("u1", "q1")
	assert.ErrorIs(t, b.Existing("u1", "q1", func(*Session) error { return nil }), ErrInvalidTransition)
}

func TestBook_ConcurrentAccess(t *testing.T) {
	b := NewBook()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.With("u1", "q1", 5, func(s *Session) error {
				if s.Phase() == OfferReveal {
					if err := s.Retry(); err != nil {
						return err
					}
				}
				_, err := s.Answer(0)
				return err
			})
		}()
	}
	wg.Wait()

	var attempts int
	_ = b.Existing("u1", "q1", func(s *Session) error {
		attempts = s.Attempts()
		return nil
	})
	assert.Equal(t, 20, attempts)
}
