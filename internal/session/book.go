package session

import "sync"

type key struct {
	user     string
	question string
}

// Book holds the live session of each (user, question) pair. A session is
// removed as soon as it reaches Correct or Revealed, so the book only ever
// holds sessions still in progress.
//
// Thread-safety: All methods are safe for concurrent use; a session is only
// touched while the book's mutex is held.
type Book struct {
	mu       sync.Mutex
	sessions map[key]*Session
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{sessions: make(map[key]*Session)}
}

// With runs fn on the user's session for questionID, creating one if none
// exists.
func (b *Book) With(userID, questionID string, correctIndex int, fn func(*Session) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{userID, questionID}
	s, ok := b.sessions[k]
	if !ok {
		s = New(questionID, correctIndex)
		b.sessions[k] = s
	}
	return b.run(k, s, fn)
}

// Existing runs fn on the user's session for questionID. It returns
// ErrInvalidTransition if no session is open.
func (b *Book) Existing(userID, questionID string, fn func(*Session) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{userID, questionID}
	s, ok := b.sessions[k]
	if !ok {
		return New(questionID, NoSelection).invalid("resume")
	}
	return b.run(k, s, fn)
}

// run calls fn and evicts the session if fn ended it. Callers hold mu.
func (b *Book) run(k key, s *Session, fn func(*Session) error) error {
	err := fn(s)
	if s.Terminal() {
		delete(b.sessions, k)
	}
	return err
}

// Phase returns the phase of the user's open session, or Unanswered if none
// exists. Ended sessions are gone, so Correct and Revealed are never reported.
func (b *Book) Phase(userID, questionID string) Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[key{userID, questionID}]; ok {
		return s.phase
	}
	return Unanswered
}

// Len returns the number of open sessions.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close drops the user's session for questionID; the next access starts a fresh instance.
func (b *Book) Close(userID, questionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, key{userID, questionID})
}
