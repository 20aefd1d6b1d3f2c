package testutil

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Mark is one recorded event.
type Mark struct {
	Label string
	At    time.Time
}

// Recorder collects labelled timestamps from concurrent goroutines.
type Recorder struct {
	mu    sync.Mutex
	marks []Mark
}

// Record appends a mark stamped with the current time.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, Mark{Label: label, At: time.Now()})
}

// Marks returns a copy of everything recorded so far.
func (r *Recorder) Marks() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mark(nil), r.marks...)
}

// Labels returns the recorded labels in order.
func (r *Recorder) Labels() []string {
	marks := r.Marks()
	out := make([]string, len(marks))
	for i, m := range marks {
		out[i] = m.Label
	}
	return out
}

// DiscardLogger returns a logger that drops everything. Background goroutines
// may outlive a test, so tests must not log through testing.T from them.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
