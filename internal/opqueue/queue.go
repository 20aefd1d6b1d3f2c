// Package opqueue serializes deferred write operations against one target.
//
// A Queue accepts operations without blocking and drains them on a single
// background goroutine, strictly FIFO, waiting for each to finish (including
// its own retries) and then pausing for a fixed spacing delay before the next.
//
// Thread-safety: Enqueue, Len, Idle and Wait are safe from any goroutine.
// The pending list and the draining flag are only touched under mu, and the
// start-if-idle decision is made under the same lock as the append, so two
// drain goroutines can never exist for one queue.
//
// Failures are logged and reported to the OnResult hook; they never stop the
// queue. The queue is unbounded.
package opqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDelay is the spacing inserted after every operation.
const DefaultDelay = 500 * time.Millisecond

// Operation is a deferred, fallible action. The context it receives is never
// cancelled: once enqueued an operation always runs.
type Operation func(ctx context.Context) error

// Result describes one finished operation.
type Result struct {
	ID       string
	Name     string
	Err      error
	Started  time.Time
	Finished time.Time
}

type pending struct {
	id   string
	name string
	op   Operation
}

// Queue is a single-worker FIFO of operations.
type Queue struct {
	name     string
	delay    time.Duration
	logger   *slog.Logger
	onResult func(Result)
	newID    func() string

	mu       sync.Mutex
	ops      []pending
	draining bool
	idle     chan struct{} // closed whenever no drain goroutine is running
}

// Option configures a Queue.
type Option func(*Queue)

// WithDelay sets the spacing between operations.
func WithDelay(d time.Duration) Option {
	return func(q *Queue) {
		q.delay = d
	}
}

// WithLogger sets the logger used for operation failures.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// WithOnResult registers a hook called on the drain goroutine after every operation.
func WithOnResult(fn func(Result)) Option {
	return func(q *Queue) {
		q.onResult = fn
	}
}

// WithIDGenerator overrides the operation id source (UUIDv7 by default).
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		q.newID = fn
	}
}

// New creates an idle queue for the named write target.
func New(name string, opts ...Option) *Queue {
	idle := make(chan struct{})
	close(idle)

	q := &Queue{
		name:   name,
		delay:  DefaultDelay,
		logger: slog.Default(),
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		ops:    make([]pending, 0, 16),
		idle:   idle,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the write target this queue serves.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends op and returns its id immediately.
// A drain goroutine is started only if none is running.
func (q *Queue) Enqueue(name string, op Operation) string {
	id := q.newID()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = append(q.ops, pending{id: id, name: name, op: op})
	if !q.draining {
		q.draining = true
		q.idle = make(chan struct{})
		go q.drain(q.idle)
	}
	return id
}

// Len returns the number of operations not yet started.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Idle reports whether no drain goroutine is running.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.draining
}

// Wait blocks until the queue has drained or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain runs operations until the queue is empty, then closes done.
func (q *Queue) drain(done chan struct{}) {
	for {
		q.mu.Lock()
		if len(q.ops) == 0 {
			q.draining = false
			close(done)
			q.mu.Unlock()
			return
		}
		p := q.ops[0]
		// Clear the slot so the closure can be collected.
		q.ops[0] = pending{}
		if len(q.ops) == 1 {
			q.ops = q.ops[:0]
		} else {
			q.ops = q.ops[1:]
		}
		q.mu.Unlock()

		q.run(p)

		if q.delay > 0 {
			time.Sleep(q.delay)
		}
	}
}

func (q *Queue) run(p pending) {
	res := Result{ID: p.id, Name: p.name, Started: time.Now()}
	res.Err = q.call(p)
	res.Finished = time.Now()

	if res.Err != nil {
		q.logger.Error("queued operation failed",
			"queue", q.name,
			"op_id", p.id,
			"op", p.name,
			"duration", res.Finished.Sub(res.Started),
			"error", res.Err,
		)
	} else {
		q.logger.Debug("queued operation done",
			"queue", q.name,
			"op_id", p.id,
			"op", p.name,
			"duration", res.Finished.Sub(res.Started),
		)
	}

	if q.onResult != nil {
		q.onResult(res)
	}
}

// call runs the operation, turning a panic into an error so the queue keeps draining.
func (q *Queue) call(p pending) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return p.op(context.Background())
}
