package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/docstore"
	"github.com/roach88/coursesync/internal/docstore/memstore"
	"github.com/roach88/coursesync/internal/opqueue"
	"github.com/roach88/coursesync/internal/orchestrator"
	"github.com/roach88/coursesync/internal/progress"
	"github.com/roach88/coursesync/internal/retry"
	"github.com/roach88/coursesync/internal/session"
	"github.com/roach88/coursesync/internal/testutil"
)

// stepTimeout bounds how long a step waits for its queued writes to settle.
const stepTimeout = 10 * time.Second

// Harness runs one scenario against a fresh in-memory store.
//
// Every step waits for the write queues to drain before the next one starts,
// so writes appear in the trace right after the step that scheduled them.
type Harness struct {
	store  *memstore.Store
	orch   *orchestrator.Orchestrator
	user   string
	logger *slog.Logger

	mu      sync.Mutex
	settled map[string]opqueue.Result // by op id
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Seed chapters (and progress, if given) into a fresh memstore
//  2. Run flow steps, checking expect clauses and recording the trace
//  3. Load the final view
//  4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	h := newHarness(scenario)

	if err := h.seed(ctx, scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		outputCase, out, scheduled := h.execute(ctx, step, result)

		flushCtx, cancel := context.WithTimeout(ctx, stepTimeout)
		err := h.orch.Flush(flushCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: writes did not settle: %w", i, err)
		}
		result.AddCompletion(step.Step, outputCase, out)
		for _, id := range scheduled {
			r := h.result(id)
			result.AddWrite(r.Name, r.Err)
		}

		if step.Expect != nil {
			if msg := checkExpect(step.Expect, outputCase, out); msg != "" {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Step, msg))
			}
		}
	}

	if v, err := h.orch.LoadView(ctx, h.user); err == nil {
		result.Final = &v
	} else {
		result.AddError(fmt.Sprintf("final view: %v", err))
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{Store: h.store, Ctx: ctx}) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) *Harness {
	h := &Harness{
		store:   memstore.New(),
		user:    scenario.User,
		logger:  testutil.DiscardLogger(),
		settled: make(map[string]opqueue.Result),
	}
	if h.user == "" {
		h.user = DefaultUser
	}
	chapterWrites := true
	if scenario.ChapterWrites != nil {
		chapterWrites = *scenario.ChapterWrites
	}

	ids := testutil.NewSequentialIDs("op")
	h.orch = orchestrator.New(h.store,
		orchestrator.WithLogger(h.logger),
		orchestrator.WithRetry(retry.New(
			retry.WithDelay(time.Millisecond),
			retry.WithRetryable(docstore.IsRetryable),
			retry.WithLogger(h.logger),
		)),
		orchestrator.WithQueueDelay(time.Millisecond),
		orchestrator.WithQueueOptions(
			opqueue.WithIDGenerator(ids.Next),
			opqueue.WithOnResult(h.record),
		),
		orchestrator.WithChapterWrites(chapterWrites),
	)
	return h
}

func (h *Harness) record(r opqueue.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settled[r.ID] = r
}

func (h *Harness) result(id string) opqueue.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settled[id]
}

// seed writes the scenario's documents straight into the store.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	chapters := make([]curriculum.Chapter, len(scenario.Chapters))
	for i, raw := range scenario.Chapters {
		doc := docstore.Document(raw)
		if err := curriculum.Schema.Validate(doc); err != nil {
			return fmt.Errorf("chapters[%d]: %w", i, err)
		}
		if err := chapters[i].FromDocument(doc); err != nil {
			return fmt.Errorf("chapters[%d]: %w", i, err)
		}
	}
	if err := h.orch.Seed(ctx, chapters, nil); err != nil {
		return err
	}

	if scenario.Progress == nil {
		return nil
	}
	doc := docstore.Document(scenario.Progress)
	if _, ok := doc["userId"]; !ok {
		doc = doc.Merge(docstore.Document{"userId": h.user})
	}
	if err := progress.Schema.Validate(doc); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	var rec progress.Record
	if err := rec.FromDocument(doc); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	tracker := progress.NewTracker(h.store, progress.WithLogger(h.logger))
	if _, err := tracker.Apply(ctx, rec.UserID, func(progress.Record) progress.Record { return rec }); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	return nil
}

// execute runs one step and returns its output case, result fields and the
// ids of the writes it scheduled.
func (h *Harness) execute(ctx context.Context, step FlowStep, result *Result) (string, map[string]any, []string) {
	switch step.Step {
	case StepLoad:
		result.AddInvocation(step.Step, nil)
		v, err := h.orch.LoadView(ctx, h.user)
		if err != nil {
			return failure(err)
		}
		out := map[string]any{
			"completed":      v.Summary.Completed,
			"total":          v.Summary.Total,
			"percent":        v.Summary.Percent,
			"wrong_attempts": v.WrongAttempts,
		}
		if v.Resume != nil {
			out["resume"] = locator(*v.Resume)
		}
		return "ok", out, nil

	case StepAnswer:
		result.AddInvocation(step.Step, map[string]any{
			"chapter":  step.Chapter,
			"question": step.Question,
			"selected": *step.Selected,
		})
		o, err := h.orch.SubmitAnswer(ctx, orchestrator.Answer{
			UserID:     h.user,
			ChapterID:  step.Chapter,
			QuestionID: step.Question,
			Selected:   *step.Selected,
		})
		if err != nil {
			return failure(err)
		}
		out := map[string]any{}
		if o.Kind == orchestrator.Wrong {
			out["attempt"] = o.Attempt
			out["reveal_offered"] = o.RevealOffered
		} else if o.Next != nil {
			out["next"] = locator(*o.Next)
		}
		return string(o.Kind), out, o.Scheduled

	case StepReveal:
		result.AddInvocation(step.Step, map[string]any{"question": step.Question})
		idx, err := h.orch.Reveal(h.user, step.Question)
		if err != nil {
			return failure(err)
		}
		return "ok", map[string]any{"correct_answer": idx}, nil

	case StepRetry:
		result.AddInvocation(step.Step, map[string]any{"question": step.Question})
		if err := h.orch.Retry(h.user, step.Question); err != nil {
			return failure(err)
		}
		return "ok", nil, nil

	case StepOpen:
		result.AddInvocation(step.Step, map[string]any{"question": step.Question})
		h.orch.Open(h.user, step.Question)
		return "ok", nil, nil

	case StepFail:
		result.AddInvocation(step.Step, map[string]any{"op": step.Op, "count": step.Count})
		h.store.FailNext(step.Op, step.Count, nil)
		return "ok", nil, nil
	}
	return failure(fmt.Errorf("unknown step %q", step.Step))
}

func failure(err error) (string, map[string]any, []string) {
	return "error", map[string]any{"error": errorKind(err)}, nil
}

// errorKind names an error for scenarios.
func errorKind(err error) string {
	switch {
	case errors.Is(err, orchestrator.ErrNoChapters):
		return "no_chapters"
	case errors.Is(err, orchestrator.ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, orchestrator.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, session.ErrInvalidTransition):
		return "invalid_transition"
	case docstore.IsNotFound(err):
		return "not_found"
	case docstore.IsDecode(err):
		return "decode"
	case docstore.IsTransport(err):
		return "transport"
	default:
		return "unknown"
	}
}

func locator(l curriculum.Locator) string {
	return l.ChapterID + "/" + l.QuestionID
}

// checkExpect compares a completion against an expect clause and returns a
// description of the first mismatch, or "".
func checkExpect(expect *ExpectClause, outputCase string, out map[string]any) string {
	if expect.Case != outputCase {
		return fmt.Sprintf("expected case %q, got %q (%v)", expect.Case, outputCase, out)
	}
	if !matchArgs(out, expect.Result) {
		return fmt.Sprintf("expected result %v, got %v", expect.Result, out)
	}
	return ""
}
