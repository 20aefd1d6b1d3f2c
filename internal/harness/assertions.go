package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/docstore"
	"github.com/roach88/coursesync/internal/docstore/memstore"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", formatEvent(event))
		}
	}
	return buf.String()
}

// assertTraceContains checks if the trace contains a step of the given kind
// whose args include assertion.Args.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == EventInvocation && event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("step %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// counted reports whether an event is a step invocation or a write, the two
// kinds of event order and count assertions look at.
func counted(event TraceEvent) bool {
	return event.Type == EventInvocation || event.Type == EventWrite
}

// assertTraceOrder checks that the named steps or writes first appear in the
// given order. Intervening events are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if !counted(event) {
			continue
		}
		if _, seen := positions[event.Action]; !seen {
			positions[event.Action] = i + 1
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev, curr := assertion.Actions[i-1], assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that a step kind or write name occurs exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if counted(event) && event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertQuestionState checks a question's derived state in the final view.
func assertQuestionState(result *Result, assertion Assertion) error {
	if result.Final == nil {
		return &AssertionError{
			Type:     AssertQuestionState,
			Expected: "a final view",
			Actual:   "final view could not be loaded",
		}
	}
	_, q, ok := curriculum.Find(result.Final.Chapters, assertion.Chapter, assertion.Question)
	if !ok {
		return &AssertionError{
			Type:     AssertQuestionState,
			Expected: fmt.Sprintf("question %s/%s", assertion.Chapter, assertion.Question),
			Actual:   "question not found",
		}
	}
	if string(q.State) != assertion.State {
		return &AssertionError{
			Type:     AssertQuestionState,
			Expected: fmt.Sprintf("%s/%s is %s", assertion.Chapter, assertion.Question, assertion.State),
			Actual:   string(q.State),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalState fetches a stored document and checks Expect as a subset of it.
func assertFinalState(ctx context.Context, st *memstore.Store, assertion Assertion) error {
	doc, err := st.Fetch(ctx, assertion.Collection, assertion.ID)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("document %s/%s", assertion.Collection, assertion.ID),
			Actual:   fmt.Sprintf("fetch error: %v", err),
		}
	}

	for key, expectedValue := range assertion.Expect {
		actualValue, exists := doc[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s/%s", key, assertion.Collection, assertion.ID),
			}
		}
		if !valuesEqual(actualValue, expectedValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v", key, actualValue),
			}
		}
	}
	return nil
}

// matchArgs checks if actual contains all expected keys with equal values.
// Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values after normalizing both to document
// values, so int and int64 or []string and []any compare equal.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	a, errA := docstore.Normalize(docstore.Document{"v": actual})
	e, errE := docstore.Normalize(docstore.Document{"v": expected})
	if errA != nil || errE != nil {
		return reflect.DeepEqual(actual, expected)
	}
	return reflect.DeepEqual(a["v"], e["v"])
}

// AssertionContext provides the store for final_state assertions.
type AssertionContext struct {
	Store *memstore.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertQuestionState:
			err = assertQuestionState(result, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a store", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
