package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	r := NewResult()
	r.AddInvocation(StepLoad, nil)
	r.AddCompletion(StepLoad, "ok", map[string]any{"completed": 0})
	r.AddInvocation(StepAnswer, map[string]any{"chapter": "ch1", "question": "q1", "selected": 1})
	r.AddCompletion(StepAnswer, "correct", map[string]any{"next": "ch1/q2"})
	r.AddWrite("progress.completion q1", nil)
	r.AddWrite("chapters.complete q1", assert.AnError)
	return r.Trace
}

func TestResult_Seq(t *testing.T) {
	trace := sampleTrace()
	for i, ev := range trace {
		assert.Equal(t, i+1, ev.Seq)
	}
	assert.Equal(t, "error", trace[5].OutputCase)
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: StepAnswer, Args: map[string]any{"question": "q1"}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: StepLoad}))

	err := assertTraceContains(trace, Assertion{Action: StepAnswer, Args: map[string]any{"selected": 0}})
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, err.Error(), "[3] invocation answer chapter=ch1 question=q1 selected=1")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{StepLoad, StepAnswer, "progress.completion q1"}}))

	err := assertTraceOrder(trace, Assertion{Actions: []string{"chapters.complete q1", "progress.completion q1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(trace, Assertion{Actions: []string{StepReveal}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action: reveal")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: StepLoad, Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "chapters.complete q1", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: StepReveal, Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: StepAnswer, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name   string
		actual any
		expect any
		want   bool
	}{
		{"int and int64", int64(2), 2, true},
		{"string slices", []any{"q1", "q2"}, []string{"q1", "q2"}, true},
		{"nested counts", map[string]any{"q1": int64(2)}, map[string]any{"q1": 2}, true},
		{"count map", map[string]int{"q1": 1}, map[string]any{"q1": 1}, true},
		{"different", "a", "b", false},
		{"order matters", []any{"q2", "q1"}, []any{"q1", "q2"}, false},
		{"both nil", nil, nil, true},
		{"one nil", nil, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.actual, tt.expect))
		})
	}
}

func TestSnapshot_NoFinalView(t *testing.T) {
	r := NewResult()
	r.AddInvocation(StepLoad, nil)
	r.AddCompletion(StepLoad, "error", map[string]any{"error": "no_chapters"})

	got := string(Snapshot("empty", r))
	assert.Equal(t, "scenario: empty\ntrace:\n  [1] invocation load\n  [2] completion load error error=no_chapters\n", got)
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "{}", formatCounts(nil))
	assert.Equal(t, "{a:1,b:2}", formatCounts(map[string]int{"b": 2, "a": 1}))
}
