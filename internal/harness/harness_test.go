package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// its snapshot with the matching golden file.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed: %v", result.Errors)
		})
	}
}

func intp(n int) *int { return &n }

func twoQuestionChapter() []map[string]any {
	return []map[string]any{{
		"id":    "ch1",
		"title": "Basics",
		"questions": []any{
			map[string]any{"id": "q1", "title": "One", "questionText": "?", "options": []any{"a", "b"}, "correctAnswer": 1},
			map[string]any{"id": "q2", "title": "Two", "questionText": "?", "options": []any{"a", "b"}, "correctAnswer": 0},
		},
	}}
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectation",
		Chapters:    twoQuestionChapter(),
		Flow: []FlowStep{{
			Step: StepAnswer, Chapter: "ch1", Question: "q1", Selected: intp(0),
			Expect: &ExpectClause{Case: "correct"},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected case "correct", got "wrong"`)
}

func TestRun_UnknownQuestion(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Description: "answer a question that does not exist",
		Chapters:    twoQuestionChapter(),
		Flow: []FlowStep{{
			Step: StepAnswer, Chapter: "ch1", Question: "q9", Selected: intp(0),
			Expect: &ExpectClause{Case: "error", Result: map[string]any{"error": "unknown_question"}},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_SeededProgress(t *testing.T) {
	scenario := &Scenario{
		Name:        "seeded",
		Description: "start from an existing progress record",
		User:        "u1",
		Chapters:    twoQuestionChapter(),
		Progress: map[string]any{
			"chapterId":          "ch1",
			"lastQuestionId":     "q1",
			"completedQuestions": []any{"q1"},
		},
		Flow: []FlowStep{{
			Step:   StepLoad,
			Expect: &ExpectClause{Case: "ok", Result: map[string]any{"completed": 1, "resume": "ch1/q2"}},
		}},
		Assertions: []Assertion{
			{Type: AssertQuestionState, Chapter: "ch1", Question: "q1", State: "completed"},
			{Type: AssertQuestionState, Chapter: "ch1", Question: "q2", State: "unlocked"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.NotNil(t, result.Final)
	assert.Equal(t, "u1", result.Final.UserID)
}

func TestRun_ChapterWritesDisabled(t *testing.T) {
	off := false
	scenario := &Scenario{
		Name:          "no-chapter-writes",
		Description:   "only progress is written",
		ChapterWrites: &off,
		Chapters:      twoQuestionChapter(),
		Flow:          []FlowStep{{Step: StepAnswer, Chapter: "ch1", Question: "q1", Selected: intp(1)}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "progress.completion q1", Count: 1},
			{Type: AssertTraceCount, Action: "chapters.complete q1", Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_RetryAfterOffer(t *testing.T) {
	scenario := &Scenario{
		Name:        "retry",
		Description: "decline the reveal and answer again",
		Chapters:    twoQuestionChapter(),
		Flow: []FlowStep{
			{Step: StepAnswer, Chapter: "ch1", Question: "q1", Selected: intp(0)},
			{Step: StepAnswer, Chapter: "ch1", Question: "q1", Selected: intp(0)},
			{Step: StepRetry, Question: "q1", Expect: &ExpectClause{Case: "ok"}},
			{Step: StepReveal, Question: "q1", Expect: &ExpectClause{Case: "error", Result: map[string]any{"error": "invalid_transition"}}},
			{Step: StepAnswer, Chapter: "ch1", Question: "q1", Selected: intp(0),
				Expect: &ExpectClause{Case: "wrong", Result: map[string]any{"attempt": 3, "reveal_offered": false}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_FailingAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad-assert",
		Description: "assert a state that does not hold",
		Chapters:    twoQuestionChapter(),
		Flow:        []FlowStep{{Step: StepLoad}},
		Assertions: []Assertion{
			{Type: AssertQuestionState, Chapter: "ch1", Question: "q2", State: "unlocked"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: question_state")
}

func TestRun_InvalidSeed(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad-seed",
		Description: "chapter without a title",
		Chapters:    []map[string]any{{"id": "ch1", "questions": []any{}}},
		Flow:        []FlowStep{{Step: StepLoad}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chapters[0]")
}
