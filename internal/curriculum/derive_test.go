package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func q(id string) Question {
	return Question{ID: id, Title: id, Text: "?", Options: []string{"a", "b"}, CorrectAnswer: 0}
}

func chapter(id string, qids ...string) Chapter {
	ch := Chapter{ID: id, Title: id}
	for _, qid := range qids {
		ch.Questions = append(ch.Questions, q(qid))
	}
	return ch
}

func set(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func states(chapters []Chapter) map[string]QuestionState {
	out := make(map[string]QuestionState)
	for _, ch := range chapters {
		for _, q := range ch.Questions {
			out[q.ID] = q.State
		}
	}
	return out
}

func TestDeriveStates_DefaultUnlock(t *testing.T) {
	chapters := []Chapter{
		chapter("A", "a0", "a1", "a2"),
		chapter("B", "b0", "b1"),
	}

	got := states(DeriveStates(chapters, set()))

	assert.Equal(t, map[string]QuestionState{
		"a0": Unlocked, "a1": Locked, "a2": Locked,
		"b0": Locked, "b1": Locked,
	}, got)
}

func TestDeriveStates_ChapterBoundary(t *testing.T) {
	chapters := []Chapter{
		chapter("A", "a0", "a1"),
		chapter("B", "b0"),
	}

	got := states(DeriveStates(chapters, set("a0")))
	assert.Equal(t, Completed, got["a0"])
	assert.Equal(t, Unlocked, got["a1"])
	assert.Equal(t, Locked, got["b0"])

	got = states(DeriveStates(chapters, set("a0", "a1")))
	assert.Equal(t, Unlocked, got["b0"])
}

func TestDeriveStates_EmptyChapterIsVacuouslyComplete(t *testing.T) {
	chapters := []Chapter{
		chapter("A", "a0"),
		chapter("Empty"),
		chapter("C", "c0", "c1"),
	}

	got := states(DeriveStates(chapters, set("a0")))
	assert.Equal(t, Unlocked, got["c0"])
	assert.Equal(t, Locked, got["c1"])

	got = states(DeriveStates([]Chapter{chapter("Empty"), chapter("B", "b0")}, set()))
	assert.Equal(t, Unlocked, got["b0"])
}

func TestDeriveStates_EmptyList(t *testing.T) {
	assert.Empty(t, DeriveStates(nil, set("x")))
}

func TestDeriveStates_CompletedOutOfOrder(t *testing.T) {
	chapters := []Chapter{chapter("A", "a0", "a1", "a2")}

	// a2 completed without a1: a1 is unlocked behind a0, a2 stays completed.
	got := states(DeriveStates(chapters, set("a0", "a2")))
	assert.Equal(t, map[string]QuestionState{"a0": Completed, "a1": Unlocked, "a2": Completed}, got)
}

func TestDeriveStates_IgnoresStoredState(t *testing.T) {
	ch := chapter("A", "a0", "a1")
	ch.Questions[1].State = Completed

	got := states(DeriveStates([]Chapter{ch}, set()))
	assert.Equal(t, Locked, got["a1"])
}

func TestDeriveStates_Idempotent(t *testing.T) {
	chapters := []Chapter{
		chapter("A", "a0", "a1"),
		chapter("E"),
		chapter("B", "b0", "b1", "b2"),
		chapter("C", "c0"),
	}
	completedSets := []map[string]bool{
		set(),
		set("a0"),
		set("a0", "a1"),
		set("a0", "a1", "b0", "b1"),
		set("b1", "c0"),
		set("a0", "a1", "b0", "b1", "b2", "c0"),
	}

	for _, completed := range completedSets {
		once := DeriveStates(chapters, completed)
		twice := DeriveStates(once, completed)
		assert.Equal(t, once, twice)
	}
}

func TestDeriveStates_DoesNotMutateInput(t *testing.T) {
	chapters := []Chapter{chapter("A", "a0", "a1")}

	out := DeriveStates(chapters, set("a0"))
	out[0].Questions[0].Options[0] = "changed"

	assert.Equal(t, QuestionState(""), chapters[0].Questions[0].State)
	assert.Equal(t, "a", chapters[0].Questions[0].Options[0])
}

func TestSort(t *testing.T) {
	chapters := []Chapter{
		{ID: "ch3"},
		{ID: "ch10", Order: 1},
		{ID: "ch1"},
		{ID: "ch2", Order: 1},
	}

	Sort(chapters)

	ids := make([]string, len(chapters))
	for i, ch := range chapters {
		ids[i] = ch.ID
	}
	assert.Equal(t, []string{"ch1", "ch3", "ch10", "ch2"}, ids)
}

func TestMarkCompletedAndUnlocked(t *testing.T) {
	ch := DeriveStates([]Chapter{chapter("A", "a0", "a1")}, set())[0]

	done := MarkCompleted(ch, "a0")
	done = MarkUnlocked(done, "a1")

	assert.Equal(t, Completed, done.Questions[0].State)
	assert.Equal(t, Unlocked, done.Questions[1].State)
	assert.Equal(t, Unlocked, ch.Questions[0].State, "input must not be mutated")

	again := MarkUnlocked(done, "a0")
	assert.Equal(t, Completed, again.Questions[0].State, "unlock must not downgrade completion")
}

func TestChapter_QuestionsPatch(t *testing.T) {
	ch := chapter("A", "a0")

	patch := ch.QuestionsPatch()

	require.Contains(t, patch, "questions")
	assert.Len(t, patch, 1)
}
