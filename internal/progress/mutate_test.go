package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCompletion(t *testing.T) {
	rec := NewRecord("u1", "ch1", "q1")

	got := RecordCompletion(rec, "q1", "ch1")

	assert.Equal(t, []string{"q1"}, got.Completed)
	assert.Equal(t, "q1", got.LastQuestionID)
	assert.Equal(t, "ch1", got.ChapterID)
	assert.Empty(t, rec.Completed, "input must not be mutated")
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	rec := RecordCompletion(NewRecord("u1", "ch1", "q1"), "q1", "ch1")
	rec = RecordCompletion(rec, "q2", "ch2")

	again := RecordCompletion(rec, "q1", "ch1")

	assert.Equal(t, []string{"q1", "q2"}, again.Completed)
	assert.Equal(t, "q1", again.LastQuestionID)
	assert.Equal(t, "ch1", again.ChapterID)
}

func TestRecordCompletion_Monotonic(t *testing.T) {
	sequence := []string{"q3", "q1", "q3", "q2", "q1", "q5"}
	rec := NewRecord("u1", "", "")
	var seen []string

	for _, q := range sequence {
		before := rec.CompletedSet()
		rec = RecordCompletion(rec, q, "ch")
		seen = append(seen, q)

		for id := range before {
			assert.True(t, rec.IsCompleted(id), "lost %s after completing %s", id, q)
		}
		for _, id := range seen {
			assert.True(t, rec.IsCompleted(id))
		}
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q5"}, rec.Completed)
}

func TestRecordWrongAttempt(t *testing.T) {
	rec := NewRecord("u1", "ch1", "q1")

	rec, n := RecordWrongAttempt(rec, "q1")
	assert.Equal(t, 1, n)

	next, n := RecordWrongAttempt(rec, "q1")
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, rec.WrongAttempts["q1"], "input must not be mutated")
	assert.Equal(t, 2, next.WrongAttempts["q1"])
}

func TestRecordWrongAttempt_NilMap(t *testing.T) {
	rec := Record{UserID: "u1"}

	got, n := RecordWrongAttempt(rec, "q9")

	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]int{"q9": 1}, got.WrongAttempts)
}

func TestMutations_Compose(t *testing.T) {
	muts := []Mutation{
		WrongAttempt("q1"),
		WrongAttempt("q1"),
		Completion("q1", "ch1"),
	}
	rec := NewRecord("u1", "", "")
	for _, m := range muts {
		rec = m(rec)
	}

	assert.Equal(t, 2, rec.WrongAttempts["q1"])
	assert.True(t, rec.IsCompleted("q1"))
	assert.Equal(t, "ch1", rec.ChapterID)
}
