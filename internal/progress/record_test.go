package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coursesync/internal/docstore"
)

func TestRecord_DocumentRoundTrip(t *testing.T) {
	rec := Record{
		UserID:         "dev_user_123",
		ChapterID:      "ch1",
		LastQuestionID: "q2",
		Completed:      []string{"q1", "q2"},
		WrongAttempts:  map[string]int{"q2": 3},
	}

	raw, err := docstore.EncodeCanonical(rec.ToDocument())
	require.NoError(t, err)
	assert.Equal(t,
		`{"chapterId":"ch1","completedQuestions":["q1","q2"],"lastQuestionId":"q2","userId":"dev_user_123","wrongAttempts":{"q2":3}}`,
		string(raw))

	doc, err := docstore.DecodeCanonical(raw)
	require.NoError(t, err)
	require.NoError(t, Schema.Validate(doc))

	var got Record
	require.NoError(t, got.FromDocument(doc))
	assert.Equal(t, rec, got)
}

func TestRecord_FromDocumentDefaults(t *testing.T) {
	var rec Record
	require.NoError(t, rec.FromDocument(docstore.Document{"userId": "u1"}))

	assert.Equal(t, "u1", rec.UserID)
	assert.Empty(t, rec.ChapterID)
	assert.Equal(t, []string{}, rec.Completed)
	assert.Equal(t, map[string]int{}, rec.WrongAttempts)
}

func TestRecord_FromDocumentSortsAndDedupes(t *testing.T) {
	var rec Record
	err := rec.FromDocument(docstore.Document{
		"userId":             "u1",
		"completedQuestions": []any{"q3", "q1", "q3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q3"}, rec.Completed)
}

func TestRecord_FromDocumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   docstore.Document
		field string
	}{
		{"missing user", docstore.Document{}, "userId"},
		{"completed not array", docstore.Document{"userId": "u", "completedQuestions": "q1"}, "completedQuestions"},
		{"completed element", docstore.Document{"userId": "u", "completedQuestions": []any{int64(1)}}, "completedQuestions[0]"},
		{"wrong attempts value", docstore.Document{"userId": "u", "wrongAttempts": map[string]any{"q1": "two"}}, "wrongAttempts.q1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			err := rec.FromDocument(tt.doc)
			require.Error(t, err)
			assert.True(t, docstore.IsDecode(err))
			var se *docstore.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestSchema_RejectsNegativeCounts(t *testing.T) {
	err := Schema.Validate(docstore.Document{
		"userId":        "u1",
		"wrongAttempts": map[string]any{"q1": int64(-1)},
	})
	require.Error(t, err)
	assert.True(t, docstore.IsDecode(err))
}

func TestSchema_RejectsEmptyUser(t *testing.T) {
	err := Schema.Validate(docstore.Document{"userId": ""})
	require.Error(t, err)
}

func TestRecord_Queries(t *testing.T) {
	rec := Record{
		UserID:        "u1",
		Completed:     []string{"a", "c"},
		WrongAttempts: map[string]int{"a": 1, "b": 4},
	}

	assert.True(t, rec.IsCompleted("a"))
	assert.False(t, rec.IsCompleted("b"))
	assert.Equal(t, map[string]bool{"a": true, "c": true}, rec.CompletedSet())
	assert.Equal(t, 5, rec.TotalWrongAttempts())
	assert.Equal(t, 4, rec.WrongAttemptsFor("b"))
	assert.Equal(t, 0, rec.WrongAttemptsFor("z"))

	ids := rec.CompletedIDs()
	ids[0] = "mutated"
	assert.Equal(t, "a", rec.Completed[0], "CompletedIDs must return a copy")
}
