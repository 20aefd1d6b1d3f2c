package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	chapters := DeriveStates([]Chapter{
		chapter("ch1", "q1", "q2", "q3"),
		chapter("ch2", "q4"),
		chapter("empty"),
	}, set("q1", "q2"))

	s := Summarize(chapters)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 50, s.Percent)

	require.Len(t, s.Chapters, 3)
	assert.Equal(t, ChapterSummary{ChapterID: "ch1", Title: "ch1", Total: 3, Completed: 2, Percent: 66}, s.Chapters[0])
	assert.Equal(t, ChapterSummary{ChapterID: "ch2", Title: "ch2", Total: 1}, s.Chapters[1])
	assert.Equal(t, ChapterSummary{ChapterID: "empty", Title: "empty"}, s.Chapters[2])
}

func TestSummarize_NoChapters(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Percent)
	assert.Empty(t, s.Chapters)
}

func TestSummarize_EmptyChapterBetween(t *testing.T) {
	chapters := DeriveStates([]Chapter{
		chapter("A", "a0", "a1", "a2"),
		chapter("E"),
		chapter("B", "b0"),
	}, set("a0"))

	s := Summarize(chapters)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 25, s.Percent)
	assert.Equal(t, []ChapterSummary{
		{ChapterID: "A", Title: "A", Total: 3, Completed: 1, Percent: 33},
		{ChapterID: "E", Title: "E"},
		{ChapterID: "B", Title: "B", Total: 1},
	}, s.Chapters)
}
