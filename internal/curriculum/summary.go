package curriculum

// ChapterSummary counts completion within one chapter.
type ChapterSummary struct {
	ChapterID string `json:"chapterId"`
	Title     string `json:"title"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
}

// Summary counts completion over the whole course.
type Summary struct {
	Chapters  []ChapterSummary `json:"chapters"`
	Total     int              `json:"total"`
	Completed int              `json:"completed"`
	Percent   int              `json:"percent"`
}

// Summarize counts completed questions in chapters whose states have been derived.
// Percentages are rounded down; an empty chapter reports 0.
func Summarize(chapters []Chapter) Summary {
	s := Summary{Chapters: make([]ChapterSummary, 0, len(chapters))}
	for _, ch := range chapters {
		cs := ChapterSummary{ChapterID: ch.ID, Title: ch.Title, Total: len(ch.Questions)}
		for _, q := range ch.Questions {
			if q.State == Completed {
				cs.Completed++
			}
		}
		cs.Percent = percent(cs.Completed, cs.Total)
		s.Chapters = append(s.Chapters, cs)
		s.Total += cs.Total
		s.Completed += cs.Completed
	}
	s.Percent = percent(s.Completed, s.Total)
	return s
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}
