package curriculum

// Locator addresses one question within the curriculum.
type Locator struct {
	ChapterID  string `json:"chapterId"`
	QuestionID string `json:"questionId"`
}

// First returns the first question of the first non-empty chapter.
func First(chapters []Chapter) (Locator, bool) {
	return firstFrom(chapters, 0)
}

// Find returns the chapter and question addressed by chapterID and questionID.
func Find(chapters []Chapter, chapterID, questionID string) (Chapter, Question, bool) {
	i := chapterIndex(chapters, chapterID)
	if i < 0 {
		return Chapter{}, Question{}, false
	}
	q, ok := chapters[i].Question(questionID)
	if !ok {
		return Chapter{}, Question{}, false
	}
	return chapters[i], q, true
}

// NextAfter returns the question that follows the given one in course order:
// the next question of the same chapter, else the first question of the next
// non-empty chapter. It returns false when the question is the last in the
// course or cannot be found.
func NextAfter(chapters []Chapter, chapterID, questionID string) (Locator, bool) {
	i := chapterIndex(chapters, chapterID)
	if i < 0 {
		return Locator{}, false
	}
	qs := chapters[i].Questions
	for j, q := range qs {
		if q.ID != questionID {
			continue
		}
		if j+1 < len(qs) {
			return Locator{ChapterID: chapters[i].ID, QuestionID: qs[j+1].ID}, true
		}
		return firstFrom(chapters, i+1)
	}
	return Locator{}, false
}

// Resume picks where a learner should continue, given chapters with derived
// states and the learner's current chapter: the first unlocked question of
// that chapter, else the first unlocked question of the chapter after it.
func Resume(chapters []Chapter, chapterID string) (Locator, bool) {
	i := chapterIndex(chapters, chapterID)
	if i < 0 {
		return Locator{}, false
	}
	for _, idx := range []int{i, i + 1} {
		if idx >= len(chapters) {
			break
		}
		for _, q := range chapters[idx].Questions {
			if q.State == Unlocked {
				return Locator{ChapterID: chapters[idx].ID, QuestionID: q.ID}, true
			}
		}
	}
	return Locator{}, false
}

func firstFrom(chapters []Chapter, start int) (Locator, bool) {
	for i := start; i < len(chapters); i++ {
		if len(chapters[i].Questions) > 0 {
			return Locator{ChapterID: chapters[i].ID, QuestionID: chapters[i].Questions[0].ID}, true
		}
	}
	return Locator{}, false
}

func chapterIndex(chapters []Chapter, id string) int {
	for i, ch := range chapters {
		if ch.ID == id {
			return i
		}
	}
	return -1
}
