package curriculum

import (
	"cmp"
	"slices"
)

// Sort orders chapters in place by Order, then by ID.
func Sort(chapters []Chapter) {
	slices.SortStableFunc(chapters, func(a, b Chapter) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// DeriveStates returns a deep copy of chapters with every question's State
// recomputed from the completed set. The input is not modified and any state
// it carries is ignored.
//
// A question is completed if its id is in the set. Otherwise it is unlocked
// when it is the first question of the first chapter, when it follows a
// completed question in the same chapter, or when it opens a chapter whose
// predecessor is fully completed. A chapter with no questions counts as fully
// completed.
func DeriveStates(chapters []Chapter, completed map[string]bool) []Chapter {
	out := make([]Chapter, len(chapters))
	prevDone := true // vacuously true before the first chapter

	for i, ch := range chapters {
		ch = ch.Clone()
		for j := range ch.Questions {
			q := &ch.Questions[j]
			switch {
			case completed[q.ID]:
				q.State = Completed
			case j == 0 && prevDone:
				q.State = Unlocked
			case j > 0 && ch.Questions[j-1].State == Completed:
				q.State = Unlocked
			default:
				q.State = Locked
			}
		}
		prevDone = allCompleted(ch)
		out[i] = ch
	}
	return out
}

func allCompleted(ch Chapter) bool {
	for _, q := range ch.Questions {
		if q.State != Completed {
			return false
		}
	}
	return true
}

// MarkCompleted returns a copy of ch with questionID marked completed.
func MarkCompleted(ch Chapter, questionID string) Chapter {
	out := ch.Clone()
	for i := range out.Questions {
		if out.Questions[i].ID == questionID {
			out.Questions[i].State = Completed
		}
	}
	return out
}

// MarkUnlocked returns a copy of ch with questionID unlocked.
// A completed question stays completed.
func MarkUnlocked(ch Chapter, questionID string) Chapter {
	out := ch.Clone()
	for i := range out.Questions {
		q := &out.Questions[i]
		if q.ID == questionID && q.State != Completed {
			q.State = Unlocked
		}
	}
	return out
}
