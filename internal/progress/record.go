// Package progress owns the per-user ProgressRecord: the authoritative history
// of completed questions, resume pointers and wrong-attempt counts.
//
// The mutators in this package are pure: they return a new Record and never
// modify their input, so callers can fold several changes together before a
// single write. Persistence goes through Tracker.
package progress

import (
	"maps"
	"slices"

	"github.com/roach88/coursesync/internal/docstore"
)

// Record is one learner's progress document.
type Record struct {
	UserID         string `json:"userId"`
	ChapterID      string `json:"chapterId"` // current chapter pointer
	LastQuestionID string `json:"lastQuestionId"`

	// Completed holds question ids, sorted and without duplicates.
	Completed []string `json:"completedQuestions"`

	// WrongAttempts counts incorrect submissions per question id.
	WrongAttempts map[string]int `json:"wrongAttempts"`
}

// Schema is the shape accepted for userProgress documents.
var Schema = docstore.MustCompileSchema(`
#UserProgress: {
	userId:              string & !=""
	chapterId?:          string
	lastQuestionId?:     string
	completedQuestions?: [...string]
	wrongAttempts?: {[string]: int & >=0}
	...
}
`, "#UserProgress")

// NewRecord returns an empty record with resume pointers set to the given defaults.
func NewRecord(userID, chapterID, questionID string) Record {
	return Record{
		UserID:         userID,
		ChapterID:      chapterID,
		LastQuestionID: questionID,
		Completed:      []string{},
		WrongAttempts:  map[string]int{},
	}
}

// DocumentID implements docstore.Record.
func (r *Record) DocumentID() string { return r.UserID }

// ToDocument implements docstore.Record.
func (r *Record) ToDocument() docstore.Document {
	wrong := make(map[string]int, len(r.WrongAttempts))
	maps.Copy(wrong, r.WrongAttempts)
	return docstore.Document{
		"userId":             r.UserID,
		"chapterId":          r.ChapterID,
		"lastQuestionId":     r.LastQuestionID,
		"completedQuestions": r.CompletedIDs(),
		"wrongAttempts":      wrong,
	}
}

// FromDocument implements docstore.Record.
func (r *Record) FromDocument(d docstore.Document) error {
	var (
		out Record
		err error
	)
	if out.UserID, err = d.String("userId"); err != nil {
		return err
	}
	if out.ChapterID, err = d.OptString("chapterId"); err != nil {
		return err
	}
	if out.LastQuestionID, err = d.OptString("lastQuestionId"); err != nil {
		return err
	}
	completed, err := d.Strings("completedQuestions")
	if err != nil {
		return err
	}
	out.Completed = normalizeIDs(completed)
	if out.WrongAttempts, err = d.IntMap("wrongAttempts"); err != nil {
		return err
	}
	*r = out
	return nil
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	out.Completed = slices.Clone(r.Completed)
	if out.Completed == nil {
		out.Completed = []string{}
	}
	out.WrongAttempts = maps.Clone(r.WrongAttempts)
	if out.WrongAttempts == nil {
		out.WrongAttempts = map[string]int{}
	}
	return out
}

// IsCompleted reports whether questionID has been answered correctly.
func (r Record) IsCompleted(questionID string) bool {
	_, found := slices.BinarySearch(r.Completed, questionID)
	return found
}

// CompletedIDs returns a sorted copy of the completed question ids.
func (r Record) CompletedIDs() []string {
	out := slices.Clone(r.Completed)
	if out == nil {
		return []string{}
	}
	return out
}

// CompletedSet returns the completed ids as a set.
func (r Record) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(r.Completed))
	for _, id := range r.Completed {
		set[id] = true
	}
	return set
}

// WrongAttemptsFor returns the persisted wrong-attempt count for one question.
func (r Record) WrongAttemptsFor(questionID string) int {
	return r.WrongAttempts[questionID]
}

// TotalWrongAttempts sums wrong attempts over all questions.
func (r Record) TotalWrongAttempts() int {
	total := 0
	for _, n := range r.WrongAttempts {
		total += n
	}
	return total
}

func normalizeIDs(ids []string) []string {
	out := slices.Clone(ids)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
