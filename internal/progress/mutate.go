package progress

import "slices"

// Mutation is a pure transform applied to a stored record before it is written back.
type Mutation func(Record) Record

// RecordCompletion marks questionID completed and moves the resume pointers to it.
// Completing an already-completed question only moves the pointers.
func RecordCompletion(rec Record, questionID, chapterID string) Record {
	out := rec.Clone()
	if i, found := slices.BinarySearch(out.Completed, questionID); !found {
		out.Completed = slices.Insert(out.Completed, i, questionID)
	}
	out.LastQuestionID = questionID
	out.ChapterID = chapterID
	return out
}

// RecordWrongAttempt increments the wrong-attempt count for questionID and
// returns the updated record with the new count.
func RecordWrongAttempt(rec Record, questionID string) (Record, int) {
	out := rec.Clone()
	out.WrongAttempts[questionID]++
	return out, out.WrongAttempts[questionID]
}

// Completion returns a Mutation that applies RecordCompletion.
func Completion(questionID, chapterID string) Mutation {
	return func(r Record) Record {
		return RecordCompletion(r, questionID, chapterID)
	}
}

// WrongAttempt returns a Mutation that applies RecordWrongAttempt.
func WrongAttempt(questionID string) Mutation {
	return func(r Record) Record {
		out, _ := RecordWrongAttempt(r, questionID)
		return out
	}
}
