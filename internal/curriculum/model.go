// Package curriculum models the ordered course content (chapters of quiz
// questions) and derives each question's lock state from a learner's
// completion set.
//
// Question.State is a view. It is recomputed by DeriveStates on every load
// and whatever a stored chapter document says about it is ignored.
package curriculum

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/coursesync/internal/docstore"
)

// DefaultCollection is the collection holding chapter documents.
const DefaultCollection = "chapters"

// QuestionState is the derived lock status of a question.
type QuestionState string

const (
	Locked    QuestionState = "locked"
	Unlocked  QuestionState = "unlocked"
	Completed QuestionState = "completed"
)

// Valid reports whether s is one of the known states.
func (s QuestionState) Valid() bool {
	switch s {
	case Locked, Unlocked, Completed:
		return true
	}
	return false
}

// Question is a single quiz item embedded in a chapter.
type Question struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Text          string        `json:"questionText"`
	Options       []string      `json:"options"`
	CorrectAnswer int           `json:"correctAnswer"` // 0-based index into Options
	State         QuestionState `json:"state"`

	// Extra holds stored fields this package does not model. They are
	// written back unchanged.
	Extra docstore.Document `json:"-"`
}

var questionFields = []string{"id", "title", "questionText", "options", "correctAnswer", "state"}

// Chapter is one curriculum unit. Question order defines unlock dependency.
type Chapter struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Order       int        `json:"order,omitempty"` // ascending sort key; 0 when unset
	Questions   []Question `json:"questions"`

	Extra docstore.Document `json:"-"`
}

var chapterFields = []string{"id", "title", "description", "order", "questions"}

// Schema is the shape accepted for chapter documents.
var Schema = docstore.MustCompileSchema(`
#Question: {
	id:            string & !=""
	title:         string
	questionText:  string
	options:       [...string]
	correctAnswer: int & >=0
	state?:        "locked" | "unlocked" | "completed"
	...
}

#Chapter: {
	id:           string & !=""
	title:        string
	description?: string
	order?:       int
	questions:    [...#Question]
	...
}
`, "#Chapter")

// DocumentID implements docstore.Record.
func (c *Chapter) DocumentID() string { return c.ID }

// ToDocument implements docstore.Record.
func (c *Chapter) ToDocument() docstore.Document {
	d := make(docstore.Document, len(chapterFields)+len(c.Extra))
	maps.Copy(d, c.Extra)
	d["id"] = c.ID
	d["title"] = c.Title
	d["description"] = c.Description
	d["questions"] = QuestionDocuments(c.Questions)
	if c.Order != 0 {
		d["order"] = c.Order
	}
	return d
}

// FromDocument implements docstore.Record.
func (c *Chapter) FromDocument(d docstore.Document) error {
	var (
		out Chapter
		err error
	)
	if out.ID, err = d.String("id"); err != nil {
		return err
	}
	if out.Title, err = d.OptString("title"); err != nil {
		return err
	}
	if out.Description, err = d.OptString("description"); err != nil {
		return err
	}
	if out.Order, _, err = d.OptInt("order"); err != nil {
		return err
	}
	objs, err := d.Objects("questions")
	if err != nil {
		return err
	}
	out.Questions = make([]Question, len(objs))
	for i, obj := range objs {
		if err := out.Questions[i].fromDocument(obj); err != nil {
			return prefixField(err, fmt.Sprintf("questions[%d]", i))
		}
	}
	out.Extra = unknownFields(d, chapterFields)
	*c = out
	return nil
}

// QuestionDocuments encodes questions in the embedded wire form.
func QuestionDocuments(qs []Question) []docstore.Document {
	out := make([]docstore.Document, len(qs))
	for i, q := range qs {
		state := q.State
		if state == "" {
			state = Locked
		}
		doc := make(docstore.Document, len(questionFields)+len(q.Extra))
		maps.Copy(doc, q.Extra)
		doc["id"] = q.ID
		doc["title"] = q.Title
		doc["questionText"] = q.Text
		doc["options"] = append([]string{}, q.Options...)
		doc["correctAnswer"] = q.CorrectAnswer
		doc["state"] = string(state)
		out[i] = doc
	}
	return out
}

// QuestionsPatch is the partial update that rewrites only the embedded questions.
func (c Chapter) QuestionsPatch() docstore.Document {
	return docstore.Document{"questions": QuestionDocuments(c.Questions)}
}

func (q *Question) fromDocument(d docstore.Document) error {
	var (
		out Question
		err error
	)
	if out.ID, err = d.String("id"); err != nil {
		return err
	}
	if out.Title, err = d.OptString("title"); err != nil {
		return err
	}
	if out.Text, err = d.OptString("questionText"); err != nil {
		return err
	}
	if out.Options, err = d.Strings("options"); err != nil {
		return err
	}
	if out.CorrectAnswer, err = d.Int("correctAnswer"); err != nil {
		return err
	}
	if out.CorrectAnswer < 0 || out.CorrectAnswer >= len(out.Options) {
		return docstore.Decode("correctAnswer",
			fmt.Errorf("index %d out of range for %d options", out.CorrectAnswer, len(out.Options)))
	}
	state, err := d.OptString("state")
	if err != nil {
		return err
	}
	out.State = QuestionState(state)
	if out.State == "" {
		out.State = Locked
	}
	if !out.State.Valid() {
		return docstore.Decode("state", fmt.Errorf("unknown state %q", state))
	}
	out.Extra = unknownFields(d, questionFields)
	*q = out
	return nil
}

// Clone returns a deep copy of the chapter.
func (c Chapter) Clone() Chapter {
	out := c
	out.Questions = make([]Question, len(c.Questions))
	for i, q := range c.Questions {
		q.Options = append([]string(nil), q.Options...)
		q.Extra = q.Extra.Clone()
		out.Questions[i] = q
	}
	out.Extra = c.Extra.Clone()
	return out
}

// Question returns the question with the given id.
func (c Chapter) Question(id string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// IsCorrect reports whether selected is the correct option index.
func (q Question) IsCorrect(selected int) bool {
	return selected == q.CorrectAnswer
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectAnswer]
}

// unknownFields returns the fields of d not listed in known, or nil.
func unknownFields(d docstore.Document, known []string) docstore.Document {
	var out docstore.Document
	for k, v := range d {
		if slices.Contains(known, k) {
			continue
		}
		if out == nil {
			out = docstore.Document{}
		}
		out[k] = v
	}
	return out
}

func prefixField(err error, prefix string) error {
	if se, ok := err.(*docstore.Error); ok && se.Code == docstore.ErrCodeDecode {
		cp := *se
		if cp.Field == "" {
			cp.Field = prefix
		} else {
			cp.Field = prefix + "." + cp.Field
		}
		return &cp
	}
	return err
}
