package curriculum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/coursesync/internal/docstore"
)

// ResourcesCollection is the collection holding reference topics.
const ResourcesCollection = "resources"

// ResourceTopic is read-only reference material shown alongside the course.
type ResourceTopic struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	IconName    string         `json:"iconName"`
	Content     []ResourceItem `json:"content"`
}

// ResourceItem is one article within a topic.
type ResourceItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ResourceSchema is the shape accepted for resource documents.
var ResourceSchema = docstore.MustCompileSchema(`
#Resource: {
	id:           string & !=""
	title:        string
	description?: string
	iconName?:    string
	content?: [...{id: string, title: string, content: string, ...}]
	...
}
`, "#Resource")

// DocumentID implements docstore.Record.
func (t *ResourceTopic) DocumentID() string { return t.ID }

// ToDocument implements docstore.Record.
func (t *ResourceTopic) ToDocument() docstore.Document {
	items := make([]docstore.Document, len(t.Content))
	for i, it := range t.Content {
		items[i] = docstore.Document{"id": it.ID, "title": it.Title, "content": it.Content}
	}
	return docstore.Document{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"iconName":    t.IconName,
		"content":     items,
	}
}

// FromDocument implements docstore.Record.
func (t *ResourceTopic) FromDocument(d docstore.Document) error {
	var (
		out ResourceTopic
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
	if out.IconName, err = d.OptString("iconName"); err != nil {
		return err
	}
	objs, err := d.Objects("content")
	if err != nil {
		return err
	}
	out.Content = make([]ResourceItem, len(objs))
	for i, obj := range objs {
		item := &out.Content[i]
		if item.ID, err = obj.String("id"); err != nil {
			return prefixField(err, fmt.Sprintf("content[%d]", i))
		}
		if item.Title, err = obj.OptString("title"); err != nil {
			return prefixField(err, fmt.Sprintf("content[%d]", i))
		}
		if item.Content, err = obj.OptString("content"); err != nil {
			return prefixField(err, fmt.Sprintf("content[%d]", i))
		}
	}
	*t = out
	return nil
}

// SortTopics orders topics in place by id.
func SortTopics(topics []ResourceTopic) {
	slices.SortFunc(topics, func(a, b ResourceTopic) int {
		return strings.Compare(a.ID, b.ID)
	})
}
