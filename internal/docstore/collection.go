package docstore

import (
	"context"
)

// Backend is the collection-addressed wire contract of a document store.
// Every method is fallible; implementations report failures as *Error.
type Backend interface {
	// FetchAll returns every document in the collection, keyed by id.
	// Ordering is backend-defined; callers that need an order sort explicitly.
	FetchAll(ctx context.Context, collection string) ([]Stored, error)

	// Fetch returns one document. NOT_FOUND if absent.
	Fetch(ctx context.Context, collection, id string) (Document, error)

	// Set writes the whole document at id, creating or overwriting it.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Insert writes the document at id only if none exists there and
	// reports whether it was written. An existing document is left untouched.
	Insert(ctx context.Context, collection, id string, doc Document) (bool, error)

	// Replace overwrites an existing document. NOT_FOUND if absent.
	Replace(ctx context.Context, collection, id string, doc Document) error

	// Merge overwrites only the given top-level fields of an existing document.
	// NOT_FOUND if absent.
	Merge(ctx context.Context, collection, id string, fields Document) error
}

// Stored pairs a document with its id.
type Stored struct {
	ID  string
	Doc Document
}

// Collection provides typed access to one named collection.
//
// T is the record value type; PT is its pointer type, which carries the
// Record methods. Declared as Collection[Chapter, *Chapter] by callers, or
// built with NewCollection which infers PT.
type Collection[T any, PT interface {
	*T
	Record
}] struct {
	backend Backend
	name    string
	schema  *Schema
}

// CollectionOption configures a Collection.
type CollectionOption func(*collectionConfig)

type collectionConfig struct {
	schema *Schema
}

// WithSchema validates every fetched document against schema before decoding.
func WithSchema(schema *Schema) CollectionOption {
	return func(c *collectionConfig) {
		c.schema = schema
	}
}

// NewCollection creates a typed collection over a backend.
func NewCollection[T any, PT interface {
	*T
	Record
}](backend Backend, name string, opts ...CollectionOption) *Collection[T, PT] {
	cfg := &collectionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Collection[T, PT]{backend: backend, name: name, schema: cfg.schema}
}

// Name returns the collection name.
func (c *Collection[T, PT]) Name() string {
	return c.name
}

// FetchAll returns every record in the collection.
// A single undecodable document fails the whole call.
func (c *Collection[T, PT]) FetchAll(ctx context.Context) ([]T, error) {
	stored, err := c.backend.FetchAll(ctx, c.name)
	if err != nil {
		return nil, locate(err, ErrCodeTransport, "fetchAll", c.name, "")
	}
	out := make([]T, 0, len(stored))
	for _, s := range stored {
		rec, err := c.decode(s.Doc)
		if err != nil {
			return nil, locate(err, ErrCodeDecode, "fetchAll", c.name, s.ID)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchByID returns the record stored at id.
func (c *Collection[T, PT]) FetchByID(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := c.backend.Fetch(ctx, c.name, id)
	if err != nil {
		return zero, locate(err, ErrCodeTransport, "fetch", c.name, id)
	}
	rec, err := c.decode(doc)
	if err != nil {
		return zero, locate(err, ErrCodeDecode, "fetch", c.name, id)
	}
	return rec, nil
}

// Create writes a full record at id. Repeated creates overwrite.
func (c *Collection[T, PT]) Create(ctx context.Context, id string, rec T) error {
	if err := c.backend.Set(ctx, c.name, id, PT(&rec).ToDocument()); err != nil {
		return locate(err, ErrCodeTransport, "create", c.name, id)
	}
	return nil
}

// CreateIfAbsent writes rec at id unless a document is already stored there.
// It reports whether rec was written.
func (c *Collection[T, PT]) CreateIfAbsent(ctx context.Context, id string, rec T) (bool, error) {
	created, err := c.backend.Insert(ctx, c.name, id, PT(&rec).ToDocument())
	if err != nil {
		return false, locate(err, ErrCodeTransport, "insert", c.name, id)
	}
	return created, nil
}

// Update replaces the full record at id. The document must exist.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, rec T) error {
	if err := c.backend.Replace(ctx, c.name, id, PT(&rec).ToDocument()); err != nil {
		return locate(err, ErrCodeTransport, "update", c.name, id)
	}
	return nil
}

// UpdateFields merges the given top-level fields into the document at id,
// leaving all other fields untouched. The document must exist.
func (c *Collection[T, PT]) UpdateFields(ctx context.Context, id string, fields Document) error {
	if err := c.backend.Merge(ctx, c.name, id, fields); err != nil {
		return locate(err, ErrCodeTransport, "merge", c.name, id)
	}
	return nil
}

func (c *Collection[T, PT]) decode(doc Document) (T, error) {
	var rec T
	if err := c.schema.Validate(doc); err != nil {
		return rec, err
	}
	if err := PT(&rec).FromDocument(doc); err != nil {
		return rec, err
	}
	return rec, nil
}
