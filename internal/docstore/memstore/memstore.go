// Package memstore is an in-process docstore.Backend.
//
// Documents are held as canonical JSON bytes so every read and write goes
// through the same codec as the durable backends. Failures can be injected
// per operation for exercising retry and queue behavior.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/coursesync/internal/docstore"
)

// Operation names accepted by FailNext and Calls.
const (
	OpFetchAll = "fetchAll"
	OpFetch    = "fetch"
	OpSet      = "set"
	OpInsert   = "insert"
	OpReplace  = "replace"
	OpMerge    = "merge"
)

type injected struct {
	remaining int
	err       error
}

// Store is a mutex-guarded map of collections to documents.
type Store struct {
	mu      sync.Mutex
	data    map[string]map[string][]byte
	faults  map[string]*injected
	calls   map[string]int
	latency time.Duration
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data:   make(map[string]map[string][]byte),
		faults: make(map[string]*injected),
		calls:  make(map[string]int),
	}
}

// SetLatency makes every call sleep for d before touching data.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// FailNext makes the next n calls of op fail with err.
// A nil err injects a generic transport failure.
func (s *Store) FailNext(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("injected %s failure", op)
	}
	s.faults[op] = &injected{remaining: n, err: err}
}

// Calls returns how many times op has been invoked, including failed calls.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Put stores raw bytes without validation. Used to plant malformed payloads in tests.
func (s *Store) Put(collection, id string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(collection)[id] = raw
}

// Len returns the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[collection])
}

// begin records the call and returns an injected failure, if any.
// Latency is applied outside the lock so concurrent calls overlap.
func (s *Store) begin(ctx context.Context, op, collection, id string) error {
	s.mu.Lock()
	s.calls[op]++
	latency := s.latency
	var err error
	if f := s.faults[op]; f != nil && f.remaining > 0 {
		f.remaining--
		err = f.err
	}
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return docstore.Transport(op, collection, id, ctx.Err())
		}
	}
	if err != nil {
		return docstore.Transport(op, collection, id, err)
	}
	return nil
}

func (s *Store) coll(name string) map[string][]byte {
	c, ok := s.data[name]
	if !ok {
		c = make(map[string][]byte)
		s.data[name] = c
	}
	return c
}

// FetchAll implements docstore.Backend. Documents are returned ordered by id.
func (s *Store) FetchAll(ctx context.Context, collection string) ([]docstore.Stored, error) {
	if err := s.begin(ctx, OpFetchAll, collection, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	ids := make([]string, 0, len(s.data[collection]))
	raws := make(map[string][]byte, len(s.data[collection]))
	for id, raw := range s.data[collection] {
		ids = append(ids, id)
		raws[id] = raw
	}
	s.mu.Unlock()

	slices.SortFunc(ids, strings.Compare)
	out := make([]docstore.Stored, 0, len(ids))
	for _, id := range ids {
		doc, err := docstore.DecodeCanonical(raws[id])
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Stored{ID: id, Doc: doc})
	}
	return out, nil
}

// Fetch implements docstore.Backend.
func (s *Store) Fetch(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := s.begin(ctx, OpFetch, collection, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	raw, ok := s.data[collection][id]
	s.mu.Unlock()
	if !ok {
		return nil, docstore.NotFound(OpFetch, collection, id)
	}
	return docstore.DecodeCanonical(raw)
}

// Set implements docstore.Backend.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	if err := s.begin(ctx, OpSet, collection, id); err != nil {
		return err
	}
	raw, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(collection)[id] = raw
	return nil
}

// Insert implements docstore.Backend.
func (s *Store) Insert(ctx context.Context, collection, id string, doc docstore.Document) (bool, error) {
	if err := s.begin(ctx, OpInsert, collection, id); err != nil {
		return false, err
	}
	raw, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return false, docstore.Decode("", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, ok := c[id]; ok {
		return false, nil
	}
	c[id] = raw
	return true, nil
}

// Replace implements docstore.Backend.
func (s *Store) Replace(ctx context.Context, collection, id string, doc docstore.Document) error {
	if err := s.begin(ctx, OpReplace, collection, id); err != nil {
		return err
	}
	raw, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[collection][id]; !ok {
		return docstore.NotFound(OpReplace, collection, id)
	}
	s.data[collection][id] = raw
	return nil
}

// Merge implements docstore.Backend.
func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	if err := s.begin(ctx, OpMerge, collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[collection][id]
	if !ok {
		return docstore.NotFound(OpMerge, collection, id)
	}
	current, err := docstore.DecodeCanonical(raw)
	if err != nil {
		return err
	}
	merged, err := docstore.EncodeCanonical(current.Merge(fields))
	if err != nil {
		return docstore.Decode("", err)
	}
	s.data[collection][id] = merged
	return nil
}
