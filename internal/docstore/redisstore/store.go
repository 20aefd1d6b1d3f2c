// Package redisstore is a docstore.Backend on Redis.
//
// Each collection is one hash at "<prefix>:<collection>"; the hash field is
// the document id and the value is the canonical JSON document. Writes that
// require the document to exist run as optimistic WATCH transactions.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/roach88/coursesync/internal/docstore"
)

// DefaultPrefix namespaces collection keys.
const DefaultPrefix = "coursesync"

// Store is a Redis-backed document store.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// Open connects to Redis at addr and verifies the connection.
func Open(addr, prefix string) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Store{rdb: rdb, prefix: prefix}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) key(collection string) string {
	return s.prefix + ":" + collection
}

// FetchAll implements docstore.Backend. Documents are returned ordered by id.
func (s *Store) FetchAll(ctx context.Context, collection string) ([]docstore.Stored, error) {
	all, err := s.rdb.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, docstore.Transport("fetchAll", collection, "", err)
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]docstore.Stored, 0, len(ids))
	for _, id := range ids {
		doc, err := docstore.DecodeCanonical([]byte(all[id]))
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Stored{ID: id, Doc: doc})
	}
	return out, nil
}

// Fetch implements docstore.Backend.
func (s *Store) Fetch(ctx context.Context, collection, id string) (docstore.Document, error) {
	raw, err := s.rdb.HGet(ctx, s.key(collection), id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, docstore.NotFound("fetch", collection, id)
	}
	if err != nil {
		return nil, docstore.Transport("fetch", collection, id, err)
	}
	return docstore.DecodeCanonical([]byte(raw))
}

// Set implements docstore.Backend.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}
	if err := s.rdb.HSet(ctx, s.key(collection), id, string(data)).Err(); err != nil {
		return docstore.Transport("set", collection, id, err)
	}
	return nil
}

// Insert implements docstore.Backend.
func (s *Store) Insert(ctx context.Context, collection, id string, doc docstore.Document) (bool, error) {
	data, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return false, docstore.Decode("", err)
	}
	created, err := s.rdb.HSetNX(ctx, s.key(collection), id, string(data)).Result()
	if err != nil {
		return false, docstore.Transport("insert", collection, id, err)
	}
	return created, nil
}

// Replace implements docstore.Backend.
func (s *Store) Replace(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}
	return s.update(ctx, "replace", collection, id, func(docstore.Document) ([]byte, error) {
		return data, nil
	})
}

// Merge implements docstore.Backend.
func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	return s.update(ctx, "merge", collection, id, func(current docstore.Document) ([]byte, error) {
		data, err := docstore.EncodeCanonical(current.Merge(fields))
		if err != nil {
			return nil, docstore.Decode("", err)
		}
		return data, nil
	})
}

// update performs a WATCH/MULTI read-modify-write on one hash field.
// A concurrent writer aborts the transaction with TxFailedErr, which is
// reported as a transport failure so the retry layer can try again.
func (s *Store) update(ctx context.Context, op, collection, id string, next func(docstore.Document) ([]byte, error)) error {
	key := s.key(collection)

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, goredis.Nil) {
			return docstore.NotFound(op, collection, id)
		}
		if err != nil {
			return err
		}
		current, err := docstore.DecodeCanonical([]byte(raw))
		if err != nil {
			return err
		}
		data, err := next(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, id, string(data))
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txf, key)
	if err == nil {
		return nil
	}
	var se *docstore.Error
	if errors.As(err, &se) {
		return err
	}
	return docstore.Transport(op, collection, id, err)
}
