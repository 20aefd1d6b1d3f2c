// Package sqlstore is a docstore.Backend on a SQL database.
//
// Two drivers are supported:
//   - sqlite3 (github.com/mattn/go-sqlite3): local file database
//   - postgres (github.com/lib/pq): shared deployment
//
// All collections live in one documents table keyed by (collection, id).
// Queries are written with ? placeholders and rebound per driver by sqlx.
//
// # SQLite configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single open connection (one writer at a time)
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/coursesync/internal/docstore"
)

//go:embed schema.sql
var schemaSQL string

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is a SQL-backed document store.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type row struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

// Open connects to the database and applies the schema.
// This function is idempotent - safe to call multiple times on the same database.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// FetchAll implements docstore.Backend. Rows are ordered by id.
func (s *Store) FetchAll(ctx context.Context, collection string) ([]docstore.Stored, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, data FROM documents
		WHERE collection = ?
		ORDER BY id ASC
	`), collection)
	if err != nil {
		return nil, docstore.Transport("fetchAll", collection, "", err)
	}

	out := make([]docstore.Stored, 0, len(rows))
	for _, r := range rows {
		doc, err := docstore.DecodeCanonical([]byte(r.Data))
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Stored{ID: r.ID, Doc: doc})
	}
	return out, nil
}

// Fetch implements docstore.Backend.
func (s *Store) Fetch(ctx context.Context, collection, id string) (docstore.Document, error) {
	return fetch(ctx, s.db, collection, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// fetch reads one document through either the database or an open transaction.
func fetch(ctx context.Context, q queryer, collection, id string) (docstore.Document, error) {
	var r row
	err := sqlx.GetContext(ctx, q, &r, q.Rebind(`
		SELECT id, data FROM documents
		WHERE collection = ? AND id = ?
	`), collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.NotFound("fetch", collection, id)
	}
	if err != nil {
		return nil, docstore.Transport("fetch", collection, id, err)
	}
	return docstore.DecodeCanonical([]byte(r.Data))
}

// Set implements docstore.Backend. Uses an upsert so repeated creates overwrite.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = excluded.data, updated_at = excluded.updated_at
	`), collection, id, string(data), s.timestamp())
	if err != nil {
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

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO NOTHING
	`), collection, id, string(data), s.timestamp())
	if err != nil {
		return false, docstore.Transport("insert", collection, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, docstore.Transport("insert", collection, id, err)
	}
	return n == 1, nil
}

// Replace implements docstore.Backend.
func (s *Store) Replace(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.EncodeCanonical(doc)
	if err != nil {
		return docstore.Decode("", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE documents SET data = ?, updated_at = ?
		WHERE collection = ? AND id = ?
	`), string(data), s.timestamp(), collection, id)
	if err != nil {
		return docstore.Transport("replace", collection, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return docstore.Transport("replace", collection, id, err)
	}
	if n == 0 {
		return docstore.NotFound("replace", collection, id)
	}
	return nil
}

// Merge implements docstore.Backend.
// The read-modify-write runs in one transaction so concurrent merges on
// different fields of the same document do not clobber each other.
func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return docstore.Transport("merge", collection, id, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	current, err := fetch(ctx, tx, collection, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return docstore.NotFound("merge", collection, id)
		}
		return err
	}

	data, err := docstore.EncodeCanonical(current.Merge(fields))
	if err != nil {
		return docstore.Decode("", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE documents SET data = ?, updated_at = ?
		WHERE collection = ? AND id = ?
	`), string(data), s.timestamp(), collection, id)
	if err != nil {
		return docstore.Transport("merge", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return docstore.Transport("merge", collection, id, fmt.Errorf("commit: %w", err))
	}
	return nil
}
