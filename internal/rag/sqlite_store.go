package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS context_entries (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    kind       TEXT NOT NULL,
    context    TEXT NOT NULL,
    dim        INTEGER NOT NULL,
    embedding  BLOB NOT NULL,
    created_at TEXT NOT NULL
)`

// SQLiteStore keeps entries in an embedded SQLite database. Appends are single
// INSERTs inside a transaction, so there is no whole-dataset rewrite.
type SQLiteStore struct {
	db   *sql.DB
	path string

	initMu sync.Mutex
	ready  bool
}

// NewSQLiteStore opens (or creates) the database at path and applies pragmas.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("mkdir", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open", path, err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, storageErr("open", path, fmt.Errorf("apply pragma %q: %w", pragma, err))
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// EnsureInitialized creates the entries table. A failed attempt is retried on the next call.
func (s *SQLiteStore) EnsureInitialized(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return storageErr("migrate", s.path, err)
	}
	s.ready = true
	return nil
}

// Append inserts one entry after checking it against the stored dimension.
func (s *SQLiteStore) Append(ctx context.Context, entry ContextEntry) error {
	if err := s.EnsureInitialized(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", s.path, err)
	}
	defer tx.Rollback()

	var established int
	err = tx.QueryRowContext(ctx, `SELECT dim FROM context_entries ORDER BY seq LIMIT 1`).Scan(&established)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storageErr("read", s.path, err)
	}
	if err := checkDimension(established, entry); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO context_entries (id, kind, context, dim, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Kind),
		entry.Context,
		entry.Dimension(),
		packEmbedding(entry.Embedding),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr("insert", s.path, err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", s.path, err)
	}
	return nil
}

// ReadAll returns every entry ordered by insertion sequence.
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]ContextEntry, error) {
	if err := s.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, context, embedding FROM context_entries ORDER BY seq`)
	if err != nil {
		return nil, storageErr("read", s.path, err)
	}
	defer rows.Close()

	entries := []ContextEntry{}
	for rows.Next() {
		var (
			e    ContextEntry
			kind string
			blob []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.Context, &blob); err != nil {
			return nil, storageErr("scan", s.path, err)
		}
		e.Kind = Kind(kind)
		e.Embedding = unpackEmbedding(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read", s.path, err)
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func packEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func unpackEmbedding(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
