package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// DefaultKnowledgeBasePath is the file used when no path is configured.
const DefaultKnowledgeBasePath = "knowledge_base.json"

// JSONFileStore keeps the whole knowledge base as one JSON array in a file.
//
// Every Append reads the full array, appends one element and rewrites the file.
// The read-modify-write is serialized by an in-process mutex and an advisory
// lock file (<path>.lock), so concurrent appends from goroutines or from other
// processes sharing the file cannot drop each other's entries.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock

	lockRetryDelay time.Duration
}

// NewJSONFileStore creates a store backed by the file at path. The file is not
// touched until the first operation.
func NewJSONFileStore(path string) *JSONFileStore {
	if path == "" {
		path = DefaultKnowledgeBasePath
	}
	return &JSONFileStore{
		path:           path,
		lock:           flock.New(path + ".lock"),
		lockRetryDelay: 25 * time.Millisecond,
	}
}

// Path returns the backing file path.
func (s *JSONFileStore) Path() string {
	return s.path
}

// EnsureInitialized creates the file with an empty array if it does not exist.
func (s *JSONFileStore) EnsureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.ensureFile()
}

// Append reads the collection, appends entry and writes the collection back.
func (s *JSONFileStore) Append(ctx context.Context, entry ContextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.ensureFile(); err != nil {
		return err
	}

	entries, err := s.load()
	if err != nil {
		return err
	}

	established := 0
	if len(entries) > 0 {
		established = entries[0].Dimension()
	}
	if err := checkDimension(established, entry); err != nil {
		return err
	}

	entries = append(entries, entry)
	return s.save(entries)
}

// ReadAll returns every stored entry in insertion order.
func (s *JSONFileStore) ReadAll(ctx context.Context) ([]ContextEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s.load()
}

// Close releases the lock file handle.
func (s *JSONFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Close()
}

// acquire takes the cross-process lock, waiting until ctx is done.
func (s *JSONFileStore) acquire(ctx context.Context) (func(), error) {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("mkdir", dir, err)
		}
	}

	ok, err := s.lock.TryLockContext(ctx, s.lockRetryDelay)
	if err != nil {
		return nil, storageErr("lock", s.lock.Path(), err)
	}
	if !ok {
		return nil, storageErr("lock", s.lock.Path(), errors.New("lock not acquired"))
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func (s *JSONFileStore) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return storageErr("stat", s.path, err)
	}
	return s.save([]ContextEntry{})
}

func (s *JSONFileStore) load() ([]ContextEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, storageErr("read", s.path, err)
	}

	var entries []ContextEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, storageErr("decode", s.path, err)
	}
	if entries == nil {
		// a literal "null" in the file
		entries = []ContextEntry{}
	}
	return entries, nil
}

// save writes to a temp file in the same directory and renames it over the
// target, so a crash mid-write never leaves a truncated array behind.
func (s *JSONFileStore) save(entries []ContextEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return storageErr("encode", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return storageErr("write", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return storageErr("write", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return storageErr("write", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return storageErr("write", s.path, fmt.Errorf("rename temp file: %w", err))
	}
	return nil
}
