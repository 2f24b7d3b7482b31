package rag

import (
	"errors"
	"fmt"
)

// Common errors for knowledge store and retrieval operations
var (
	ErrStorage           = errors.New("knowledge store failure")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidTopK       = errors.New("topK must be positive")
	ErrStoreClosed       = errors.New("knowledge store is closed")
)

// StorageError reports a failed operation against a store's backing resource.
type StorageError struct {
	Op   string // operation that failed, e.g. "read", "write", "decode"
	Path string // file path, key or collection name
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("knowledge store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("knowledge store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match any *StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// checkDimension verifies that an incoming entry matches the store's established dimension.
// A dimension of 0 means the store is empty and accepts anything.
func checkDimension(established int, entry ContextEntry) error {
	if established == 0 || established == entry.Dimension() {
		return nil
	}
	return fmt.Errorf("%w: store holds %d-dimensional embeddings, entry %s has %d",
		ErrDimensionMismatch, established, entry.ID, entry.Dimension())
}
