package rag

import (
	"context"
	"sync"
)

// MemoryStore is an in-process KnowledgeStore. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []ContextEntry
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// EnsureInitialized is a no-op; the store exists from construction.
func (m *MemoryStore) EnsureInitialized(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

// Append adds an entry at the end of the collection.
func (m *MemoryStore) Append(ctx context.Context, entry ContextEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	established := 0
	if len(m.entries) > 0 {
		established = m.entries[0].Dimension()
	}
	if err := checkDimension(established, entry); err != nil {
		return err
	}

	m.entries = append(m.entries, cloneEntry(entry))
	return nil
}

// ReadAll returns a copy of every entry in insertion order.
func (m *MemoryStore) ReadAll(ctx context.Context) ([]ContextEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]ContextEntry, len(m.entries))
	for i, e := range m.entries {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

// Len reports the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func cloneEntry(e ContextEntry) ContextEntry {
	emb := make([]float32, len(e.Embedding))
	copy(emb, e.Embedding)
	e.Embedding = emb
	return e
}
