package rag

import (
	"context"

	"github.com/google/uuid"
)

// Kind tags the provenance of a stored context entry.
type Kind string

const (
	// KindPoemAnalysis marks a serialized poem + analysis bundle.
	KindPoemAnalysis Kind = "poem-analysis"

	// KindChatMessage marks a raw user utterance from the chat.
	KindChatMessage Kind = "chat-message"
)

// ContextEntry is one retrievable unit of text together with its embedding.
// The JSON layout is the on-disk layout of the knowledge base file.
type ContextEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Context   string    `json:"context"`
	Embedding []float32 `json:"embedding"`
}

// Dimension returns the length of the entry's embedding.
func (e ContextEntry) Dimension() int {
	return len(e.Embedding)
}

// NewEntryID returns an identifier of the form "<kind>-<uuid>".
func NewEntryID(kind Kind) string {
	return string(kind) + "-" + uuid.NewString()
}

// NewContextEntry builds an entry with a freshly generated ID.
func NewContextEntry(kind Kind, text string, embedding []float32) ContextEntry {
	return ContextEntry{
		ID:        NewEntryID(kind),
		Kind:      kind,
		Context:   text,
		Embedding: embedding,
	}
}

// ContextChunk is a stored entry paired with its similarity to a query.
type ContextChunk struct {
	EntryID string  `json:"entry_id"`
	Kind    Kind    `json:"type"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// KnowledgeStore is the persistent, append-only collection of context entries.
// Implementations preserve insertion order and never reorder or delete entries.
type KnowledgeStore interface {
	// EnsureInitialized creates the backing storage if it does not exist yet.
	// It is idempotent and safe to call on every request.
	EnsureInitialized(ctx context.Context) error

	// Append adds one entry at the end of the collection.
	Append(ctx context.Context, entry ContextEntry) error

	// ReadAll returns every stored entry in insertion order.
	ReadAll(ctx context.Context) ([]ContextEntry, error)

	// Close releases resources held by the store.
	Close() error
}

// Searcher is implemented by stores that can rank entries themselves,
// typically through an approximate-nearest-neighbor index.
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, topK int) ([]ContextChunk, error)
}

// Stats summarizes the contents of a knowledge store.
type Stats struct {
	Entries   int          `json:"entries"`
	Dimension int          `json:"dimension"`
	Kinds     map[Kind]int `json:"kinds"`
}

// CollectStats reads the whole store and counts entries per kind.
func CollectStats(ctx context.Context, store KnowledgeStore) (Stats, error) {
	entries, err := store.ReadAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Entries: len(entries),
		Kinds:   make(map[Kind]int),
	}
	for _, e := range entries {
		stats.Kinds[e.Kind]++
	}
	if len(entries) > 0 {
		stats.Dimension = entries[0].Dimension()
	}
	return stats, nil
}
