package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// DefaultTopK is the number of context fragments the chat retrieves per turn.
const DefaultTopK = 3

// Retriever ranks stored entries against a free-text query.
type Retriever struct {
	embedder Embedder
	store    KnowledgeStore
	minScore float64
}

// RetrieverOption customizes a Retriever.
type RetrieverOption func(*Retriever)

// WithMinScore drops entries scoring below min. Without it every entry is a candidate.
func WithMinScore(min float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = min
	}
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, store KnowledgeStore, opts ...RetrieverOption) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("knowledge store cannot be nil")
	}

	r := &Retriever{
		embedder: embedder,
		store:    store,
		minScore: math.Inf(-1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retrieve returns the texts of the k most similar entries joined by a blank line.
// An empty store, or one where nothing clears the minimum score, yields "".
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	chunks, err := r.RetrieveChunks(ctx, query, k)
	if err != nil {
		return "", err
	}
	return JoinContexts(chunks), nil
}

// RetrieveChunks embeds the query, scores every stored entry and returns up to k
// chunks in descending score. Equal scores keep insertion order.
func (r *Retriever) RetrieveChunks(ctx context.Context, query string, k int) ([]ContextChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTopK, k)
	}

	queryVector, err := EmbedOne(ctx, r.embedder, NormalizeText(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return r.RetrieveByVector(ctx, queryVector, k)
}

// RetrieveByVector ranks stored entries against an already embedded query.
func (r *Retriever) RetrieveByVector(ctx context.Context, queryVector []float32, k int) ([]ContextChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTopK, k)
	}

	if searcher, ok := r.store.(Searcher); ok {
		chunks, err := searcher.Search(ctx, queryVector, k)
		if err != nil {
			return nil, fmt.Errorf("failed to search knowledge store: %w", err)
		}
		return r.cut(chunks, k), nil
	}

	entries, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge store: %w", err)
	}

	return r.rank(queryVector, entries, k)
}

// rank is the linear scan: score everything, stable sort, take k.
func (r *Retriever) rank(queryVector []float32, entries []ContextEntry, k int) ([]ContextChunk, error) {
	chunks := make([]ContextChunk, 0, len(entries))
	for _, entry := range entries {
		score, err := CosineSimilarity(queryVector, entry.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring entry %s: %w", entry.ID, err)
		}
		chunks = append(chunks, ContextChunk{
			EntryID: entry.ID,
			Kind:    entry.Kind,
			Text:    entry.Context,
			Score:   score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })

	return r.cut(chunks, k), nil
}

// cut applies the minimum score and the k limit to an already sorted slice.
func (r *Retriever) cut(sorted []ContextChunk, k int) []ContextChunk {
	out := make([]ContextChunk, 0, min(k, len(sorted)))
	for _, ch := range sorted {
		if ch.Score < r.minScore {
			// sorted descending: nothing after this clears the bar either
			break
		}
		out = append(out, ch)
		if len(out) == k {
			break
		}
	}
	return out
}
