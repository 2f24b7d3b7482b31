package rag

import (
	"context"
	"hash/fnv"
	"math"
	"unicode"
)

// HashEmbedder is a deterministic, offline Embedder. It hashes rune trigrams
// into a fixed number of buckets and L2-normalizes the result. It carries no
// semantics beyond surface overlap and exists for local runs and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder producing vectors of the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dim: dimension}
}

// GetModel returns the embedding model identifier
func (h *HashEmbedder) GetModel() string {
	return "hash-trigram"
}

// GetDimension returns the embedding vector dimension
func (h *HashEmbedder) GetDimension() int {
	return h.dim
}

// Embed hashes each text into a vector.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		records[i] = EmbeddingRecord{
			Text:      text,
			Embedding: h.vector(text),
			Index:     i,
			Model:     h.GetModel(),
		}
	}
	return records, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float64, h.dim)

	runes := make([]rune, 0, len(text))
	for _, r := range NormalizeText(text) {
		if unicode.IsSpace(r) {
			r = ' '
		}
		runes = append(runes, unicode.ToLower(r))
	}

	add := func(gram []rune) {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(string(gram)))
		sum := hasher.Sum32()
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		vec[int(sum>>1)%h.dim] += sign
	}

	if len(runes) < 3 {
		if len(runes) > 0 {
			add(runes)
		}
	} else {
		for i := 0; i+3 <= len(runes); i++ {
			add(runes[i : i+3])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
