package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sethvargo/go-retry"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 1536 for text-embedding-3-small)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
	EfSearch       int // HNSW ef at query time (default: 64)

	ConnectRetries int
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "kural_knowledge"
	}

	dimension := 1536 // Default for text-embedding-3-small
	if v := os.Getenv("MILVUS_DIMENSION"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			dimension = d
		}
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      dimension,
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
		EfSearch:       64,
		ConnectRetries: 5,
	}
}

// MilvusStore implements KnowledgeStore and Searcher using Milvus
type MilvusStore struct {
	client client.Client
	config MilvusConfig

	initMu sync.Mutex
	ready  bool
}

// NewMilvusStore creates a new Milvus store instance.
// Connects to Milvus, retrying while the server starts, and ensures the collection exists.
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	var c client.Client
	backoff := retry.WithMaxRetries(uint64(max(config.ConnectRetries, 0)), retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		c, err = client.NewGrpcClient(ctx, config.Address)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("connect", config.Address, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.EnsureInitialized(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// EnsureInitialized creates and loads the collection if needed
func (m *MilvusStore) EnsureInitialized(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.ready {
		return nil
	}
	if m.client == nil {
		return ErrStoreClosed
	}
	if err := m.ensureCollection(ctx); err != nil {
		return storageErr("init", m.config.CollectionName, err)
	}
	m.ready = true
	return nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !has {
		// seq is auto-assigned and increases with insertion time, which gives ReadAll its order
		schema := &entity.Schema{
			CollectionName: m.config.CollectionName,
			AutoID:         true,
			Fields: []*entity.Field{
				{
					Name:       "seq",
					DataType:   entity.FieldTypeInt64,
					PrimaryKey: true,
					AutoID:     true,
				},
				{
					Name:     "entry_id",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "128",
					},
				},
				{
					Name:     "kind",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "32",
					},
				},
				{
					Name:     "context",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "65535",
					},
				},
				{
					Name:     "embedding",
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", m.config.Dimension),
					},
				},
			},
		}

		if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
		if err != nil {
			return fmt.Errorf("failed to create index config: %w", err)
		}

		if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Loading an already loaded collection is a no-op
	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Append inserts one entry and flushes so it is visible to the next read
func (m *MilvusStore) Append(ctx context.Context, entry ContextEntry) error {
	if err := m.EnsureInitialized(ctx); err != nil {
		return err
	}
	if err := checkDimension(m.config.Dimension, entry); err != nil {
		return err
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("entry_id", []string{entry.ID}),
		entity.NewColumnVarChar("kind", []string{string(entry.Kind)}),
		entity.NewColumnVarChar("context", []string{entry.Context}),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, [][]float32{entry.Embedding}),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return storageErr("insert", m.config.CollectionName, fmt.Errorf("%w: %v", ErrInsertFailed, err))
	}

	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return storageErr("flush", m.config.CollectionName, err)
	}

	return nil
}

// ReadAll queries every row and returns them ordered by seq
func (m *MilvusStore) ReadAll(ctx context.Context) ([]ContextEntry, error) {
	if err := m.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"seq >= 0",
		[]string{"seq", "entry_id", "kind", "context", "embedding"},
	)
	if err != nil {
		return nil, storageErr("query", m.config.CollectionName, err)
	}

	var (
		seqs     []int64
		ids      []string
		kinds    []string
		contexts []string
		vectors  [][]float32
	)
	for _, column := range results {
		switch col := column.(type) {
		case *entity.ColumnInt64:
			if col.Name() == "seq" {
				seqs = col.Data()
			}
		case *entity.ColumnVarChar:
			switch col.Name() {
			case "entry_id":
				ids = col.Data()
			case "kind":
				kinds = col.Data()
			case "context":
				contexts = col.Data()
			}
		case *entity.ColumnFloatVector:
			vectors = col.Data()
		}
	}

	n := len(seqs)
	if len(ids) != n || len(kinds) != n || len(contexts) != n || len(vectors) != n {
		return nil, storageErr("query", m.config.CollectionName, errors.New("incomplete result columns"))
	}

	type row struct {
		seq   int64
		entry ContextEntry
	}
	rows := make([]row, n)
	for i := 0; i < n; i++ {
		rows[i] = row{
			seq: seqs[i],
			entry: ContextEntry{
				ID:        ids[i],
				Kind:      Kind(kinds[i]),
				Context:   contexts[i],
				Embedding: vectors[i],
			},
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	entries := make([]ContextEntry, n)
	for i, r := range rows {
		entries[i] = r.entry
	}
	return entries, nil
}

// Search performs top-K similarity search over the HNSW index
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int) ([]ContextChunk, error) {
	if err := m.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.config.Dimension, len(queryVector))
	}

	ef := m.config.EfSearch
	if ef < topK {
		ef = topK
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	outputFields := []string{"entry_id", "kind", "context"}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",  // no filter
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, storageErr("search", m.config.CollectionName, fmt.Errorf("%w: %v", ErrSearchFailed, err))
	}

	if len(results) == 0 {
		return []ContextChunk{}, nil
	}

	chunks := make([]ContextChunk, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		chunk := ContextChunk{
			Score: float64(results[0].Scores[i]),
		}

		for _, field := range results[0].Fields {
			col, ok := field.(*entity.ColumnVarChar)
			if !ok {
				continue
			}
			switch field.Name() {
			case "entry_id":
				chunk.EntryID = col.Data()[i]
			case "kind":
				chunk.Kind = Kind(col.Data()[i])
			case "context":
				chunk.Text = col.Data()[i]
			}
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.client != nil {
		err := m.client.Close()
		m.client = nil
		return err
	}
	return nil
}
