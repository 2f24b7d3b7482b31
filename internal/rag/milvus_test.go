package rag

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// TestDefaultMilvusConfig tests default configuration
func TestDefaultMilvusConfig(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")
	t.Setenv("MILVUS_DIMENSION", "")

	config := DefaultMilvusConfig()

	if config.Address != "localhost:19530" {
		t.Errorf("Expected default address, got %s", config.Address)
	}

	if config.CollectionName != "kural_knowledge" {
		t.Errorf("Expected collection kural_knowledge, got %s", config.CollectionName)
	}

	if config.Dimension != 1536 {
		t.Errorf("Expected dimension 1536, got %d", config.Dimension)
	}

	if config.IndexType != "HNSW" {
		t.Errorf("Expected index type HNSW, got %s", config.IndexType)
	}

	if config.MetricType != "COSINE" {
		t.Errorf("Expected metric type COSINE, got %s", config.MetricType)
	}
}

func TestDefaultMilvusConfig_FromEnv(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "milvus:19530")
	t.Setenv("MILVUS_COLLECTION", "poems")
	t.Setenv("MILVUS_DIMENSION", "384")

	config := DefaultMilvusConfig()
	if config.Address != "milvus:19530" || config.CollectionName != "poems" || config.Dimension != 384 {
		t.Errorf("environment not applied: %+v", config)
	}
}

func TestNewMilvusStore_InvalidDimension(t *testing.T) {
	config := DefaultMilvusConfig()
	config.Dimension = 0

	_, err := NewMilvusStore(context.Background(), config)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}

func TestMilvusStore_ClosedStore(t *testing.T) {
	store := &MilvusStore{config: DefaultMilvusConfig()}

	if err := store.EnsureInitialized(context.Background()); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on an unconnected store should be a no-op, got %v", err)
	}
}

// Integration test: Append, ReadAll, Search full workflow
func TestMilvusStore_Integration_FullWorkflow(t *testing.T) {
	if testing.Short() || os.Getenv("MILVUS_ADDRESS") == "" {
		t.Skip("Skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	config := DefaultMilvusConfig()
	config.CollectionName = "kural_test_" + time.Now().Format("20060102150405")
	config.Dimension = 4
	config.ConnectRetries = 1

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() {
		_ = store.client.DropCollection(ctx, config.CollectionName)
		store.Close()
	}()

	entries := []ContextEntry{
		NewContextEntry(KindPoemAnalysis, "poem bundle", []float32{1, 0, 0, 0}),
		NewContextEntry(KindChatMessage, "question one", []float32{0, 1, 0, 0}),
		NewContextEntry(KindChatMessage, "question two", []float32{0.9, 0.1, 0, 0}),
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		if got[i].ID != entries[i].ID {
			t.Errorf("entry %d out of order: %s", i, got[i].ID)
		}
	}

	chunks, err := store.Search(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Text != "poem bundle" {
		t.Errorf("unexpected search result: %+v", chunks)
	}
}
