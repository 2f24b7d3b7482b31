package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEmbedder(); err != nil {
		return err
	}
	if c.Retrieval.TopK < 1 {
		return errors.New("retrieval.top_k must be at least 1")
	}
	if ms := c.Retrieval.MinScore; ms != nil && (*ms < -1 || *ms > 1) {
		return errors.New("retrieval.min_score must be between -1 and 1")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("log.format %q must be auto, text or json", c.Log.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	c.Store.Type = strings.ToLower(strings.TrimSpace(c.Store.Type))
	switch c.Store.Type {
	case StoreJSON, StoreSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path must be set for the %s store", c.Store.Type)
		}
	case StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Address == "" || c.Store.Redis.Key == "" {
			return errors.New("store.redis.address and store.redis.key must be set")
		}
	case StoreMilvus:
		if c.Store.Milvus.Address == "" || c.Store.Milvus.Collection == "" {
			return errors.New("store.milvus.address and store.milvus.collection must be set")
		}
	default:
		return fmt.Errorf("store.type %q must be one of json, memory, sqlite, redis, milvus", c.Store.Type)
	}
	return nil
}

func (c *Config) validateEmbedder() error {
	c.Embedder.Provider = strings.ToLower(strings.TrimSpace(c.Embedder.Provider))
	switch c.Embedder.Provider {
	case EmbedderOpenAI:
		if c.Embedder.Model == "" {
			return errors.New("embedder.model must be set for the openai provider")
		}
	case EmbedderHash:
	default:
		return fmt.Errorf("embedder.provider %q must be openai or hash", c.Embedder.Provider)
	}
	if c.Embedder.Dimension < 1 {
		return errors.New("embedder.dimension must be positive")
	}
	return nil
}
