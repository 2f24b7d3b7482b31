package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string // list key holding the entries

	ConnectRetries int
}

// DefaultRedisConfig returns local defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Address:        "localhost:6379",
		Key:            "kural:knowledge",
		ConnectRetries: 5,
	}
}

// RedisStore keeps entries as JSON strings in a single Redis list.
// RPUSH is atomic on the server, so concurrent appends never overwrite each other.
type RedisStore struct {
	client *redis.Client
	config RedisConfig
}

// NewRedisStore connects to Redis and verifies the connection with PING,
// retrying with Fibonacci backoff while the server comes up.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	if config.Key == "" {
		config.Key = DefaultRedisConfig().Key
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	backoff := retry.WithMaxRetries(uint64(max(config.ConnectRetries, 0)), retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, storageErr("connect", config.Address, err)
	}

	return &RedisStore{client: client, config: config}, nil
}

// EnsureInitialized is a no-op: a missing list reads as empty and RPUSH creates it.
func (r *RedisStore) EnsureInitialized(ctx context.Context) error {
	return nil
}

// Append pushes the encoded entry onto the tail of the list.
func (r *RedisStore) Append(ctx context.Context, entry ContextEntry) error {
	head, err := r.client.LIndex(ctx, r.config.Key, 0).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storageErr("read", r.config.Key, err)
	}
	if err == nil {
		var first ContextEntry
		if err := json.Unmarshal([]byte(head), &first); err != nil {
			return storageErr("decode", r.config.Key, err)
		}
		if err := checkDimension(first.Dimension(), entry); err != nil {
			return err
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return storageErr("encode", r.config.Key, err)
	}
	if err := r.client.RPush(ctx, r.config.Key, data).Err(); err != nil {
		return storageErr("write", r.config.Key, err)
	}
	return nil
}

// ReadAll returns the whole list in insertion order.
func (r *RedisStore) ReadAll(ctx context.Context) ([]ContextEntry, error) {
	raw, err := r.client.LRange(ctx, r.config.Key, 0, -1).Result()
	if err != nil {
		return nil, storageErr("read", r.config.Key, err)
	}

	entries := make([]ContextEntry, 0, len(raw))
	for i, item := range raw {
		var e ContextEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, storageErr("decode", r.config.Key, fmt.Errorf("element %d: %w", i, err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
