package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pipebuilder/pkg/cache"
)

// RedisStore keeps records as JSON strings without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis.
func NewRedisStore(opts cache.RedisOptions) (*RedisStore, error) {
	client, err := cache.DialRedis(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Close closes client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads a record.
func (s *RedisStore) Load(ctx context.Context, key string) (*Record, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	return &rec, nil
}

// Save writes a record.
func (s *RedisStore) Save(ctx context.Context, key string, rec Record) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pipeline: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.Del(ctx, key).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
