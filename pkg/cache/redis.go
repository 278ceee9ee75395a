package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	// URL is the connection string, e.g. "redis://localhost:6379/0".
	URL string

	// TLS enables TLS when set.
	TLS *tls.Config

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DialRedis parses opts, connects and pings the server.
func DialRedis(opts RedisOptions) (*redis.Client, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.TLS != nil {
		ro.TLSConfig = opts.TLS
	}
	ro.DialTimeout = opts.ConnectTimeout
	ro.ReadTimeout = opts.ReadTimeout
	ro.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(ro)
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCache stores entries as plain Redis strings with native expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// NewRedisCache connects to Redis. Keys are stored under prefix.
func NewRedisCache(opts RedisOptions, prefix string) (*RedisCache, error) {
	client, err := DialRedis(opts)
	if err != nil {
		return nil, err
	}
	return NewRedisCacheFromClient(client, prefix), nil
}

// NewRedisCacheFromClient wraps an existing client. Close closes client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get reads an entry.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set writes an entry. A zero ttl keeps it until deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Clear deletes every entry under the cache prefix and returns how many
// were removed. Keys are scanned in batches so large caches don't block
// the server.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	var (
		n     int
		batch []string
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		removed, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		n += int(removed)
		batch = batch[:0]
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan: %w", err)
	}
	return n, flush()
}

// Close closes the underlying client. It is safe to call more than once.
func (c *RedisCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
