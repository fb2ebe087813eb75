package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"school-bus-routing/internal/platform/obs"
	"school-bus-routing/internal/ports"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const matrixKeyPrefix = "sbrp:matrices:"

// RedisMatrixCache keeps gob-encoded instance matrices in Redis.
// Entries are gob-encoded so NaN cells survive the round trip.
type RedisMatrixCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisMatrixCache connects to the Redis server at url (redis://host:port/db).
// A zero ttl stores entries without expiry.
func NewRedisMatrixCache(url string, ttl time.Duration) (*RedisMatrixCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis matrix cache: parse url: %w", err)
	}
	return NewRedisMatrixCacheFromClient(redis.NewClient(opt), ttl), nil
}

func NewRedisMatrixCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{rdb: rdb, ttl: ttl}
}

func (c *RedisMatrixCache) Get(ctx context.Context, instance string) (_ ports.Matrices, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.Get")(&err)

	if strings.TrimSpace(instance) == "" {
		return ports.Matrices{}, false, errors.New("get matrix cache: instance must not be empty")
	}

	data, err := c.rdb.Get(ctx, c.key(instance)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.Matrices{}, false, nil
	}
	if err != nil {
		return ports.Matrices{}, false, fmt.Errorf("get matrix cache instance=%q: %w", instance, err)
	}

	var m ports.Matrices
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return ports.Matrices{}, false, fmt.Errorf("get matrix cache instance=%q: decode: %w", instance, err)
	}
	return m, true, nil
}

func (c *RedisMatrixCache) Put(ctx context.Context, instance string, m ports.Matrices) error {
	if strings.TrimSpace(instance) == "" {
		return errors.New("put matrix cache: instance must not be empty")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("put matrix cache instance=%q: encode: %w", instance, err)
	}

	if err := c.rdb.Set(ctx, c.key(instance), buf.Bytes(), c.ttl).Err(); err != nil {
		return fmt.Errorf("put matrix cache instance=%q: %w", instance, err)
	}
	return nil
}

// Invalidate drops the cached matrices of an instance, e.g. after re-seeding.
func (c *RedisMatrixCache) Invalidate(ctx context.Context, instance string) error {
	if err := c.rdb.Del(ctx, c.key(instance)).Err(); err != nil {
		return fmt.Errorf("invalidate matrix cache instance=%q: %w", instance, err)
	}
	return nil
}

func (c *RedisMatrixCache) Close() error { return c.rdb.Close() }

func (c *RedisMatrixCache) key(instance string) string { return matrixKeyPrefix + instance }
