package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ResponseCache keeps raw model responses keyed by document content so re-uploading the
// same screenshot does not spend another model call.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Close() error
}

// CacheKey hashes the provider, MIME type and bytes of a document
func CacheKey(provider string, doc Document) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(doc.MIMEType))
	h.Write([]byte{0})
	h.Write(doc.Data)
	return "extraction:" + hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an in-process ResponseCache
type MemoryCache struct {
	cache *cache.Cache
}

var _ ResponseCache = (*MemoryCache)(nil)

func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(defaultExpiration, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

// Close is a no-op for the in-memory cache
func (m *MemoryCache) Close() error {
	return nil
}

// RedisCache shares cached responses between instances
type RedisCache struct {
	client *redis.Client
}

var _ ResponseCache = (*RedisCache)(nil)

// NewRedisCache connects to addr and verifies the connection
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil { // includes redis.Nil
		return "", false
	}
	return val, true
}

// Set is best effort; a failed write only costs a future model call
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	_ = r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
