// Package services holds ambient, swappable collaborators that sit beside
// the core but aren't part of its correctness surface: here, a
// Redis-primary / in-memory-fallback cache for the illustrative chat and
// message listing paths (SPEC_FULL.md §2, Ambient stack). Session and
// credential state never goes through this cache — every auth operation
// round-trips to the store.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService is the narrow caching abstraction shared by Redis and
// in-memory implementations.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ============================================================================
// IN-MEMORY CACHE (FALLBACK)
// ============================================================================

// MemoryCache is a process-local fallback used when Redis is unreachable,
// or in tests.
type MemoryCache struct {
	mu    sync.Mutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	value      []byte
	expiration time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry)}
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	entry, exists := m.store[key]
	if exists && time.Now().After(entry.expiration) {
		delete(m.store, key)
		exists = false
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("key not found: %s", key)
	}
	return json.Unmarshal(entry.value, dest)
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.store[key] = cacheEntry{value: data, expiration: time.Now().Add(expiration)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.store, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.store = make(map[string]cacheEntry)
	m.mu.Unlock()
	return nil
}

// ============================================================================
// REDIS CACHE (PRIMARY)
// ============================================================================

// RedisCache is the primary cache, backed by an already-connected client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found: %s", key)
		}
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// ============================================================================
// CACHE KEY GENERATION
// ============================================================================

// ListingTTL is the short TTL used for the chat/message listing caches;
// short because these paths are explicitly outside the core's
// correctness surface rather than because of any freshness requirement.
const ListingTTL = 30 * time.Second

// GenerateCacheKey builds a stable, collision-resistant key for a scoped
// listing query out of its subject and pagination parameters.
func GenerateCacheKey(scope string, subject interface{}, pageSize, page int) string {
	combined := fmt.Sprintf("%v|%d|%d", subject, pageSize, page)
	hash := sha256.Sum256([]byte(combined))
	return scope + ":" + hex.EncodeToString(hash[:])[:16]
}
