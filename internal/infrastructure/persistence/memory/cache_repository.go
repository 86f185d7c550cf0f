// Package memory provides an in-memory cache repository. It backs
// tests and local development where no Redis is available.
package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrCacheMiss is returned when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// CacheRepository implements outbound.CacheRepository on a map.
type CacheRepository struct {
	data  map[string]cacheItem
	mutex sync.Mutex
}

// NewCacheRepository creates a new in-memory cache repository.
func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		data: make(map[string]cacheItem),
	}
}

// Get retrieves a value; a missing or expired key returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[key]
	if !exists {
		return nil, ErrCacheMiss
	}
	if item.expired(time.Now()) {
		delete(r.data, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value. A zero TTL means no expiry.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	r.data[key] = item
	return nil
}

// Delete removes a key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists reports whether a key is present and unexpired.
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[key]
	if !exists {
		return false, nil
	}
	if item.expired(time.Now()) {
		delete(r.data, key)
		return false, nil
	}
	return true, nil
}

// Increment increments a decimal counter, creating it at 1 like Redis
// INCR does.
func (r *CacheRepository) Increment(ctx context.Context, key string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var value int64
	item, exists := r.data[key]
	if exists && !item.expired(time.Now()) {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, errors.New("value is not an integer")
		}
		value = parsed
	}
	value++

	r.data[key] = cacheItem{
		value:     []byte(strconv.FormatInt(value, 10)),
		expiresAt: item.expiresAt,
	}
	return value, nil
}

// Expire sets a TTL on an existing key.
func (r *CacheRepository) Expire(ctx context.Context, key string, ttl time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[key]
	if !exists {
		return nil
	}
	item.expiresAt = time.Now().Add(ttl)
	r.data[key] = item
	return nil
}
