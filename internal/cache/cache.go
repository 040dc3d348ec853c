package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

// Cache defines the interface for a generic cache
// that can store and retrieve values with a TTL
type Cache[K comparable, V any] interface {
	// Set stores a value in the cache with the specified TTL
	Set(key K, value V, ttl time.Duration)
	// Get retrieves a value from the cache and a boolean indicating if it was found
	Get(key K) (V, bool)
	// Delete removes a value from the cache
	Delete(key K)
	// Clear removes all values from the cache
	Clear()
}

// entry represents a cache entry with its expiration time
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// memoryCache is an in-memory implementation of the Cache interface
type memoryCache[K comparable, V any] struct {
	items map[K]entry[V]
	mu    sync.RWMutex
	clock clockwork.Clock
	log   *logger.Logger
}

// NewMemoryCache creates a new in-memory cache with the provided logger
func NewMemoryCache[K comparable, V any](log *logger.Logger) Cache[K, V] {
	return NewMemoryCacheWithClock[K, V](log, clockwork.NewRealClock())
}

// NewMemoryCacheWithClock creates an in-memory cache that reads time from clock
func NewMemoryCacheWithClock[K comparable, V any](log *logger.Logger, clock clockwork.Clock) Cache[K, V] {
	return &memoryCache[K, V]{
		items: make(map[K]entry[V]),
		clock: clock,
		log:   log,
	}
}

// Set stores a value in the cache with the specified TTL
func (c *memoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time // zero means no expiration
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: expiresAt,
	}

	c.log.Debug("Item added to cache", map[string]interface{}{
		"key":        key,
		"cache_size": len(c.items),
	})
}

// Get retrieves a value from the cache and a boolean indicating if it was found
func (c *memoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !found {
		return zero, false
	}

	if !item.expiresAt.IsZero() && c.clock.Now().After(item.expiresAt) {
		c.log.Debug("Cache item expired", map[string]interface{}{"key": key})
		c.mu.Lock()
		if current, ok := c.items[key]; ok && current.expiresAt.Equal(item.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return item.value, true
}

// Delete removes a value from the cache
func (c *memoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all values from the cache
func (c *memoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]entry[V])

	c.log.Info("Cache cleared")
}

// WithTTL returns a wrapper that automatically applies a TTL to all Set operations
func WithTTL[K comparable, V any](cache Cache[K, V], ttl time.Duration) Cache[K, V] {
	return &ttlWrapper[K, V]{
		cache: cache,
		ttl:   ttl,
	}
}

type ttlWrapper[K comparable, V any] struct {
	cache Cache[K, V]
	ttl   time.Duration
}

func (w *ttlWrapper[K, V]) Set(key K, value V, _ time.Duration) {
	w.cache.Set(key, value, w.ttl)
}

func (w *ttlWrapper[K, V]) Get(key K) (V, bool) {
	return w.cache.Get(key)
}

func (w *ttlWrapper[K, V]) Delete(key K) {
	w.cache.Delete(key)
}

func (w *ttlWrapper[K, V]) Clear() {
	w.cache.Clear()
}

// Layered reads from front first and falls back to back, copying hits
// forward. Writes go to both.
func Layered[K comparable, V any](front, back Cache[K, V], ttl time.Duration) Cache[K, V] {
	return &layered[K, V]{front: front, back: back, ttl: ttl}
}

type layered[K comparable, V any] struct {
	front Cache[K, V]
	back  Cache[K, V]
	ttl   time.Duration
}

func (l *layered[K, V]) Set(key K, value V, ttl time.Duration) {
	l.front.Set(key, value, ttl)
	l.back.Set(key, value, ttl)
}

func (l *layered[K, V]) Get(key K) (V, bool) {
	if v, ok := l.front.Get(key); ok {
		return v, true
	}
	v, ok := l.back.Get(key)
	if ok {
		l.front.Set(key, v, l.ttl)
	}
	return v, ok
}

func (l *layered[K, V]) Delete(key K) {
	l.front.Delete(key)
	l.back.Delete(key)
}

func (l *layered[K, V]) Clear() {
	l.front.Clear()
	l.back.Clear()
}
