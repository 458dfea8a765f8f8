package utils

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value      T
	expiration time.Time
}

// KeyedCache is a small in-process TTL cache. The query service uses it to serve
// repeated holdings reads between mutations; the engine invalidates a user's key
// after every committed transaction.
//
// Each key carries a generation counter bumped by Invalidate. A reader snapshots
// the generation before loading from storage and hands it back to Set; a Set
// whose generation is stale is discarded, so a read that raced a write cannot
// reinstate pre-write rows.
type KeyedCache[K comparable, V any] struct {
	entries map[K]cacheEntry[V]
	gens    map[K]uint64
	mutex   sync.RWMutex
}

func NewKeyedCache[K comparable, V any]() *KeyedCache[K, V] {
	return &KeyedCache[K, V]{
		entries: make(map[K]cacheEntry[V]),
		gens:    make(map[K]uint64),
	}
}

// Generation returns the key's current invalidation counter. The key is
// materialized so that Clear advances it even if it was never invalidated.
func (c *KeyedCache[K, V]) Generation(key K) uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = gen
	}
	return gen
}

// Set stores a value under key with an expiration time. The value is dropped if
// the key was invalidated after gen was taken.
func (c *KeyedCache[K, V]) Set(key K, value V, duration time.Duration, gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.gens[key] != gen {
		return
	}
	c.entries[key] = cacheEntry[V]{
		value:      value,
		expiration: time.Now().Add(duration),
	}
}

// Get retrieves the cached value for key if it has not expired.
func (c *KeyedCache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiration) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Invalidate removes the cached value for key and advances its generation.
func (c *KeyedCache[K, V]) Invalidate(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	c.gens[key]++
}

// Clear removes every cached value.
func (c *KeyedCache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[K]cacheEntry[V])
	for key := range c.gens {
		c.gens[key]++
	}
}
