// Package cache is the process-wide read-through cache that sits in front of
// collection reads. Entries live only in memory and expire per collection.
//
// Nothing here invalidates on write: services call Clear for every
// collection a mutation touches. Concurrent misses are not coalesced, so two
// requests may both go to the database and both Set.
package cache

import (
	"sync"
	"time"
)

// Collection names shared by services and the TTL table.
const (
	Stock        = "stock"
	Clientes     = "clientes"
	Cajas        = "cajas"
	Reposiciones = "reposiciones"
	Salidas      = "salidas"
	Usuarios     = "usuarios"
)

// DefaultTTL applies to collections missing from the TTL table.
const DefaultTTL = 5 * time.Minute

// DefaultTTLs is the per-collection time-to-live used by New.
var DefaultTTLs = map[string]time.Duration{
	Stock:        1 * time.Minute,
	Cajas:        2 * time.Minute,
	Clientes:     5 * time.Minute,
	Reposiciones: 5 * time.Minute,
	Salidas:      5 * time.Minute,
	Usuarios:     15 * time.Minute,
}

type entry struct {
	data      any
	timestamp time.Time
}

// Cache maps a collection name to its last fetched data.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttls    map[string]time.Duration
	now     func() time.Time
}

// Option customises a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, used by tests to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the TTL of one collection.
func WithTTL(coleccion string, ttl time.Duration) Option {
	return func(c *Cache) { c.ttls[coleccion] = ttl }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttls:    make(map[string]time.Duration, len(DefaultTTLs)),
		now:     time.Now,
	}
	for k, v := range DefaultTTLs {
		c.ttls[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the time-to-live configured for coleccion.
func (c *Cache) TTL(coleccion string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ttl, ok := c.ttls[coleccion]; ok {
		return ttl
	}
	return DefaultTTL
}

// Get returns the cached data while now - timestamp <= ttl. An expired entry
// is evicted and reported as a miss.
func (c *Cache) Get(coleccion string) (any, bool) {
	ttl := c.TTL(coleccion)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[coleccion]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.timestamp) > ttl {
		delete(c.entries, coleccion)
		return nil, false
	}
	return e.data, true
}

// Set stores data for coleccion stamped with the current time.
func (c *Cache) Set(coleccion string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[coleccion] = entry{data: data, timestamp: c.now()}
}

// Clear drops the given collections. A nil Cache is a no-op.
func (c *Cache) Clear(colecciones ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, col := range colecciones {
		delete(c.entries, col)
	}
}

// ClearAll drops every entry.
func (c *Cache) ClearAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports how many collections are currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup is the typed read-through helper: it returns the cached slice when
// present, otherwise calls fetch, stores the result and returns it. Fetch
// errors are returned and nothing is cached.
func Lookup[T any](c *Cache, coleccion string, fetch func() (T, error)) (T, error) {
	if c != nil {
		if data, ok := c.Get(coleccion); ok {
			if v, ok := data.(T); ok {
				return v, nil
			}
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(coleccion, v)
	}
	return v, nil
}
