// SPDX-License-Identifier: Apache-2.0

// Package cache provides the capacity-bounded, TTL-aware key/value engine
// shared by the response, retrieval, tool-result, and session caches.
//
// Eviction is FIFO by insertion order, not by last access. Expired entries
// behave as a miss on Get even before they are physically swept.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds a cache when no explicit capacity is given.
const DefaultCapacity = 1000

// Stats reports hit/miss accounting for one cache instance.
type Stats struct {
	Size    int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

type entry struct {
	key       string
	value     any
	createdAt time.Time
	expiresAt time.Time // zero means no TTL
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is a concurrency-safe FIFO cache with optional per-entry TTL.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = oldest inserted
	capacity int
	hits     uint64
	misses   uint64
	flight   singleflight.Group

	// now is swappable for deterministic expiry tests.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity bounds the number of entries. Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n >= 1 {
			c.capacity = n
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key, or ok=false on a miss. An entry past its
// expiry is a miss and is removed on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	ent := el.Value.(*entry)
	if ent.expired(c.now()) {
		c.removeElement(el)
		c.misses++
		return nil, false
	}
	c.hits++
	return ent.value, true
}

// Set stores value under key. A ttl of zero means no expiry. Overwriting an
// existing key refreshes its insertion order. When the cache is at capacity,
// the oldest-inserted entry is evicted before the new one is stored.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ent := &entry{key: key, value: value, createdAt: now}
	if ttl > 0 {
		ent.expiresAt = now.Add(ttl)
	}

	if el, ok := c.entries[key]; ok {
		el.Value = ent
		c.order.MoveToBack(el)
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	c.entries[key] = c.order.PushBack(ent)
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	if el.Value.(*entry).expired(c.now()) {
		c.removeElement(el)
		return false
	}
	return true
}

// Delete removes key and reports whether a live entry was removed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	expired := el.Value.(*entry).expired(c.now())
	c.removeElement(el)
	return !expired
}

// DeleteByPrefix removes every entry whose key starts with prefix and
// returns the number removed.
func (c *Cache) DeleteByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if strings.HasPrefix(el.Value.(*entry).key, prefix) {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Clear drops every entry. Hit/miss counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Sweep removes expired entries eagerly and returns the number removed.
// Expiry is otherwise enforced lazily on access.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry).expired(now) {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// GetOrSet returns the cached value for key or populates it via factory.
// Concurrent callers racing on the same missing key share a single factory
// invocation; unrelated keys never serialize on each other. The returned
// cached flag is false only for the caller whose factory call produced the
// value.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) (any, error)) (any, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	type flightResult struct {
		value  any
		cached bool
	}
	v, err, shared := c.flight.Do(key, func() (any, error) {
		// Another flight may have populated the entry between our miss
		// and acquiring the flight.
		if v, ok := c.Get(key); ok {
			return flightResult{value: v, cached: true}, nil
		}
		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value, ttl)
		return flightResult{value: value, cached: false}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(flightResult)
	return res.value, res.cached || shared, nil
}

// GetStats returns a snapshot of size and hit/miss accounting.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:   c.order.Len(),
		Hits:   c.hits,
		Misses: c.misses,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// removeElement must be called with c.mu held.
func (c *Cache) removeElement(el *list.Element) {
	ent := el.Value.(*entry)
	delete(c.entries, ent.key)
	c.order.Remove(el)
}

// GenerateKey builds a deterministic cache key from a namespace and a
// parameter object. Structurally equal objects produce the same key
// regardless of map iteration order.
func GenerateKey(namespace string, params map[string]any) string {
	sum := sha256.Sum256([]byte(canonicalJSON(params)))
	return namespace + ":" + hex.EncodeToString(sum[:16])
}

// canonicalJSON renders params with sorted keys at every level.
func canonicalJSON(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			b.WriteString(canonicalJSON(val[k]))
		}
		b.WriteByte('}')
		return b.String()
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(canonicalJSON(item))
		}
		b.WriteByte(']')
		return b.String()
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%q", fmt.Sprint(val))
		}
		return string(raw)
	}
}
