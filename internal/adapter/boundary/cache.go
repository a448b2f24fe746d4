package boundary

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-normals-etl/internal/observability"
)

// Resolver is the subset of Client that the cache decorates.
type Resolver interface {
	Resolve(ctx context.Context, names []string) (*geojson.FeatureCollection, error)
}

// CachedResolver wraps a Resolver with an in-memory LRU cache keyed by
// the sorted region name set, so repeated runs over the same AOI skip
// the boundary service.
type CachedResolver struct {
	inner   Resolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner Resolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, names []string) (*geojson.FeatureCollection, error) {
	key := cacheKey(names)
	if fc, ok := c.cache.get(key); ok {
		c.metrics.BoundaryCache.WithLabelValues("hit").Inc()
		return fc, nil
	}
	c.metrics.BoundaryCache.WithLabelValues("miss").Inc()

	fc, err := c.inner.Resolve(ctx, names)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, fc)
	return fc, nil
}

// cacheKey normalizes the name set so order does not fragment the cache.
func cacheKey(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// lruCache is a simple thread-safe LRU cache for feature collections.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *geojson.FeatureCollection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*geojson.FeatureCollection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *geojson.FeatureCollection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
