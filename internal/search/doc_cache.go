package search

import (
	"strconv"
	"sync"
)

// DocIDCache is an LRU cache of the matching documents of a query on one index state.
// Keys combine the rewritten query and the generation of the data it ran on, so any write to
// the index makes older entries unreachable; they age out through eviction.
type DocIDCache struct {
	mu          sync.Mutex
	cache       map[string][]uint32
	accessOrder []string
	maxSize     int
}

// NewDocIDCache creates a cache holding at most maxSize queries.
func NewDocIDCache(maxSize int) *DocIDCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &DocIDCache{
		cache:       make(map[string][]uint32, maxSize),
		accessOrder: make([]string, 0, maxSize),
		maxSize:     maxSize,
	}
}

func cacheKey(query string, generation uint64) string {
	return strconv.FormatUint(generation, 10) + "|" + query
}

// Get returns the cached documents of query at generation.
func (c *DocIDCache) Get(query string, generation uint64) ([]uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, generation)
	docs, ok := c.cache[key]
	if ok {
		c.markAccessed(key)
	}
	return docs, ok
}

// Put stores the documents of query at generation, evicting the least recently used entry
// when the cache is full. The slice must not be modified afterwards.
func (c *DocIDCache) Put(query string, generation uint64, docs []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, generation)
	if _, ok := c.cache[key]; ok {
		c.cache[key] = docs
		c.markAccessed(key)
		return
	}

	if len(c.cache) >= c.maxSize && len(c.accessOrder) > 0 {
		evict := c.accessOrder[0]
		delete(c.cache, evict)
		c.accessOrder = c.accessOrder[1:]
	}
	c.cache[key] = docs
	c.accessOrder = append(c.accessOrder, key)
}

// Len returns the number of cached queries.
func (c *DocIDCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear wipes the cache
func (c *DocIDCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string][]uint32, c.maxSize)
	c.accessOrder = c.accessOrder[:0]
}

// markAccessed moves key to the most recently used end. The caller holds mu.
func (c *DocIDCache) markAccessed(key string) {
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, key)
}
