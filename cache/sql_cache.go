package cache

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SQLCache memoizes built SQL text keyed by a fingerprint of the query shape.
// Arguments are never cached, only the rendered statement.
type SQLCache struct {
	cache *lru.Cache[uint64, string]
}

// NewSQLCache creates a cache holding up to size statements.
func NewSQLCache(size int) *SQLCache {
	cache, _ := lru.New[uint64, string](size)
	return &SQLCache{cache: cache}
}

// Get returns the cached SQL for key.
func (c *SQLCache) Get(key uint64) (string, bool) {
	return c.cache.Get(key)
}

// Set stores sql under key.
func (c *SQLCache) Set(key uint64, sql string) {
	c.cache.Add(key, sql)
}

// Len reports the number of cached statements.
func (c *SQLCache) Len() int {
	return c.cache.Len()
}

// Fingerprint hashes a query-shape signature into a cache key.
func Fingerprint(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
