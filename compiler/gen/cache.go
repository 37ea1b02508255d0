package gen

import (
	"sync"
	"sync/atomic"
)

// Artifact is the rendered registry of one catalog.
type Artifact struct {
	// Catalog is the identity of the catalog the artifact was built from.
	Catalog string
	// Hash is the content hash of the catalog.
	Hash string
	// File is the file name, relative to the target directory.
	File string
	// Source holds the formatted Go source.
	Source []byte
}

// CacheStats reports the activity of a Cache.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Cache maps catalog content hashes to previously emitted artifacts. It
// lives for one build session and is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{artifacts: make(map[string]*Artifact)}
}

// Get returns the artifact stored under hash.
func (c *Cache) Get(hash string) (*Artifact, bool) {
	c.mu.RLock()
	a, ok := c.artifacts[hash]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return a, ok
}

// Put stores a under its hash. An artifact already stored under the same
// hash is kept.
func (c *Cache) Put(a *Artifact) *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.artifacts[a.Hash]; ok {
		return prev
	}
	c.artifacts[a.Hash] = a
	return a
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   len(c.artifacts),
	}
}

// Reset drops every stored artifact and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.artifacts)
	c.hits.Store(0)
	c.misses.Store(0)
}
