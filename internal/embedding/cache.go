// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// frequencyWeight is the per-access bonus added to an entry's timestamp (in
// milliseconds) when choosing an eviction victim.
const frequencyWeight = 1_000_000

// CacheEntry is a cached vector with its recency and frequency bookkeeping.
type CacheEntry struct {
	Vector      []float64
	Timestamp   int64 // epoch milliseconds of the last insert or hit
	AccessCount int
}

// evictionScore is the value minimized when picking the entry to evict.
func (e *CacheEntry) evictionScore() float64 {
	return float64(e.Timestamp) + float64(e.AccessCount)*frequencyWeight
}

// CacheStats summarizes cache occupancy and effectiveness.
type CacheStats struct {
	Size    int     `json:"size" yaml:"size"`
	MaxSize int     `json:"max_size" yaml:"max_size"`
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

// vectorCache is a size-bounded map of content hash to CacheEntry. It is not
// safe for concurrent use; the Engine serializes access.
type vectorCache struct {
	items   *gocache.Cache
	maxSize int
	hits    int
	misses  int
	now     func() time.Time
}

func newVectorCache(maxSize int, now func() time.Time) *vectorCache {
	return &vectorCache{
		items:   gocache.New(gocache.NoExpiration, 0),
		maxSize: maxSize,
		now:     now,
	}
}

// cacheKey hashes the raw text.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// get returns a copy of the cached vector for text and records a hit or miss.
func (c *vectorCache) get(text string) ([]float64, bool) {
	obj, found := c.items.Get(cacheKey(text))
	if !found {
		c.misses++
		return nil, false
	}
	entry := obj.(*CacheEntry)
	entry.Timestamp = c.now().UnixMilli()
	entry.AccessCount++
	c.hits++
	return slices.Clone(entry.Vector), true
}

// put stores a copy of vec for text. Inserting a new key into a full cache first evicts
// exactly one entry and reports its key.
func (c *vectorCache) put(text string, vec []float64) (evicted string) {
	if c.maxSize <= 0 {
		return ""
	}
	key := cacheKey(text)
	if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxSize {
		evicted = c.evictOne()
	}
	c.items.Set(key, &CacheEntry{
		Vector:    slices.Clone(vec),
		Timestamp: c.now().UnixMilli(),
	}, gocache.NoExpiration)
	return evicted
}

// evictOne removes the entry minimizing timestamp + accessCount*1e6.
func (c *vectorCache) evictOne() string {
	victim := ""
	best := math.Inf(1)
	for key, item := range c.items.Items() {
		score := item.Object.(*CacheEntry).evictionScore()
		if score < best || (score == best && key < victim) {
			best = score
			victim = key
		}
	}
	if victim != "" {
		c.items.Delete(victim)
	}
	return victim
}

func (c *vectorCache) clear() {
	c.items.Flush()
	c.hits = 0
	c.misses = 0
}

func (c *vectorCache) stats() CacheStats {
	s := CacheStats{Size: c.items.ItemCount(), MaxSize: c.maxSize}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
