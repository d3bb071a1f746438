// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// Embedder is the three-method surface consumed by the similarity and ranking
// packages. A real embedding service can replace Engine behind it.
type Embedder interface {
	Embed(text string) []float64
	EmbedBatch(texts []string) [][]float64
	CosineSimilarity(a, b []float64) float64
}

// Engine embeds text with a hashed TF-IDF vectorizer and caches the results.
// All methods are safe for concurrent use; cache and corpus mutation happen
// under a single mutex.
type Engine struct {
	mu    sync.Mutex
	dims  int
	stats *corpusStats
	cache *vectorCache
	log   *logrus.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.cache.now = now }
}

// WithLogger sets the logger used for cache eviction diagnostics.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an Engine. Zero config values fall back to
// DefaultDimensions and a cache of 1000 entries.
func NewEngine(cfg types.EmbeddingConfig, opts ...Option) *Engine {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	maxSize := cfg.MaxCacheSize
	if maxSize <= 0 {
		maxSize = types.DefaultConfig().Embedding.MaxCacheSize
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{
		dims:  dims,
		stats: newCorpusStats(),
		cache: newVectorCache(maxSize, time.Now),
		log:   quiet,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the vector length produced by Embed.
func (e *Engine) Dimensions() int { return e.dims }

// Embed returns the vector for text, consulting the cache first. Empty text
// yields a zero vector.
func (e *Engine) Embed(text string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedLocked(text)
}

func (e *Engine) embedLocked(text string) []float64 {
	if vec, ok := e.cache.get(text); ok {
		return vec
	}
	vec := vectorize(text, e.dims, e.stats)
	if evicted := e.cache.put(text, vec); evicted != "" {
		e.log.WithField("key", evicted[:12]).Debug("embedding cache eviction")
	}
	return vec
}

// EmbedBatch first folds every text into the corpus document frequencies, then
// embeds each text. The same text may therefore embed differently depending on
// which batches preceded it; vectors already cached keep the statistics they
// were computed with.
func (e *Engine) EmbedBatch(texts []string) [][]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.add(texts)
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = e.embedLocked(text)
	}
	return out
}

// CosineSimilarity delegates to the package-level CosineSimilarity.
func (e *Engine) CosineSimilarity(a, b []float64) float64 {
	return CosineSimilarity(a, b)
}

// CacheEmbedding stores a precomputed vector for text.
func (e *Engine) CacheEmbedding(text string, vec []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.put(text, vec)
}

// GetCachedEmbedding returns the cached vector for text, if any. A hit counts
// toward the hit rate and refreshes the entry.
func (e *Engine) GetCachedEmbedding(text string) ([]float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.get(text)
}

// ClearCache drops every cached vector and resets hit statistics. Corpus
// statistics are kept.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.clear()
}

// CacheStats reports cache size, capacity and hit rate.
func (e *Engine) CacheStats() CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.stats()
}

// DocumentCount returns the number of documents folded into IDF statistics.
func (e *Engine) DocumentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.documentCount
}
