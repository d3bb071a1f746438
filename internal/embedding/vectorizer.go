// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns text into fixed-length vectors for similarity
// comparison. The Engine is a hashed TF-IDF bag-of-words vectorizer standing in
// for a real embedding model behind the Embedder interface.
package embedding

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultDimensions is the vector length when none is configured.
	DefaultDimensions = 384

	// hashesPerToken is the number of vector positions each token contributes to.
	hashesPerToken = 3

	minTokenLength = 3
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// Tokenize lowercases text, strips non-word characters, splits on whitespace
// and drops tokens shorter than three characters.
func Tokenize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")
	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// termFrequencies returns count/total for each distinct token.
func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	for _, t := range tokens {
		tf[t]++
	}
	total := float64(len(tokens))
	for t, c := range tf {
		tf[t] = c / total
	}
	return tf
}

// tokenPosition hashes token with a counter suffix into [0, dims).
func tokenPosition(token string, counter, dims int) int {
	h := xxhash.Sum64String(token + "_" + strconv.Itoa(counter))
	return int(h % uint64(dims))
}

// corpusStats tracks document frequencies for IDF weighting.
type corpusStats struct {
	documentFrequency map[string]int
	documentCount     int
}

func newCorpusStats() *corpusStats {
	return &corpusStats{documentFrequency: make(map[string]int)}
}

// add counts each distinct token of each text once and bumps the document count.
func (c *corpusStats) add(texts []string) {
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, t := range Tokenize(text) {
			if seen[t] {
				continue
			}
			seen[t] = true
			c.documentFrequency[t]++
		}
	}
	c.documentCount += len(texts)
}

// idf returns ln((N+1)/(df+1)) for known tokens and 1.0 otherwise.
func (c *corpusStats) idf(token string) float64 {
	df, ok := c.documentFrequency[token]
	if !ok {
		return 1.0
	}
	return math.Log(float64(c.documentCount+1) / float64(df+1))
}

// vectorize builds the hashed TF-IDF vector for text and L2-normalizes it.
func vectorize(text string, dims int, stats *corpusStats) []float64 {
	vec := make([]float64, dims)
	for token, tf := range termFrequencies(Tokenize(text)) {
		weight := tf * stats.idf(token)
		for i := 0; i < hashesPerToken; i++ {
			vec[tokenPosition(token, i, dims)] += weight
		}
	}
	return normalize(vec)
}

// normalize scales vec to unit length in place. A zero vector is returned unchanged.
func normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
