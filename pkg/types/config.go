// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClaimsConfig locates the markdown claim database.
type ClaimsConfig struct {
	// KnowledgeDir is the base directory (contains claims/, the legacy file, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// ClaimsDir is the shard subdirectory name under KnowledgeDir (default "claims").
	ClaimsDir string `json:"claims_dir" yaml:"claims_dir"`

	// LegacyFile is the single-file database name (default "claims_and_evidence.md").
	// In directory mode the same path holds the master index.
	LegacyFile string `json:"legacy_file" yaml:"legacy_file"`

	// WriteIndex controls whether saves in directory mode refresh the master index.
	WriteIndex bool `json:"write_index" yaml:"write_index"`
}

// EmbeddingConfig holds settings for the hashed embedding engine.
type EmbeddingConfig struct {
	// Dimensions is the vector length (default 384).
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// MaxCacheSize bounds the number of cached vectors (default 1000).
	MaxCacheSize int `json:"max_cache_size" yaml:"max_cache_size"`
}

// SimilarityConfig holds the claim comparison thresholds.
type SimilarityConfig struct {
	// ContradictionThreshold is the minimum similarity for any relation (default 0.65).
	ContradictionThreshold float64 `json:"contradiction_threshold" yaml:"contradiction_threshold"`

	// SimilarityThreshold is the minimum similarity for a supporting relation (default 0.75).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
}

// RankingConfig holds the paper ranking constants.
type RankingConfig struct {
	CitationBoostFactor  float64 `json:"citation_boost_factor" yaml:"citation_boost_factor"`
	CitationThreshold    int     `json:"citation_threshold" yaml:"citation_threshold"`
	WordsPerMinute       int     `json:"words_per_minute" yaml:"words_per_minute"`
	DefaultPageWordCount int     `json:"default_page_word_count" yaml:"default_page_word_count"`

	// MinRelevance is the default cut-off for FilterByRelevance (default 0.3).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`
}

// CoverageConfig holds coverage analysis settings.
type CoverageConfig struct {
	// GapThreshold is the claim count below which a section is a gap (default 2).
	GapThreshold int `json:"gap_threshold" yaml:"gap_threshold"`
}

// IndexConfig holds settings for the SQLite claim index.
type IndexConfig struct {
	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Config groups every component configuration.
type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	Claims     ClaimsConfig     `json:"claims" yaml:"claims"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity"`
	Ranking    RankingConfig    `json:"ranking" yaml:"ranking"`
	Coverage   CoverageConfig   `json:"coverage" yaml:"coverage"`
	Index      IndexConfig      `json:"index" yaml:"index"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Claims: ClaimsConfig{
			KnowledgeDir: "knowledge",
			ClaimsDir:    "claims",
			LegacyFile:   "claims_and_evidence.md",
			WriteIndex:   true,
		},
		Embedding: EmbeddingConfig{
			Dimensions:   384,
			MaxCacheSize: 1000,
		},
		Similarity: SimilarityConfig{
			ContradictionThreshold: 0.65,
			SimilarityThreshold:    0.75,
		},
		Ranking: RankingConfig{
			CitationBoostFactor:  0.1,
			CitationThreshold:    100,
			WordsPerMinute:       200,
			DefaultPageWordCount: 500,
			MinRelevance:         0.3,
		},
		Coverage: CoverageConfig{GapThreshold: 2},
		Index:    IndexConfig{MaxResults: 20},
	}
}
