// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper holds the metadata of a candidate paper considered for a manuscript section.
type Paper struct {
	// ID identifies the paper within a collection (DOI, arXiv id, or citation key).
	ID string `json:"id" yaml:"id"`

	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Citations is the paper's global citation count.
	Citations int `json:"citations,omitempty" yaml:"citations,omitempty"`

	// WordCount and PageCount drive the reading time estimate when known.
	WordCount int `json:"word_count,omitempty" yaml:"word_count,omitempty"`
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`

	// Source identifies where the metadata came from (e.g. "zotero", "openalex").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// PaperList is the on-disk YAML shape of a paper collection.
type PaperList struct {
	Papers []Paper `json:"papers" yaml:"papers"`
}

// RankedPaper is a Paper scored against a manuscript section.
type RankedPaper struct {
	Paper Paper `json:"paper" yaml:"paper"`

	// RelevanceScore is SemanticSimilarity plus CitationBoost.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	SemanticSimilarity float64 `json:"semantic_similarity" yaml:"semantic_similarity"`
	CitationBoost      float64 `json:"citation_boost" yaml:"citation_boost"`

	// EstimatedReadingTime is in whole minutes, rounded up.
	EstimatedReadingTime int `json:"estimated_reading_time" yaml:"estimated_reading_time"`
}
