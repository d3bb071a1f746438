// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the claims knowledge base.
// Claims, manuscript outline sections, coverage metrics, papers and configuration
// live here so that the store, similarity and ranking packages agree on one shape.
package types

import "time"

// Category classifies a claim. The eight known categories map to fixed shard
// files; anything else is stored as CategoryUncategorized.
type Category string

const (
	CategoryMethod        Category = "Method"
	CategoryResult        Category = "Result"
	CategoryChallenge     Category = "Challenge"
	CategoryDataSource    Category = "Data Source"
	CategoryDataTrend     Category = "Data Trend"
	CategoryApplication   Category = "Application"
	CategoryImpact        Category = "Impact"
	CategoryPhenomenon    Category = "Phenomenon"
	CategoryUncategorized Category = "uncategorized"
)

// KnownCategories lists the categories with a dedicated shard file, in table order.
var KnownCategories = []Category{
	CategoryMethod,
	CategoryResult,
	CategoryChallenge,
	CategoryDataSource,
	CategoryDataTrend,
	CategoryApplication,
	CategoryImpact,
	CategoryPhenomenon,
}

// IsKnown reports whether c is one of the eight known categories.
func (c Category) IsKnown() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Quote is a verbatim excerpt evidencing a claim.
type Quote struct {
	Text     string `json:"text" yaml:"text"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Verified bool   `json:"verified" yaml:"verified"`
}

// Claim is an atomic factual assertion with its quotes and citation.
type Claim struct {
	// ID has the form C_NN and is unique within a repository.
	ID string `json:"id" yaml:"id"`

	// Text is the assertion itself, taken from the block header.
	Text string `json:"text" yaml:"text"`

	Category Category `json:"category" yaml:"category"`

	// Context describes where or how the claim applies.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	// Source is the author-year citation key (e.g. "Johnson2007").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// SourceID is the numeric source identifier from the sources table.
	SourceID int `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	PrimaryQuote     Quote   `json:"primary_quote" yaml:"primary_quote"`
	SupportingQuotes []Quote `json:"supporting_quotes,omitempty" yaml:"supporting_quotes,omitempty"`

	// Sections holds manuscript section ids this claim backs. Order is irrelevant.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`

	Verified bool `json:"verified" yaml:"verified"`

	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
}

// HasSection reports whether the claim is linked to the given section id.
func (c Claim) HasSection(id string) bool {
	for _, s := range c.Sections {
		if s == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate repository state through
// shared slices.
func (c Claim) Clone() Claim {
	out := c
	if c.SupportingQuotes != nil {
		out.SupportingQuotes = append([]Quote(nil), c.SupportingQuotes...)
	}
	if c.Sections != nil {
		out.Sections = append([]string(nil), c.Sections...)
	}
	return out
}
