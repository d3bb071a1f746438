// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OutlineSection describes one heading of a manuscript and the lines under it.
type OutlineSection struct {
	// ID is the section number (e.g. "2.1") or a slug of the title when unnumbered.
	ID string `json:"id" yaml:"id"`

	// Level is the heading depth (1 for "#").
	Level int `json:"level" yaml:"level"`

	Title string `json:"title" yaml:"title"`

	// Content holds the non-blank lines under the heading, in order.
	Content []string `json:"content" yaml:"content"`

	// Parent is the id of the closest enclosing section, empty for top-level sections.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Children lists the ids of directly nested sections.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	// LineStart and LineEnd are 1-based, inclusive line numbers in the manuscript.
	LineStart int `json:"line_start" yaml:"line_start"`
	LineEnd   int `json:"line_end" yaml:"line_end"`
}

// CoverageLevel buckets how many claims back a section.
type CoverageLevel string

const (
	CoverageNone     CoverageLevel = "none"
	CoverageLow      CoverageLevel = "low"
	CoverageModerate CoverageLevel = "moderate"
	CoverageStrong   CoverageLevel = "strong"
)

// CoverageMetric reports claim support for one manuscript section.
type CoverageMetric struct {
	SectionID        string        `json:"section_id" yaml:"section_id"`
	ClaimCount       int           `json:"claim_count" yaml:"claim_count"`
	CoverageLevel    CoverageLevel `json:"coverage_level" yaml:"coverage_level"`
	SuggestedQueries []string      `json:"suggested_queries" yaml:"suggested_queries"`
	LastUpdated      time.Time     `json:"last_updated" yaml:"last_updated"`
}
