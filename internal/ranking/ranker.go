// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ranking scores candidate papers against a manuscript section and
// measures how well each section is backed by claims.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

const (
	// citedByWeight is the boost per in-collection citing paper.
	citedByWeight = 0.05
	// citedByCap bounds the in-collection citation boost.
	citedByCap = 0.3

	minEstimatedWords = 3000
	abstractFraction  = 0.03
	titleFraction     = 0.005
)

// Reading time bucket labels, in display order.
const (
	ReadingShort    = "< 15 min"
	ReadingMedium   = "15-30 min"
	ReadingLong     = "30-60 min"
	ReadingVeryLong = "> 60 min"
)

// ReadingTimeLabels lists the GroupByReadingTime keys from shortest to longest.
var ReadingTimeLabels = []string{ReadingShort, ReadingMedium, ReadingLong, ReadingVeryLong}

// Ranker scores papers by semantic similarity to a section plus a citation boost.
type Ranker struct {
	embedder embedding.Embedder
	cfg      types.RankingConfig
}

// NewRanker creates a Ranker. Zero config values fall back to the defaults.
func NewRanker(embedder embedding.Embedder, cfg types.RankingConfig) *Ranker {
	d := types.DefaultConfig().Ranking
	if cfg.CitationBoostFactor <= 0 {
		cfg.CitationBoostFactor = d.CitationBoostFactor
	}
	if cfg.CitationThreshold <= 0 {
		cfg.CitationThreshold = d.CitationThreshold
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = d.WordsPerMinute
	}
	if cfg.DefaultPageWordCount <= 0 {
		cfg.DefaultPageWordCount = d.DefaultPageWordCount
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = d.MinRelevance
	}
	return &Ranker{embedder: embedder, cfg: cfg}
}

// SectionText is the text a section is embedded as: its title followed by its
// content lines.
func SectionText(s types.OutlineSection) string {
	parts := make([]string, 0, len(s.Content)+1)
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	parts = append(parts, s.Content...)
	return strings.Join(parts, " ")
}

// paperText is the abstract, or the title when the abstract is blank.
func paperText(p types.Paper) string {
	if strings.TrimSpace(p.Abstract) != "" {
		return p.Abstract
	}
	return p.Title
}

// RankPapers scores every paper against section and returns them sorted by
// descending relevance. citedBy maps a paper id to the ids of papers in the
// collection that cite it; it may be nil.
func (r *Ranker) RankPapers(papers []types.Paper, section types.OutlineSection, citedBy map[string][]string) []types.RankedPaper {
	if len(papers) == 0 {
		return nil
	}
	sectionVec := r.embedder.Embed(SectionText(section))

	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = paperText(p)
	}
	vectors := r.embedder.EmbedBatch(texts)

	ranked := make([]types.RankedPaper, len(papers))
	for i, p := range papers {
		sim := r.embedder.CosineSimilarity(sectionVec, vectors[i])
		boost := r.CitationBoost(p.Citations, citingCount(p.ID, citedBy))
		ranked[i] = types.RankedPaper{
			Paper:                p,
			RelevanceScore:       sim + boost,
			SemanticSimilarity:   sim,
			CitationBoost:        boost,
			EstimatedReadingTime: r.ReadingTime(p),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// citingCount counts the distinct papers, other than id itself, recorded as
// citing id.
func citingCount(id string, citedBy map[string][]string) int {
	if citedBy == nil || id == "" {
		return 0
	}
	seen := make(map[string]bool)
	for _, c := range citedBy[id] {
		if c != "" && c != id {
			seen[c] = true
		}
	}
	return len(seen)
}

// CitationBoost is log10(citations+1)/log10(threshold+1) scaled by the boost
// factor, plus 0.05 per in-collection citing paper capped at 0.3.
func (r *Ranker) CitationBoost(citations, citing int) float64 {
	var boost float64
	if citations > 0 {
		boost = math.Log10(float64(citations)+1) / math.Log10(float64(r.cfg.CitationThreshold)+1) * r.cfg.CitationBoostFactor
	}
	if citing > 0 {
		boost += math.Min(float64(citing)*citedByWeight, citedByCap)
	}
	return boost
}

// ReadingTime estimates whole minutes to read p, rounded up. It prefers the
// word count, then the page count, then an estimate from the abstract or title
// length with a floor of 3000 words.
func (r *Ranker) ReadingTime(p types.Paper) int {
	var words float64
	switch {
	case p.WordCount > 0:
		words = float64(p.WordCount)
	case p.PageCount > 0:
		words = float64(p.PageCount * r.cfg.DefaultPageWordCount)
	default:
		words = estimateWords(p)
	}
	return int(math.Ceil(words / float64(r.cfg.WordsPerMinute)))
}

func estimateWords(p types.Paper) float64 {
	var est float64
	if n := len(strings.Fields(p.Abstract)); n > 0 {
		est = float64(n) / abstractFraction
	} else if n := len(strings.Fields(p.Title)); n > 0 {
		est = float64(n) / titleFraction
	}
	return math.Max(est, minEstimatedWords)
}

// FilterByRelevance keeps papers whose relevance score is at least threshold.
// A non-positive threshold uses the configured minimum relevance.
func (r *Ranker) FilterByRelevance(ranked []types.RankedPaper, threshold float64) []types.RankedPaper {
	if threshold <= 0 {
		threshold = r.cfg.MinRelevance
	}
	var out []types.RankedPaper
	for _, p := range ranked {
		if p.RelevanceScore >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// ReadingTimeLabel returns the bucket label for a reading time in minutes.
func ReadingTimeLabel(minutes int) string {
	switch {
	case minutes < 15:
		return ReadingShort
	case minutes < 30:
		return ReadingMedium
	case minutes <= 60:
		return ReadingLong
	default:
		return ReadingVeryLong
	}
}

// GroupByReadingTime buckets papers by estimated reading time, preserving
// their order within each bucket. Empty buckets are omitted; iterate
// ReadingTimeLabels for display order.
func GroupByReadingTime(ranked []types.RankedPaper) map[string][]types.RankedPaper {
	groups := make(map[string][]types.RankedPaper)
	for _, p := range ranked {
		label := ReadingTimeLabel(p.EstimatedReadingTime)
		groups[label] = append(groups[label], p)
	}
	return groups
}
