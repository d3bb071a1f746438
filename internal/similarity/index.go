// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity compares claims pairwise to find supporting and
// contradicting evidence and scores claim strength from the supporting count.
package similarity

import (
	"math"
	"sort"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

// paraphraseCeiling is the similarity above which a pair is treated as a
// paraphrase and never as a contradiction.
const paraphraseCeiling = 0.90

// Relation classifies how a candidate claim relates to a target claim.
type Relation string

const (
	RelationNone          Relation = ""
	RelationSupporting    Relation = "supporting"
	RelationContradicting Relation = "contradicting"
)

// Match is a related claim with its similarity to the target.
type Match struct {
	Claim      types.Claim `json:"claim" yaml:"claim"`
	Similarity float64     `json:"similarity" yaml:"similarity"`
	Relation   Relation    `json:"relation" yaml:"relation"`
}

// Analysis collects the relations found for one claim.
type Analysis struct {
	ClaimID       string  `json:"claim_id" yaml:"claim_id"`
	Supporting    []Match `json:"supporting" yaml:"supporting"`
	Contradicting []Match `json:"contradicting" yaml:"contradicting"`
	Strength      float64 `json:"strength" yaml:"strength"`
}

// Index classifies claim pairs using an embedding engine.
type Index struct {
	embedder embedding.Embedder
	cfg      types.SimilarityConfig
}

// NewIndex creates an Index. Zero thresholds fall back to the defaults
// (contradiction 0.65, similarity 0.75).
func NewIndex(embedder embedding.Embedder, cfg types.SimilarityConfig) *Index {
	defaults := types.DefaultConfig().Similarity
	if cfg.ContradictionThreshold <= 0 {
		cfg.ContradictionThreshold = defaults.ContradictionThreshold
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = defaults.SimilarityThreshold
	}
	return &Index{embedder: embedder, cfg: cfg}
}

// DetectContradiction reports whether two texts with the given similarity
// contradict each other. Pairs above 0.90 similarity are paraphrases and never
// contradictions; pairs below the contradiction threshold are unrelated.
func (x *Index) DetectContradiction(a, b string, similarity float64) bool {
	if similarity < x.cfg.ContradictionThreshold || similarity > paraphraseCeiling {
		return false
	}
	if HasNegation(a) != HasNegation(b) {
		return true
	}
	if opposingSentiment(a, b) {
		return true
	}
	return HasAntonymPair(a, b)
}

// Classify returns the relation between two texts at the given similarity.
func (x *Index) Classify(a, b string, similarity float64) Relation {
	if similarity < x.cfg.ContradictionThreshold {
		return RelationNone
	}
	if x.DetectContradiction(a, b, similarity) {
		return RelationContradicting
	}
	if similarity >= x.cfg.SimilarityThreshold {
		return RelationSupporting
	}
	return RelationNone
}

// isCandidate reports whether other may relate to target: a different claim
// from a different source.
func isCandidate(target, other types.Claim) bool {
	return other.ID != target.ID && other.Source != target.Source
}

// Analyze compares target against every candidate in claims.
func (x *Index) Analyze(target types.Claim, claims []types.Claim) Analysis {
	targetVec := x.embedder.Embed(target.Text)
	vectors := make(map[string][]float64, len(claims))
	for _, c := range claims {
		if isCandidate(target, c) {
			vectors[c.ID] = x.embedder.Embed(c.Text)
		}
	}
	return x.analyze(target, targetVec, claims, vectors)
}

// AnalyzeAll embeds every claim once and analyzes each claim against the rest,
// keyed by claim id.
func (x *Index) AnalyzeAll(claims []types.Claim) map[string]Analysis {
	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Text
	}
	embedded := x.embedder.EmbedBatch(texts)

	vectors := make(map[string][]float64, len(claims))
	for i, c := range claims {
		vectors[c.ID] = embedded[i]
	}

	out := make(map[string]Analysis, len(claims))
	for _, c := range claims {
		out[c.ID] = x.analyze(c, vectors[c.ID], claims, vectors)
	}
	return out
}

func (x *Index) analyze(target types.Claim, targetVec []float64, claims []types.Claim, vectors map[string][]float64) Analysis {
	a := Analysis{ClaimID: target.ID}
	for _, c := range claims {
		if !isCandidate(target, c) {
			continue
		}
		sim := x.embedder.CosineSimilarity(targetVec, vectors[c.ID])
		switch x.Classify(target.Text, c.Text, sim) {
		case RelationContradicting:
			a.Contradicting = append(a.Contradicting, Match{Claim: c, Similarity: sim, Relation: RelationContradicting})
		case RelationSupporting:
			a.Supporting = append(a.Supporting, Match{Claim: c, Similarity: sim, Relation: RelationSupporting})
		}
	}
	sortMatches(a.Supporting)
	sortMatches(a.Contradicting)
	a.Strength = StrengthScore(len(a.Supporting))
	return a
}

func sortMatches(m []Match) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Similarity > m[j].Similarity })
}

// StrengthScore maps a supporting-claim count to a strength score:
// 0, 1 and 2 map to themselves and n >= 3 maps to 3 + ln(n-2).
func StrengthScore(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n < 3 {
		return float64(n)
	}
	return 3 + math.Log(float64(n-2))
}
