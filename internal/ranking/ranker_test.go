// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

// stubEmbedder returns preset vectors by text and records what it embedded.
type stubEmbedder struct {
	vectors map[string][]float64
	batches [][]string
}

func (s *stubEmbedder) Embed(text string) []float64 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	return []float64{0, 0}
}

func (s *stubEmbedder) EmbedBatch(texts []string) [][]float64 {
	s.batches = append(s.batches, texts)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.Embed(t)
	}
	return out
}

func (s *stubEmbedder) CosineSimilarity(a, b []float64) float64 {
	return embedding.CosineSimilarity(a, b)
}

func newTestRanker(e embedding.Embedder) *Ranker {
	return NewRanker(e, types.RankingConfig{})
}

func TestCitationBoost(t *testing.T) {
	r := newTestRanker(&stubEmbedder{})
	tests := []struct {
		name      string
		citations int
		citing    int
		want      float64
	}{
		{"no citations", 0, 0, 0},
		{"at threshold", 100, 0, 0.1},
		{"above threshold", 1000, 0, math.Log10(1001) / math.Log10(101) * 0.1},
		{"in-collection citing", 0, 3, 0.15},
		{"citing capped", 0, 10, 0.3},
		{"both", 100, 2, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.CitationBoost(tt.citations, tt.citing), 1e-9)
		})
	}
}

func TestReadingTime(t *testing.T) {
	r := newTestRanker(&stubEmbedder{})
	words := func(n int) string {
		s := ""
		for i := 0; i < n; i++ {
			s += "word "
		}
		return s
	}
	tests := []struct {
		name  string
		paper types.Paper
		want  int
	}{
		{"word count rounds up", types.Paper{WordCount: 4100}, 21},
		{"word count wins over pages", types.Paper{WordCount: 2000, PageCount: 40}, 10},
		{"page count", types.Paper{PageCount: 10}, 25},
		{"abstract estimate", types.Paper{Abstract: words(150)}, 25},
		{"abstract floor", types.Paper{Abstract: words(30)}, 15},
		{"title estimate", types.Paper{Title: words(20)}, 20},
		{"title floor", types.Paper{Title: "Short title"}, 15},
		{"nothing known", types.Paper{}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ReadingTime(tt.paper))
		})
	}
}

func TestRankPapers(t *testing.T) {
	section := types.OutlineSection{ID: "2.1", Title: "Batch correction", Content: []string{"ComBat and SVA."}}
	emb := &stubEmbedder{vectors: map[string][]float64{
		"Batch correction ComBat and SVA.": {1, 0},
		"abstract about batch correction":  {0.9, math.Sqrt(1 - 0.81)},
		"Only a title":                     {0.5, math.Sqrt(1 - 0.25)},
		"unrelated abstract":               {0, 1},
	}}
	papers := []types.Paper{
		{ID: "p1", Title: "Only a title", Citations: 100},
		{ID: "p2", Title: "Close", Abstract: "abstract about batch correction"},
		{ID: "p3", Title: "Far", Abstract: "unrelated abstract"},
	}
	citedBy := map[string][]string{"p3": {"p1", "p2", "p2", "p3"}}

	ranked := newTestRanker(emb).RankPapers(papers, section, citedBy)

	require.Len(t, ranked, 3)
	require.Len(t, emb.batches, 1)
	assert.Equal(t, []string{"Only a title", "abstract about batch correction", "unrelated abstract"}, emb.batches[0])

	assert.Equal(t, "p2", ranked[0].Paper.ID)
	assert.InDelta(t, 0.9, ranked[0].SemanticSimilarity, 1e-9)
	assert.InDelta(t, 0.9, ranked[0].RelevanceScore, 1e-9)

	assert.Equal(t, "p1", ranked[1].Paper.ID)
	assert.InDelta(t, 0.1, ranked[1].CitationBoost, 1e-9)
	assert.InDelta(t, 0.6, ranked[1].RelevanceScore, 1e-9)

	// p3 is cited by p1 and p2 once each; its self-citation is ignored.
	assert.Equal(t, "p3", ranked[2].Paper.ID)
	assert.InDelta(t, 0.1, ranked[2].CitationBoost, 1e-9)
	assert.InDelta(t, 0.1, ranked[2].RelevanceScore, 1e-9)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].RelevanceScore, ranked[i].RelevanceScore)
	}
}

func TestRankPapersEmpty(t *testing.T) {
	emb := &stubEmbedder{}
	assert.Empty(t, newTestRanker(emb).RankPapers(nil, types.OutlineSection{Title: "x"}, nil))
	assert.Empty(t, emb.batches)
}

func TestRankPapersWithEngine(t *testing.T) {
	engine := embedding.NewEngine(types.EmbeddingConfig{})
	section := types.OutlineSection{Title: "Batch effect correction in gene expression"}
	papers := []types.Paper{
		{ID: "far", Title: "Galaxy rotation curves", Abstract: "Rotation curves of spiral galaxies observed with radio telescopes."},
		{ID: "near", Title: "Adjusting batch effects", Abstract: "Batch effect correction for gene expression microarray data."},
	}
	ranked := newTestRanker(engine).RankPapers(papers, section, nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].Paper.ID)
	assert.Greater(t, ranked[0].SemanticSimilarity, ranked[1].SemanticSimilarity)
}

func TestFilterByRelevance(t *testing.T) {
	r := newTestRanker(&stubEmbedder{})
	ranked := []types.RankedPaper{
		{Paper: types.Paper{ID: "a"}, RelevanceScore: 0.8},
		{Paper: types.Paper{ID: "b"}, RelevanceScore: 0.3},
		{Paper: types.Paper{ID: "c"}, RelevanceScore: 0.29},
	}

	got := r.FilterByRelevance(ranked, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Paper.ID)
	assert.Equal(t, "b", got[1].Paper.ID)

	got = r.FilterByRelevance(ranked, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Paper.ID)
}

func TestGroupByReadingTime(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, ReadingShort},
		{14, ReadingShort},
		{15, ReadingMedium},
		{29, ReadingMedium},
		{30, ReadingLong},
		{60, ReadingLong},
		{61, ReadingVeryLong},
	}
	var ranked []types.RankedPaper
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReadingTimeLabel(tt.minutes), "minutes=%d", tt.minutes)
		ranked = append(ranked, types.RankedPaper{EstimatedReadingTime: tt.minutes})
	}

	groups := GroupByReadingTime(ranked)
	assert.Len(t, groups[ReadingShort], 2)
	assert.Len(t, groups[ReadingMedium], 2)
	assert.Len(t, groups[ReadingLong], 2)
	assert.Len(t, groups[ReadingVeryLong], 1)
	assert.Equal(t, 14, groups[ReadingShort][1].EstimatedReadingTime)
}

func TestReadPapers(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.yaml")
	writeFile(t, wrapped, "papers:\n  - id: p1\n    title: First\n    citations: 12\n  - id: p2\n    title: Second\n")
	papers, err := ReadPapers(wrapped)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, 12, papers[0].Citations)

	bare := filepath.Join(dir, "bare.yaml")
	writeFile(t, bare, "- id: p3\n  title: Third\n  word_count: 5000\n")
	papers, err = ReadPapers(bare)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, 5000, papers[0].WordCount)

	_, err = ReadPapers(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestReadCitedBy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cited.yaml")
	writeFile(t, path, "p1: [p2, p3]\np2: []\n")
	m, err := ReadCitedBy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, m["p1"])
}

func TestRankingFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	section := types.OutlineSection{ID: "3", Title: "Results"}
	ranked := []types.RankedPaper{{Paper: types.Paper{ID: "p1", Title: "T"}, RelevanceScore: 0.7, EstimatedReadingTime: 12}}

	require.NoError(t, WriteRankingFile(path, section, 0.3, ranked))
	rf, err := ReadRankingFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3", rf.Section)
	assert.Equal(t, 0.3, rf.Threshold)
	require.Len(t, rf.Results, 1)
	assert.Equal(t, "p1", rf.Results[0].Paper.ID)
	assert.Equal(t, 12, rf.Results[0].EstimatedReadingTime)
}
