// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/pdiddy/claims-kb/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func claimsFor(sections ...[]string) []types.Claim {
	out := make([]types.Claim, len(sections))
	for i, s := range sections {
		out[i] = types.Claim{ID: "C_" + string(rune('a'+i)), Sections: s}
	}
	return out
}

func TestCoverageLevelFor(t *testing.T) {
	for n := 0; n <= 20; n++ {
		var want types.CoverageLevel
		switch {
		case n == 0:
			want = types.CoverageNone
		case n >= 1 && n <= 3:
			want = types.CoverageLow
		case n >= 4 && n <= 6:
			want = types.CoverageModerate
		default:
			want = types.CoverageStrong
		}
		if got := CoverageLevelFor(n); got != want {
			t.Errorf("CoverageLevelFor(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestAnalyzeCoverage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewCoverageAnalyzer(WithClock(func() time.Time { return now }))

	sections := []types.OutlineSection{
		{ID: "1", Title: "Introduction"},
		{ID: "2", Title: "Methods"},
		{ID: "3", Title: "Results"},
	}
	var claims []types.Claim
	for i := 0; i < 5; i++ {
		claims = append(claims, types.Claim{ID: "m", Sections: []string{"2"}})
	}
	claims = append(claims, claimsFor([]string{"1", "1"}, []string{"1", "2"}, nil)...)

	metrics := a.AnalyzeCoverage(sections, claims)
	if len(metrics) != 3 {
		t.Fatalf("got %d metrics, want 3", len(metrics))
	}

	want := []struct {
		id    string
		count int
		level types.CoverageLevel
	}{
		{"1", 2, types.CoverageLow},
		{"2", 6, types.CoverageModerate},
		{"3", 0, types.CoverageNone},
	}
	for i, w := range want {
		m := metrics[i]
		if m.SectionID != w.id || m.ClaimCount != w.count || m.CoverageLevel != w.level {
			t.Errorf("metric %d = {%s %d %s}, want {%s %d %s}", i, m.SectionID, m.ClaimCount, m.CoverageLevel, w.id, w.count, w.level)
		}
		if !m.LastUpdated.Equal(now) {
			t.Errorf("metric %d LastUpdated = %v", i, m.LastUpdated)
		}
		if n := len(m.SuggestedQueries); n < 2 || n > 5 {
			t.Errorf("metric %d has %d queries", i, n)
		}
	}
}

func TestIdentifyGaps(t *testing.T) {
	a := NewCoverageAnalyzer()
	sections := []types.OutlineSection{
		{ID: "1", Level: 1, Title: "Intro", LineStart: 1},
		{ID: "1.1", Level: 2, Title: "Background", LineStart: 5},
		{ID: "2", Level: 1, Title: "Methods", LineStart: 20},
		{ID: "2.1", Level: 2, Title: "Data", LineStart: 25},
		{ID: "3", Level: 1, Title: "Results", LineStart: 40},
	}
	claims := claimsFor(
		[]string{"2"}, []string{"2"}, []string{"2.1"},
		[]string{"1.1"}, []string{"1.1"}, []string{"1.1"},
	)

	gaps := a.IdentifyGaps(sections, claims, 2)

	var got []string
	for _, g := range gaps {
		if g.Metric.ClaimCount >= 2 {
			t.Errorf("gap %s has %d claims", g.Section.ID, g.Metric.ClaimCount)
		}
		got = append(got, g.Section.ID)
	}
	want := []string{"1", "3", "2.1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("gaps = %v, want %v", got, want)
	}

	if d := a.IdentifyGaps(sections, claims, 0); len(d) != len(gaps) {
		t.Errorf("default threshold gave %d gaps, want %d", len(d), len(gaps))
	}
	if all := a.IdentifyGaps(sections, claims, 10); len(all) != len(sections) {
		t.Errorf("threshold 10 gave %d gaps, want %d", len(all), len(sections))
	}
}

func TestSuggestSearchQueries(t *testing.T) {
	section := types.OutlineSection{
		ID:    "2.1",
		Title: "Batch Effect Correction",
		Content: []string{
			"How does ComBat compare to SVA?",
			"RNA-seq batch effects confound batch comparisons.",
		},
	}
	got := SuggestSearchQueries(section)
	want := []string{
		"Batch Effect Correction",
		"How does ComBat compare to SVA",
		"SVA batch effect correction",
		"RNA-seq batch effect correction",
		"batch combat compare",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestSearchQueries =\n%q\nwant\n%q", got, want)
	}
}

func TestSuggestSearchQueriesBounds(t *testing.T) {
	tests := []struct {
		name    string
		section types.OutlineSection
		want    []string
	}{
		{
			"title only",
			types.OutlineSection{ID: "intro", Title: "Introduction"},
			[]string{"Introduction", "introduction review"},
		},
		{
			"no title",
			types.OutlineSection{ID: "related-work"},
			[]string{"related work review", "related work methods"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestSearchQueries(tt.section); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	busy := types.OutlineSection{
		Title: "Methods",
		Content: []string{
			"Why normalize? What about GC-content? Is PCA enough? Do we need UMAP? Which t-SNE settings?",
		},
	}
	if n := len(SuggestSearchQueries(busy)); n != 5 {
		t.Errorf("busy section gave %d queries, want 5", n)
	}
}
