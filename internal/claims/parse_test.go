// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"strings"
	"testing"

	"github.com/pdiddy/claims-kb/pkg/types"
)

const twoClaims = `# Claims and Evidence

## C_01: ComBat adjusts for batch effects using empirical Bayes

**Category:** Method  
**Source:** Johnson2007 (Source ID: 1)  
**Context:** Microarray expression data

**Primary Quote**:
> "We propose parametric and non-parametric empirical Bayes frameworks
> for adjusting data for batch effects."

**Supporting Quotes**:
- (Section 2.3): "The method is robust to outliers in small sample sizes."
- "Batch effects are a common source of variation
  in high-throughput experiments."

---

## C_02: Batch correction can remove true biological signal

**Category**: Challenge
**Source**: Johnson2007 (Source ID: 2)

**Primary Quote**
> Correction may remove signal.

---
`

func TestParseWellFormedBlocks(t *testing.T) {
	claims, warnings := Parse(twoClaims)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}

	c := claims[0]
	if c.ID != "C_01" {
		t.Errorf("ID = %q, want C_01", c.ID)
	}
	if c.Text != "ComBat adjusts for batch effects using empirical Bayes" {
		t.Errorf("Text = %q", c.Text)
	}
	if c.Category != types.CategoryMethod {
		t.Errorf("Category = %q, want Method", c.Category)
	}
	if c.Source != "Johnson2007" || c.SourceID != 1 {
		t.Errorf("Source = %q/%d, want Johnson2007/1", c.Source, c.SourceID)
	}
	if c.Context != "Microarray expression data" {
		t.Errorf("Context = %q", c.Context)
	}
	wantPrimary := "We propose parametric and non-parametric empirical Bayes frameworks for adjusting data for batch effects."
	if c.PrimaryQuote.Text != wantPrimary {
		t.Errorf("PrimaryQuote = %q, want %q", c.PrimaryQuote.Text, wantPrimary)
	}
	if len(c.SupportingQuotes) != 2 {
		t.Fatalf("got %d supporting quotes, want 2: %+v", len(c.SupportingQuotes), c.SupportingQuotes)
	}
	if got := c.SupportingQuotes[0].Text; got != "The method is robust to outliers in small sample sizes." {
		t.Errorf("SupportingQuotes[0] = %q", got)
	}
	if got := c.SupportingQuotes[1].Text; got != "Batch effects are a common source of variation in high-throughput experiments." {
		t.Errorf("SupportingQuotes[1] = %q", got)
	}

	c2 := claims[1]
	if c2.Category != types.CategoryChallenge {
		t.Errorf("C_02 Category = %q, want Challenge", c2.Category)
	}
	if c2.Source != "Johnson2007" || c2.SourceID != 2 {
		t.Errorf("C_02 Source = %q/%d, want Johnson2007/2", c2.Source, c2.SourceID)
	}
	if c2.PrimaryQuote.Text != "Correction may remove signal." {
		t.Errorf("C_02 PrimaryQuote = %q", c2.PrimaryQuote.Text)
	}
}

func TestParseSkipsMalformedHeader(t *testing.T) {
	content := `## C_01: first

**Category:** Result

---

## C_x2: broken header

**Category:** Method

---

## C_03: third
`
	claims, warnings := Parse(content)
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Line != 7 {
		t.Errorf("warning line = %d, want 7", warnings[0].Line)
	}
	if len(claims) != 2 || claims[0].ID != "C_01" || claims[1].ID != "C_03" {
		t.Fatalf("claims = %+v, want C_01 and C_03", claims)
	}
}

func TestParseSourceVariants(t *testing.T) {
	tests := []struct {
		line       string
		wantSource string
		wantID     int
	}{
		{"**Source:** Johnson2007 (Source ID: 2)", "Johnson2007", 2},
		{"**Source**: Leek2007 (Source ID:7)", "Leek2007", 7},
		{"**Source:** unknown reference", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			claims, _ := Parse("## C_01: text\n" + tt.line + "\n")
			if len(claims) != 1 {
				t.Fatalf("got %d claims", len(claims))
			}
			if claims[0].Source != tt.wantSource || claims[0].SourceID != tt.wantID {
				t.Errorf("got %q/%d, want %q/%d", claims[0].Source, claims[0].SourceID, tt.wantSource, tt.wantID)
			}
		})
	}
}

func TestParseNewDashStartsNewQuote(t *testing.T) {
	content := "## C_05: text\n**Supporting Quotes**:\n- \"first part\n  continues\n- second\n"
	claims, _ := Parse(content)
	if len(claims) != 1 {
		t.Fatalf("got %d claims", len(claims))
	}
	q := claims[0].SupportingQuotes
	if len(q) != 2 {
		t.Fatalf("got %d quotes, want 2: %+v", len(q), q)
	}
	if q[0].Text != `"first part continues` {
		t.Errorf("quote 0 = %q", q[0].Text)
	}
	if q[1].Text != "second" {
		t.Errorf("quote 1 = %q", q[1].Text)
	}
}

func TestParseSupplementedFields(t *testing.T) {
	content := "## C_09: text\n**Sections:** 2.1, 3.4\n**Verified:** true\n"
	claims, _ := Parse(content)
	if len(claims) != 1 {
		t.Fatalf("got %d claims", len(claims))
	}
	if !claims[0].Verified {
		t.Error("Verified = false, want true")
	}
	if len(claims[0].Sections) != 2 || !claims[0].HasSection("2.1") || !claims[0].HasSection("3.4") {
		t.Errorf("Sections = %v", claims[0].Sections)
	}
}

func TestRoundTrip(t *testing.T) {
	in := []types.Claim{
		{
			ID: "C_03", Text: "Harmony integrates   single-cell data", Category: types.CategoryApplication,
			Source: "Korsunsky2019", SourceID: 8, Context: "scRNA-seq integration",
			PrimaryQuote: types.Quote{Text: `Harmony "iteratively" clusters cells`},
			SupportingQuotes: []types.Quote{
				{Text: "Runs on a laptop."},
				{Text: "Scales to\nmillions of cells."},
			},
			Sections: []string{"3.1", "2.4"},
			Verified: true,
		},
		{ID: "C_10", Text: "Uncategorized observation", Category: "Speculation"},
	}

	var b strings.Builder
	renderBlocks(&b, in)
	out, warnings := Parse(b.String())
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d claims, want %d", len(out), len(in))
	}

	norm := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	for i := range in {
		want, got := in[i], out[i]
		if got.ID != want.ID || norm(got.Text) != norm(want.Text) || got.Category != want.Category ||
			got.Source != want.Source || got.SourceID != want.SourceID || got.Context != want.Context {
			t.Errorf("claim %d: got %+v, want %+v", i, got, want)
		}
		if norm(got.PrimaryQuote.Text) != norm(want.PrimaryQuote.Text) {
			t.Errorf("claim %d primary quote: got %q, want %q", i, got.PrimaryQuote.Text, want.PrimaryQuote.Text)
		}
		if len(got.SupportingQuotes) != len(want.SupportingQuotes) {
			t.Fatalf("claim %d: got %d supporting quotes, want %d", i, len(got.SupportingQuotes), len(want.SupportingQuotes))
		}
		for j := range want.SupportingQuotes {
			if norm(got.SupportingQuotes[j].Text) != norm(want.SupportingQuotes[j].Text) {
				t.Errorf("claim %d quote %d: got %q, want %q", i, j, got.SupportingQuotes[j].Text, want.SupportingQuotes[j].Text)
			}
		}
		if got.Verified != want.Verified || len(got.Sections) != len(want.Sections) {
			t.Errorf("claim %d: verified/sections mismatch: %+v", i, got)
		}
	}
}

func TestSortClaimsNumeric(t *testing.T) {
	claims := []types.Claim{{ID: "C_10"}, {ID: "C_2"}, {ID: "draft"}, {ID: "C_01"}, {ID: "C_100"}}
	sortClaims(claims)
	want := []string{"C_01", "C_2", "C_10", "C_100", "draft"}
	for i, c := range claims {
		if c.ID != want[i] {
			t.Fatalf("order = %v, want %v", claims, want)
		}
	}
}

func TestParsePrimaryQuoteLabel(t *testing.T) {
	tests := []struct {
		name, block, want string
	}{
		{"label and same-line quote", "**Primary Quote** (p. 12): \"abc\"", "abc"},
		{"label then blockquote", "**Primary Quote** (p. 12):\n> \"abc\"", "abc"},
		{"label without colon", "**Primary Quote** (Section 4)\n> abc", "abc"},
		{"same-line quote", "**Primary Quote**: \"abc\"", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, _ := Parse("## C_01: text\n\n" + tt.block + "\n")
			if len(claims) != 1 {
				t.Fatalf("got %d claims, want 1", len(claims))
			}
			if got := claims[0].PrimaryQuote.Text; got != tt.want {
				t.Errorf("primary = %q, want %q", got, tt.want)
			}
		})
	}
}
