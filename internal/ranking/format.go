// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// FormatTable writes ranked papers as a human-readable table to w.
func FormatTable(ranked []types.RankedPaper, w io.Writer) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No papers ranked.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-20s  %-4s  %-6s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Sim", "Boost", "Read")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	for i, r := range ranked {
		year := ""
		if r.Paper.Year > 0 {
			year = fmt.Sprintf("%d", r.Paper.Year)
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-20s  %-4s  %-6.3f  %-6.3f  %-6.3f  %d min\n",
			i+1, truncate(r.Paper.Title, 50), formatAuthors(r.Paper.Authors), year,
			r.RelevanceScore, r.SemanticSimilarity, r.CitationBoost, r.EstimatedReadingTime)
	}

	fmt.Fprintf(w, "\n%d papers\n", len(ranked))
}

// FormatGroups writes papers grouped by reading time, shortest bucket first.
func FormatGroups(groups map[string][]types.RankedPaper, w io.Writer) {
	for _, label := range ReadingTimeLabels {
		papers := groups[label]
		if len(papers) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", label, len(papers))
		for _, r := range papers {
			fmt.Fprintf(w, "  %.3f  %s\n", r.RelevanceScore, truncate(r.Paper.Title, 70))
		}
	}
}

// FormatJSON writes ranked papers as indented JSON to w.
func FormatJSON(ranked []types.RankedPaper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ranked)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
