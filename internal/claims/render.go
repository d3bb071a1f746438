// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// uncategorizedFile is the shard for claims outside the known categories.
const uncategorizedFile = "uncategorized.md"

// categoryFiles is the fixed category to shard filename table.
var categoryFiles = map[types.Category]string{
	types.CategoryMethod:      "methods.md",
	types.CategoryResult:      "results.md",
	types.CategoryChallenge:   "challenges.md",
	types.CategoryDataSource:  "data_sources.md",
	types.CategoryDataTrend:   "data_trends.md",
	types.CategoryApplication: "applications.md",
	types.CategoryImpact:      "impacts.md",
	types.CategoryPhenomenon:  "phenomena.md",
}

// ShardFile returns the shard filename for a category.
func ShardFile(c types.Category) string {
	if f, ok := categoryFiles[c]; ok {
		return f
	}
	return uncategorizedFile
}

// categoryForFile is the inverse of ShardFile. ok is false for files outside
// the table.
func categoryForFile(name string) (types.Category, bool) {
	if name == uncategorizedFile {
		return types.CategoryUncategorized, true
	}
	for c, f := range categoryFiles {
		if f == name {
			return c, true
		}
	}
	return "", false
}

// shardCategory names the banner category of a shard file. Files outside the
// table take their stem, so "speculation.md" becomes "speculation".
func shardCategory(name string) types.Category {
	if c, ok := categoryForFile(name); ok {
		return c
	}
	return types.Category(strings.ReplaceAll(strings.TrimSuffix(name, ".md"), "_", " "))
}

// sortClaims orders claims by ascending numeric id; ids without a numeric
// suffix sort last, lexically.
func sortClaims(claims []types.Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		ni, oki := claimNumber(claims[i].ID)
		nj, okj := claimNumber(claims[j].ID)
		switch {
		case oki && okj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return claims[i].ID < claims[j].ID
		}
	})
}

// oneLine collapses whitespace so a value fits on a single markdown line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RenderClaim serializes one claim block, without the trailing rule.
func RenderClaim(c types.Claim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s: %s\n\n", c.ID, oneLine(c.Text))

	category := c.Category
	if category == "" {
		category = types.CategoryUncategorized
	}
	fmt.Fprintf(&b, "**Category:** %s  \n", category)
	if c.Source != "" {
		fmt.Fprintf(&b, "**Source:** %s (Source ID: %d)  \n", c.Source, c.SourceID)
	}
	if c.Context != "" {
		fmt.Fprintf(&b, "**Context:** %s  \n", oneLine(c.Context))
	}
	if len(c.Sections) > 0 {
		sections := append([]string(nil), c.Sections...)
		sort.Strings(sections)
		fmt.Fprintf(&b, "**Sections:** %s  \n", strings.Join(sections, ", "))
	}
	if c.Verified {
		b.WriteString("**Verified:** true  \n")
	}

	if c.PrimaryQuote.Text != "" {
		b.WriteString("\n**Primary Quote**:\n")
		fmt.Fprintf(&b, "> \"%s\"\n", oneLine(c.PrimaryQuote.Text))
	}

	if len(c.SupportingQuotes) > 0 {
		b.WriteString("\n**Supporting Quotes**:\n")
		for _, q := range c.SupportingQuotes {
			fmt.Fprintf(&b, "- \"%s\"\n", oneLine(q.Text))
		}
	}
	return b.String()
}

// renderBlocks writes each claim in id order followed by a rule.
func renderBlocks(b *strings.Builder, claims []types.Claim) {
	sorted := append([]types.Claim(nil), claims...)
	sortClaims(sorted)
	for _, c := range sorted {
		b.WriteString(RenderClaim(c))
		b.WriteString("\n---\n\n")
	}
}

// RenderShard serializes the claims of one category file, with its banner.
func RenderShard(category types.Category, claims []types.Claim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Claims and Evidence: %s\n\n", category)
	fmt.Fprintf(&b, "This file contains all **%s** claims with their supporting evidence.\n\n", category)
	b.WriteString("---\n\n")
	renderBlocks(&b, claims)
	return b.String()
}

// RenderLegacy serializes every claim into the single-file layout.
func RenderLegacy(claims []types.Claim) string {
	var b strings.Builder
	b.WriteString("# Claims and Evidence\n\n")
	renderBlocks(&b, claims)
	return b.String()
}

// RenderIndex builds the master index that lists each category shard and maps
// every claim id to its file. claimsDir is the link prefix for shard files.
func RenderIndex(claimsDir string, claims []types.Claim) string {
	byFile := make(map[string][]types.Claim)
	for _, c := range claims {
		f := ShardFile(c.Category)
		byFile[f] = append(byFile[f], c)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("# Claims and Evidence\n\n")
	b.WriteString("## Claim Categories and Files\n\n")
	b.WriteString("Claims are organized into separate files by category.\n\n")
	b.WriteString("| Category | File | Claim Count | Claim IDs |\n")
	b.WriteString("|----------|------|-------------|-----------|\n")
	for _, f := range files {
		group := byFile[f]
		sortClaims(group)
		category, _ := categoryForFile(f)
		link := path.Join(claimsDir, f)
		fmt.Fprintf(&b, "| %s | [`%s`](%s) | %d | %s - %s |\n",
			category, f, link, len(group), group[0].ID, group[len(group)-1].ID)
	}

	all := append([]types.Claim(nil), claims...)
	sortClaims(all)
	b.WriteString("\n## Quick Reference: Claim ID to File Mapping\n\n")
	b.WriteString("| Claim ID | Category | File |\n")
	b.WriteString("|----------|----------|------|\n")
	for _, c := range all {
		f := ShardFile(c.Category)
		fmt.Fprintf(&b, "| %s | %s | [`%s`](%s) |\n", c.ID, c.Category, f, path.Join(claimsDir, f))
	}
	return b.String()
}
