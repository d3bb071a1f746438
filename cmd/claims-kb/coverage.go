// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claims-kb/internal/draft"
	"github.com/pdiddy/claims-kb/internal/ranking"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage <manuscript>",
	Short: "Report how many claims back each manuscript section",
	Long: `Coverage parses the manuscript headings into sections and counts the
claims linked to each section id. Levels: none (0), low (1-3),
moderate (4-6), strong (7+).`,
	Args: cobra.ExactArgs(1),
	RunE: runCoverage,
}

func runCoverage(cmd *cobra.Command, args []string) error {
	sections, err := loadSections(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	metrics := ranking.NewCoverageAnalyzer().AnalyzeCoverage(sections, a.repo.Claims())
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(metrics)
	}

	fmt.Printf("%-24s  %-40s  %-6s  %s\n", "Section", "Title", "Claims", "Coverage")
	fmt.Println(strings.Repeat("-", 88))
	for i, m := range metrics {
		title := strings.Repeat("  ", max(sections[i].Level-1, 0)) + sections[i].Title
		fmt.Printf("%-24s  %-40s  %-6d  %s\n", truncate(m.SectionID, 24), truncate(title, 40), m.ClaimCount, m.CoverageLevel)
	}
	return nil
}

var gapsCmd = &cobra.Command{
	Use:   "gaps <manuscript>",
	Short: "List sections with fewer claims than the gap threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := loadSections(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}

		threshold, _ := cmd.Flags().GetInt("threshold")
		if threshold <= 0 {
			threshold = cfg.Coverage.GapThreshold
		}
		gaps := ranking.NewCoverageAnalyzer().IdentifyGaps(sections, a.repo.Claims(), threshold)
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(gaps)
		}
		if len(gaps) == 0 {
			fmt.Printf("No sections below %d claims.\n", threshold)
			return nil
		}
		for _, g := range gaps {
			fmt.Printf("%s %s (line %d): %d claims\n", g.Section.ID, g.Section.Title, g.Section.LineStart, g.Metric.ClaimCount)
			for _, q := range g.Metric.SuggestedQueries {
				fmt.Printf("  query: %s\n", q)
			}
		}
		return nil
	},
}

var queriesCmd = &cobra.Command{
	Use:   "queries <manuscript> <section>",
	Short: "Suggest literature search queries for a section",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := loadSections(args[0])
		if err != nil {
			return err
		}
		section, err := findSection(sections, args[1])
		if err != nil {
			return err
		}
		for _, q := range ranking.SuggestSearchQueries(section) {
			fmt.Println(q)
		}
		return nil
	},
}

var citationsCmd = &cobra.Command{
	Use:   "citations <manuscript> [section]",
	Short: "Check manuscript citations against claim sources",
	Long: `Citations reports citation keys ([AuthorYear]) used in the manuscript
that no claim carries as its source. Given a section id, it instead lists
the claims whose source that section cites.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := loadSections(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}

		if len(args) == 2 {
			section, err := findSection(sections, args[1])
			if err != nil {
				return err
			}
			return printClaims(cmd, draft.SectionCitations(section, a.repo.Claims()))
		}

		missing := draft.ValidateCitations(sections, a.repo.Claims())
		if len(missing) == 0 {
			fmt.Println("Every cited key has at least one claim.")
			return nil
		}
		fmt.Printf("%d cited keys without claims:\n", len(missing))
		for _, k := range missing {
			fmt.Printf("  %s\n", k)
		}
		return nil
	},
}

func init() {
	coverageCmd.Flags().Bool("json", false, "output metrics as JSON")
	gapsCmd.Flags().Int("threshold", 0, "claim count below which a section is a gap (0 = coverage.gap_threshold)")
	gapsCmd.Flags().Bool("json", false, "output gaps as JSON")
	citationsCmd.Flags().Bool("json", false, "output claims as JSON")

	rootCmd.AddCommand(coverageCmd, gapsCmd, queriesCmd, citationsCmd)
}
