// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claims-kb/internal/claims"
	"github.com/pdiddy/claims-kb/internal/similarity"
)

var relationsCmd = &cobra.Command{
	Use:   "relations [id]",
	Short: "Find supporting and contradicting claims from other sources",
	Long: `Relations compares claims from different sources. Given a claim id it
lists the supporting and contradicting claims and the strength score. With
--all it summarizes every claim, strongest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRelations,
}

func runRelations(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if len(args) == 0 && !all {
		return fmt.Errorf("claim id or --all required")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	idx := similarity.NewIndex(a.engine, cfg.Similarity)
	list := a.repo.Claims()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if all {
		analyses := idx.AnalyzeAll(list)
		ordered := make([]similarity.Analysis, 0, len(analyses))
		for _, c := range list {
			ordered = append(ordered, analyses[c.ID])
		}
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Strength > ordered[j].Strength })
		if jsonOutput {
			return printJSON(ordered)
		}
		fmt.Printf("%-6s  %-10s  %-13s  %s\n", "ID", "Supporting", "Contradicting", "Strength")
		fmt.Println(strings.Repeat("-", 48))
		for _, an := range ordered {
			fmt.Printf("%-6s  %-10d  %-13d  %.2f\n", an.ClaimID, len(an.Supporting), len(an.Contradicting), an.Strength)
		}
		return nil
	}

	target, ok := a.repo.Get(args[0])
	if !ok {
		return &claims.NotFoundError{ID: args[0]}
	}
	an := idx.Analyze(target, list)
	if jsonOutput {
		return printJSON(an)
	}

	fmt.Printf("%s: %s\n", target.ID, truncate(target.Text, 90))
	fmt.Printf("strength: %.2f\n", an.Strength)
	printMatches("supporting", an.Supporting)
	printMatches("contradicting", an.Contradicting)
	return nil
}

func printMatches(label string, matches []similarity.Match) {
	fmt.Printf("\n%s (%d)\n", label, len(matches))
	for _, m := range matches {
		fmt.Printf("  %.3f  %-6s  %-16s  %s\n", m.Similarity, m.Claim.ID, truncate(m.Claim.Source, 16), truncate(m.Claim.Text, 60))
	}
}

func init() {
	relationsCmd.Flags().Bool("all", false, "analyze every claim")
	relationsCmd.Flags().Bool("json", false, "output analysis as JSON")
	rootCmd.AddCommand(relationsCmd)
}
