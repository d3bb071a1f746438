// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank <papers.yaml>",
	Short: "Rank candidate papers against a manuscript section",
	Long: `Rank scores each paper in a YAML collection by the semantic similarity
of its abstract to the section text plus a citation boost, estimates its
reading time, and prints the papers above the relevance threshold.

The collection is either a bare list of papers or a map with a "papers"
key. --cited-by names a YAML map from paper id to the ids of papers that
cite it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	manuscript, _ := cmd.Flags().GetString("manuscript")
	sectionID, _ := cmd.Flags().GetString("section")
	if manuscript == "" || sectionID == "" {
		return fmt.Errorf("--manuscript and --section are required")
	}

	papers, err := ranking.ReadPapers(args[0])
	if err != nil {
		return err
	}
	var citedBy map[string][]string
	if path, _ := cmd.Flags().GetString("cited-by"); path != "" {
		if citedBy, err = ranking.ReadCitedBy(path); err != nil {
			return err
		}
	}

	sections, err := loadSections(manuscript)
	if err != nil {
		return err
	}
	section, err := findSection(sections, sectionID)
	if err != nil {
		return err
	}

	engine := embedding.NewEngine(cfg.Embedding, embedding.WithLogger(log))
	ranker := ranking.NewRanker(engine, cfg.Ranking)

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold <= 0 {
		threshold = cfg.Ranking.MinRelevance
	}
	ranked := ranker.FilterByRelevance(ranker.RankPapers(papers, section, citedBy), threshold)
	log.WithField("section", section.ID).WithField("papers", len(papers)).WithField("kept", len(ranked)).Debug("papers ranked")

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := ranking.WriteRankingFile(output, section, threshold, ranked); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return ranking.FormatJSON(ranked, os.Stdout)
	}
	if len(ranked) == 0 {
		fmt.Printf("No papers above relevance %.2f.\n", threshold)
		return nil
	}
	if group, _ := cmd.Flags().GetBool("group"); group {
		ranking.FormatGroups(ranking.GroupByReadingTime(ranked), os.Stdout)
		return nil
	}
	ranking.FormatTable(ranked, os.Stdout)
	return nil
}

func init() {
	rankCmd.Flags().String("manuscript", "", "manuscript markdown file or directory of section files")
	rankCmd.Flags().String("section", "", "section id to rank against")
	rankCmd.Flags().String("cited-by", "", "YAML map of paper id to citing paper ids")
	rankCmd.Flags().Float64("threshold", 0, "minimum relevance score (0 = ranking.min_relevance)")
	rankCmd.Flags().Bool("group", false, "group results by reading time")
	rankCmd.Flags().Bool("json", false, "output results as JSON")
	rankCmd.Flags().String("output", "", "also write the ranking to a YAML file")

	rootCmd.AddCommand(rankCmd)
}
