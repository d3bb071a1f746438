// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claims-kb/internal/knowledge"
	"github.com/pdiddy/claims-kb/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite claim index (sync, retrieve, export)",
}

// --- sync subcommand ---

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index new and changed claims, drop deleted ones",
	Long: `Sync compares each claim's content hash with the index and stores
new or changed claims with their embeddings. Claims no longer in the
markdown database are removed. The YAML export is refreshed when anything
changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		store, err := a.openIndex()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Sync(cmd.Context(), a.repo.Claims(), os.Stdout)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d claims failed to index", summary.Failed)
		}
		return nil
	},
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the index with full-text search and filters",
	Long: `Retrieve searches indexed claims using FTS5 full-text search over the
claim text, context and primary quote, structured filters (category,
source, section), or a combination of both.

Use --trace with a claim id to print its markdown block as stored on disk.`,
	RunE: runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	traceID, _ := cmd.Flags().GetString("trace")

	store, err := knowledge.NewStore(cfg.Claims, cfg.Index, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if traceID != "" {
		text, err := store.Trace(cmd.Context(), traceID)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --source, or --section")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-4s  %-6s  %-12s  %-50s  %-16s  %s\n", "Rank", "ID", "Category", "Text", "Source", "Sections")
	fmt.Println(strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Printf("%-4d  %-6s  %-12s  %-50s  %-16s  %s\n",
			i+1, r.ID, truncate(string(r.Category), 12), truncate(r.Text, 50),
			truncate(r.Source, 16), strings.Join(r.Sections, ","))
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export indexed claims to YAML or JSON",
	Long: `Export writes the indexed claims (or a filtered subset) to
index/export.yaml or index/export.json under the knowledge directory.
Supports the same filter flags as retrieve for partial exports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		store, err := knowledge.NewStore(cfg.Claims, cfg.Index, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := queryOptsFromFlags(cmd, args)
		switch format {
		case "yaml", "":
			err = store.ExportYAML(cmd.Context(), opts)
			format = "yaml"
		case "json":
			err = store.ExportJSON(cmd.Context(), opts)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", store.ExportPath(format))
		return nil
	},
}

// --- nearest subcommand ---

var indexNearestCmd = &cobra.Command{
	Use:   "nearest <text>",
	Short: "List indexed claims closest in meaning to a text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		store, err := a.openIndex()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		neighbors, err := store.Nearest(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(neighbors)
		}
		for _, n := range neighbors {
			fmt.Printf("%.3f  %-6s  %-16s  %s\n", n.Similarity, n.Claim.ID, truncate(n.Claim.Source, 16), truncate(n.Claim.Text, 70))
		}
		return nil
	},
}

// --- sources subcommand ---

var indexSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List cited sources with their claim counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := knowledge.NewStore(cfg.Claims, cfg.Index, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		sources, err := store.Sources(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(sources)
		}
		fmt.Printf("%-24s  %-8s  %s\n", "Source", "SourceID", "Claims")
		fmt.Println(strings.Repeat("-", 44))
		for _, s := range sources {
			fmt.Printf("%-24s  %-8d  %d\n", truncate(s.Source, 24), s.SourceID, s.Claims)
		}
		return nil
	},
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	var opts knowledge.QueryOptions
	if len(args) > 0 {
		opts.Query = strings.Join(args, " ")
	}
	category, _ := cmd.Flags().GetString("category")
	opts.Category = types.Category(category)
	opts.Source, _ = cmd.Flags().GetString("source")
	opts.Section, _ = cmd.Flags().GetString("section")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")
	return opts
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "filter by claim category")
	cmd.Flags().String("source", "", "filter by source key (e.g. Johnson2007)")
	cmd.Flags().String("section", "", "filter by manuscript section id")
	cmd.Flags().Int("limit", 0, "maximum results (0 = index.max_results)")
}

func init() {
	addFilterFlags(indexRetrieveCmd)
	indexRetrieveCmd.Flags().String("trace", "", "print the markdown block for a claim id")
	indexRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(indexExportCmd)
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	indexNearestCmd.Flags().Int("limit", 0, "number of neighbors (0 = index.max_results)")
	indexNearestCmd.Flags().Bool("json", false, "output neighbors as JSON")

	indexSourcesCmd.Flags().Bool("json", false, "output sources as JSON")

	indexCmd.AddCommand(indexSyncCmd, indexRetrieveCmd, indexExportCmd, indexNearestCmd, indexSourcesCmd)
	rootCmd.AddCommand(indexCmd)
}
