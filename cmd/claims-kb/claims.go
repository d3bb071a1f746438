// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claims-kb/internal/claims"
	"github.com/pdiddy/claims-kb/pkg/types"
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Manage the claim database (list, add, update, merge, search)",
	Long: `Claims reads and edits the markdown claim database. Edits rewrite only
the category files whose rendered content changed.`,
}

// --- list / show ---

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims, optionally filtered by category, source, or section",
	Args:  cobra.NoArgs,
	RunE:  runClaimsList,
}

func runClaimsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")
	section, _ := cmd.Flags().GetString("section")

	var list []types.Claim
	switch {
	case section != "":
		list = a.repo.FindBySection(section)
	case source != "":
		list = a.repo.FindBySource(source)
	default:
		list = a.repo.Claims()
	}
	if category != "" {
		list = filterCategory(list, types.Category(category))
	}
	return printClaims(cmd, list)
}

func filterCategory(list []types.Claim, category types.Category) []types.Claim {
	var out []types.Claim
	for _, c := range list {
		if strings.EqualFold(string(c.Category), string(category)) {
			out = append(out, c)
		}
	}
	return out
}

func printClaims(cmd *cobra.Command, list []types.Claim) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No claims found.")
		return nil
	}

	fmt.Printf("%-6s  %-12s  %-16s  %s\n", "ID", "Category", "Source", "Text")
	fmt.Println(strings.Repeat("-", 100))
	for _, c := range list {
		fmt.Printf("%-6s  %-12s  %-16s  %s\n",
			c.ID, truncate(string(c.Category), 12), truncate(c.Source, 16), truncate(c.Text, 60))
	}
	fmt.Printf("\n%d claims\n", len(list))
	return nil
}

var claimsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one claim as its markdown block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		c, ok := a.repo.Get(args[0])
		if !ok {
			return &claims.NotFoundError{ID: args[0]}
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(c)
		}
		fmt.Print(claims.RenderClaim(c))
		return nil
	},
}

// --- add / update / delete ---

var claimsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a claim; the id is assigned automatically unless --id is given",
	Args:  cobra.NoArgs,
	RunE:  runClaimsAdd,
}

func runClaimsAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.reportWrites(os.Stdout)()

	f := cmd.Flags()
	c := types.Claim{}
	c.ID, _ = f.GetString("id")
	c.Text, _ = f.GetString("text")
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("--text is required")
	}
	category, _ := f.GetString("category")
	c.Category = types.Category(category)
	c.Context, _ = f.GetString("context")
	c.Source, _ = f.GetString("source")
	c.SourceID, _ = f.GetInt("source-id")
	quote, _ := f.GetString("quote")
	c.PrimaryQuote = types.Quote{Text: quote, Source: c.Source}
	supporting, _ := f.GetStringArray("supporting")
	for _, q := range supporting {
		c.SupportingQuotes = append(c.SupportingQuotes, types.Quote{Text: q, Source: c.Source})
	}
	c.Sections, _ = f.GetStringSlice("section")
	c.Verified, _ = f.GetBool("verified")

	if c.ID != "" {
		if _, exists := a.repo.Get(c.ID); exists {
			return fmt.Errorf("claim %s already exists: use claims update", c.ID)
		}
	}

	saved, err := a.repo.Save(cmd.Context(), c)
	if err != nil {
		return err
	}
	fmt.Printf("added %s\n", saved.ID)

	if similar := a.repo.DetectSimilar(saved.Text, cfg.Similarity.SimilarityThreshold); len(similar) > 0 {
		for _, s := range similar {
			if s.Claim.ID != saved.ID {
				fmt.Printf("  similar: %s (%.2f) %s\n", s.Claim.ID, s.Similarity, truncate(s.Claim.Text, 60))
			}
		}
	}
	return nil
}

var claimsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an existing claim; only flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimsUpdate,
}

func runClaimsUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.reportWrites(os.Stdout)()

	f := cmd.Flags()
	var u claims.ClaimUpdate
	if f.Changed("text") {
		v, _ := f.GetString("text")
		u.Text = &v
	}
	if f.Changed("category") {
		v, _ := f.GetString("category")
		cat := types.Category(v)
		u.Category = &cat
	}
	if f.Changed("context") {
		v, _ := f.GetString("context")
		u.Context = &v
	}
	if f.Changed("source") {
		v, _ := f.GetString("source")
		u.Source = &v
	}
	if f.Changed("source-id") {
		v, _ := f.GetInt("source-id")
		u.SourceID = &v
	}
	if f.Changed("quote") {
		v, _ := f.GetString("quote")
		u.PrimaryQuote = &types.Quote{Text: v}
	}
	if f.Changed("supporting") {
		supporting, _ := f.GetStringArray("supporting")
		u.SupportingQuotes = []types.Quote{}
		for _, q := range supporting {
			u.SupportingQuotes = append(u.SupportingQuotes, types.Quote{Text: q})
		}
	}
	if f.Changed("section") {
		u.Sections, _ = f.GetStringSlice("section")
		if u.Sections == nil {
			u.Sections = []string{}
		}
	}
	if f.Changed("verified") {
		v, _ := f.GetBool("verified")
		u.Verified = &v
	}

	c, err := a.repo.Update(cmd.Context(), args[0], u)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s\n", c.ID)
	return nil
}

var claimsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.reportWrites(os.Stdout)()
		if err := a.repo.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

// --- search / similar / merge / next-id ---

var claimsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Case-insensitive substring search over claim text, primary quote, and context",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		return printClaims(cmd, a.repo.Search(strings.Join(args, " ")))
	},
}

var claimsSimilarCmd = &cobra.Command{
	Use:   "similar <text>",
	Short: "Find claims similar to a text, most similar first",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		if threshold <= 0 {
			threshold = cfg.Similarity.SimilarityThreshold
		}

		similar := a.repo.DetectSimilar(strings.Join(args, " "), threshold)
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(similar)
		}
		if len(similar) == 0 {
			fmt.Printf("No claims at or above %.2f similarity.\n", threshold)
			return nil
		}
		for _, s := range similar {
			fmt.Printf("%.3f  %-6s  %s\n", s.Similarity, s.Claim.ID, truncate(s.Claim.Text, 80))
		}
		return nil
	},
}

var claimsMergeCmd = &cobra.Command{
	Use:   "merge <id> <id>...",
	Short: "Merge claims into the first one, combining quotes and sections",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.reportWrites(os.Stdout)()
		merged, err := a.repo.Merge(cmd.Context(), args)
		if err != nil {
			return err
		}
		fmt.Printf("merged %s into %s\n", strings.Join(args[1:], ", "), merged.ID)
		return nil
	},
}

var claimsNextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Print the id the next added claim will receive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(a.repo.NextID())
		return nil
	},
}

func addClaimFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("text", "", "claim text")
	f.String("category", "", "category: Method, Result, Challenge, Data Source, Data Trend, Application, Impact, Phenomenon")
	f.String("context", "", "context of the claim")
	f.String("source", "", "source citation key (AuthorYear)")
	f.Int("source-id", 0, "numeric source id")
	f.String("quote", "", "primary quote")
	f.StringArray("supporting", nil, "supporting quote (repeatable)")
	f.StringSlice("section", nil, "manuscript section id (repeatable or comma-separated)")
	f.Bool("verified", false, "mark the claim as verified")
}

func init() {
	claimsListCmd.Flags().String("category", "", "filter by category")
	claimsListCmd.Flags().String("source", "", "filter by source")
	claimsListCmd.Flags().String("section", "", "filter by manuscript section id")
	claimsListCmd.Flags().Bool("json", false, "output claims as JSON")
	claimsShowCmd.Flags().Bool("json", false, "output the claim as JSON")
	claimsSearchCmd.Flags().Bool("json", false, "output claims as JSON")
	claimsSimilarCmd.Flags().Float64("threshold", 0, "minimum similarity (0 = similarity_threshold from config)")
	claimsSimilarCmd.Flags().Bool("json", false, "output matches as JSON")

	addClaimFieldFlags(claimsAddCmd)
	claimsAddCmd.Flags().String("id", "", "explicit claim id (default: next free id)")
	addClaimFieldFlags(claimsUpdateCmd)

	claimsCmd.AddCommand(claimsListCmd, claimsShowCmd, claimsAddCmd, claimsUpdateCmd,
		claimsDeleteCmd, claimsSearchCmd, claimsSimilarCmd, claimsMergeCmd, claimsNextIDCmd)
	rootCmd.AddCommand(claimsCmd)
}
