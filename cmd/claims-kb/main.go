// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the claims-kb CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the effective configuration, resolved before each command runs.
	cfg = types.DefaultConfig()

	// log is the CLI logger; library packages receive it explicitly.
	log = logrus.New()
)

// rootCmd is the base command for the claims-kb CLI.
var rootCmd = &cobra.Command{
	Use:   "claims-kb",
	Short: "Claims knowledge base for literature-backed manuscripts",
	Long: `claims-kb tracks factual claims extracted from the literature, links them
to manuscript sections, and ranks candidate papers by relevance.

Claims live as markdown blocks sharded by category under knowledge/claims/.
Subcommands manage claims, find supporting and contradicting evidence,
measure section coverage, rank papers, and maintain a SQLite search index.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return setupLogging()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./claims-kb.yaml or ~/.config/claims-kb/claims-kb.yaml)")
	flags.String("knowledge-dir", cfg.Claims.KnowledgeDir, "base directory for knowledge (contains claims/, index/)")
	flags.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	viper.BindPFlag("claims.knowledge_dir", flags.Lookup("knowledge-dir"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("claims-kb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "claims-kb"))
		}
	}

	setDefaults(types.DefaultConfig())

	viper.SetEnvPrefix("CLAIMS_KB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides and Unmarshal see it.
func setDefaults(d types.Config) {
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("claims.knowledge_dir", d.Claims.KnowledgeDir)
	viper.SetDefault("claims.claims_dir", d.Claims.ClaimsDir)
	viper.SetDefault("claims.legacy_file", d.Claims.LegacyFile)
	viper.SetDefault("claims.write_index", d.Claims.WriteIndex)
	viper.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	viper.SetDefault("embedding.max_cache_size", d.Embedding.MaxCacheSize)
	viper.SetDefault("similarity.contradiction_threshold", d.Similarity.ContradictionThreshold)
	viper.SetDefault("similarity.similarity_threshold", d.Similarity.SimilarityThreshold)
	viper.SetDefault("ranking.citation_boost_factor", d.Ranking.CitationBoostFactor)
	viper.SetDefault("ranking.citation_threshold", d.Ranking.CitationThreshold)
	viper.SetDefault("ranking.words_per_minute", d.Ranking.WordsPerMinute)
	viper.SetDefault("ranking.default_page_word_count", d.Ranking.DefaultPageWordCount)
	viper.SetDefault("ranking.min_relevance", d.Ranking.MinRelevance)
	viper.SetDefault("coverage.gap_threshold", d.Coverage.GapThreshold)
	viper.SetDefault("index.max_results", d.Index.MaxResults)
}

// loadConfig decodes viper's merged view (defaults, file, env, flags) into cfg
// using the yaml field names.
func loadConfig() error {
	var c types.Config
	err := viper.Unmarshal(&c, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}
	cfg = c
	return nil
}

func setupLogging() error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch format := viper.GetString("log_format"); format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format %q: use text or json", format)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
