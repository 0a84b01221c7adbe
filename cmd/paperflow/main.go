// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperflow CLI. The pipeline
// stages live in internal/ packages; the CLI wires them to config and
// runs them as subcommands: run, serve, push, index, and version.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperflow/internal/secrets"
	"github.com/pdiddy/paperflow/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paperflow CLI.
var rootCmd = &cobra.Command{
	Use:   "paperflow",
	Short: "Scheduled arXiv paper pipeline with an LLM relevance filter",
	Long: `paperflow fetches recent arXiv papers on a schedule, filters them for
relevance by keyword or LLM judgment, persists JSON/PDF/Markdown artifacts
on a date-partitioned tree, enriches accepted papers with generated
summaries and translations, and pushes notifications to a gateway.

Each stage is a subcommand: run executes one pipeline pass, serve exposes
the read-only query API, push re-sends a stored paper, and index maintains
the optional full-text search index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so it can point at the secrets directory.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperflow.yaml or ~/.config/paperflow/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperflow"))
		}
	}

	viper.SetEnvPrefix("PAPERFLOW")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("arxiv.categories", []string{"cs.AI"})
	viper.SetDefault("arxiv.days_back", 1)
	viper.SetDefault("arxiv.max_results", 50)
	viper.SetDefault("arxiv.requests_per_second", 1.0)
	viper.SetDefault("arxiv.timeout", "30s")
	viper.SetDefault("arxiv.user_agent", "paperflow/"+version)

	viper.SetDefault("filter.enabled", false)
	viper.SetDefault("filter.mode", "keyword")
	viper.SetDefault("filter.keyword.match_mode", "any")
	viper.SetDefault("filter.semantic.timeout", "60s")
	viper.SetDefault("filter.semantic.max_retries", 3)
	viper.SetDefault("filter.semantic.retry_delay", "2s")

	viper.SetDefault("llm.enabled", false)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.retry_delay", "2s")

	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("gateway.timeout", "30s")

	viper.SetDefault("paths.data_root", "./data")
	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.api_prefix", "/ai_paper")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("output.json_enabled", true)
	viper.SetDefault("output.console_enabled", true)
}

// loadConfig unmarshals the viper state into the typed config and
// fills API keys from the secrets directory.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
