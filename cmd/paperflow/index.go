// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/index"
	"github.com/pdiddy/paperflow/internal/logging"
	"github.com/pdiddy/paperflow/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the optional full-text search index",
	Long: `Index manages a SQLite FTS5 index built from the stored paper JSON and
extracted text. The index is derived data: it can be rebuilt at any time
and deleting it loses nothing.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Index new and changed papers from the artifact tree",
	RunE:  runIndexBuild,
}

var indexQueryCmd = &cobra.Command{
	Use:   "query <terms>",
	Short: "Full-text search over indexed papers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexQuery,
}

func init() {
	indexQueryCmd.Flags().Int("limit", 20, "maximum results")
	indexQueryCmd.Flags().Bool("json", false, "emit results as JSON")
	indexCmd.AddCommand(indexBuildCmd, indexQueryCmd)
	rootCmd.AddCommand(indexCmd)
}

func openIndex() (*index.Index, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, closeLog, err := logging.Setup(cfg.Paths.DataRoot, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(cfg.Paths.DataRoot, log)
	x, err := index.Open(st, log)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	closer := func() error {
		err := x.Close()
		closeLog()
		return err
	}
	return x, closer, nil
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	x, closer, err := openIndex()
	if err != nil {
		return err
	}
	defer closer()

	summary, err := x.Build(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed indexing", summary.Failed)
	}
	return nil
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	x, closer, err := openIndex()
	if err != nil {
		return err
	}
	defer closer()

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := x.Query(context.Background(), args[0], limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	for _, r := range results {
		fmt.Printf("%s  %s\n    %s\n", r.Date, r.Title, r.Snippet)
	}
	fmt.Printf("\n%d result(s)\n", len(results))
	return nil
}
