// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/logging"
	"github.com/pdiddy/paperflow/internal/serve"
	"github.com/pdiddy/paperflow/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only query API over the stored papers",
	Long: `Serve exposes the artifact tree over HTTP: date listings, per-day and
cross-day paper queries with category/keyword/author filters, single-paper
lookup, PDF and Markdown downloads, and collection statistics. The server
never writes; run the pipeline separately.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	log, closeLog, err := logging.Setup(cfg.Paths.DataRoot, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	st := store.New(cfg.Paths.DataRoot, log)
	engine := serve.NewEngine(st, log)
	return serve.NewServer(engine, cfg.Server, log).ListenAndServe()
}
