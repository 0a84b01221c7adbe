// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/gateway"
	"github.com/pdiddy/paperflow/internal/logging"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

var pushCmd = &cobra.Command{
	Use:   "push <paper.json>",
	Short: "Re-push a stored paper JSON to the notification gateway",
	Long: `Push reads one stored paper JSON file and delivers it to the configured
gateway, bypassing the pipeline. Useful for retrying a failed push or
re-announcing a paper.`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is not configured")
	}

	log, closeLog, err := logging.Setup(cfg.Paths.DataRoot, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	var p types.PaperRecord
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	st := store.New(cfg.Paths.DataRoot, log)
	g := gateway.New(cfg.Gateway, st, nil, log)

	timestamp := time.Now().Format("20060102_150405")
	if err := g.Push(context.Background(), &p, timestamp); err != nil {
		return err
	}
	fmt.Printf("pushed %q\n", p.Title)
	return nil
}
