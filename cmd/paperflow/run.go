// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/enrich"
	"github.com/pdiddy/paperflow/internal/fetch"
	"github.com/pdiddy/paperflow/internal/filter"
	"github.com/pdiddy/paperflow/internal/gateway"
	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/internal/llm"
	"github.com/pdiddy/paperflow/internal/logging"
	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline pass: fetch, filter, persist, enrich, push",
	Long: `Run executes the collection pipeline once: fetch recent papers from
arXiv, drop those already stored, filter for relevance, save the survivors,
enrich them with generated summaries, and push notifications.

With --interval the pipeline repeats until interrupted, which is the
long-running scheduled mode.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Duration("interval", 0, "repeat the pipeline at this interval (0 runs once)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closeLog, err := logging.Setup(cfg.Paths.DataRoot, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl := buildPipeline(cfg, log)
	interval, _ := cmd.Flags().GetDuration("interval")

	for {
		report, err := pl.Run(ctx)
		if err != nil {
			if interval == 0 {
				return err
			}
			log.Error("pipeline run failed", "err", err)
		} else {
			printReport(cfg, report)
		}

		if interval == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func printReport(cfg types.Config, report *pipeline.Report) {
	if !cfg.Output.ConsoleEnabled {
		return
	}
	c := report.Counts
	fmt.Printf("run %s: fetched %d (%d new, %d existing), accepted %d, rejected %d, summarized %d, pushed %d",
		report.RunID, c.Raw, c.New, c.Existing, c.FilteredIn, c.FilteredOut, c.Summarized, c.Pushed)
	if c.PushFailed > 0 {
		fmt.Printf(", push failures %d", c.PushFailed)
	}
	fmt.Println()
}

// buildPipeline wires the configured stages. Disabled stages are left
// nil so the pipeline skips them.
func buildPipeline(cfg types.Config, log *slog.Logger) *pipeline.Pipeline {
	st := store.New(cfg.Paths.DataRoot, log)
	fetcher := fetch.New(cfg.Arxiv)

	flt := filter.New(cfg.Filter, semanticClient(cfg.Filter.Semantic), log)

	var enricher pipeline.Enricher
	if cfg.LLM.Enabled {
		enricher = enrich.New(cfg.LLM, st, &llm.HTTPClient{
			APIURL:  cfg.LLM.APIURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
			Retry:   httputil.Policy{MaxAttempts: cfg.LLM.MaxRetries, Delay: cfg.LLM.RetryDelay},
		}, nil, cfg.Output.JSONEnabled, log)
	}

	var pusher pipeline.Pusher
	if cfg.Gateway.Enabled {
		pusher = gateway.New(cfg.Gateway, st, nil, log)
	}

	return pipeline.New(cfg, st, fetcher, flt, enricher, pusher, log)
}

func semanticClient(sc types.SemanticFilterConfig) llm.Client {
	if !sc.Enabled {
		return nil
	}
	return &llm.HTTPClient{
		APIURL:  sc.APIURL,
		APIKey:  sc.APIKey,
		Model:   sc.Model,
		Timeout: sc.Timeout,
		Retry:   httputil.Policy{MaxAttempts: sc.MaxRetries, Delay: sc.RetryDelay},
	}
}
