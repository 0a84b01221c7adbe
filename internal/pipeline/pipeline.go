// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one end-to-end collection pass: fetch recent
// papers, drop the ones already on disk, filter for relevance, persist
// the survivors, enrich them, and push notifications. Each stage feeds
// the next and a run report records what every stage did.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperflow/internal/enrich"
	"github.com/pdiddy/paperflow/internal/fetch"
	"github.com/pdiddy/paperflow/internal/filter"
	"github.com/pdiddy/paperflow/internal/ident"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

// maxPushPapers caps how many papers a single run notifies about.
// Anything past the cap is still saved and enriched.
const maxPushPapers = 10

// Fetcher retrieves papers submitted inside a time window.
type Fetcher interface {
	Search(ctx context.Context, start, end time.Time, categories []string, maxResults int) ([]*types.PaperRecord, error)
}

// Enricher runs the per-paper LLM sequence.
type Enricher interface {
	Enabled() bool
	Process(ctx context.Context, p *types.PaperRecord) (*enrich.Result, error)
}

// Pusher delivers accepted papers to the notification gateway.
type Pusher interface {
	Enabled() bool
	PushBatch(ctx context.Context, papers []*types.PaperRecord) (pushed, failed int, err error)
}

// Counts tallies per-stage results for one run.
type Counts struct {
	Raw         int `yaml:"raw" json:"raw"`
	Existing    int `yaml:"existing" json:"existing"`
	New         int `yaml:"new" json:"new"`
	FilteredIn  int `yaml:"filtered_in" json:"filtered_in"`
	FilteredOut int `yaml:"filtered_out" json:"filtered_out"`
	Saved       int `yaml:"saved" json:"saved"`
	Summarized  int `yaml:"summarized" json:"summarized"`
	Pushed      int `yaml:"pushed" json:"pushed"`
	PushFailed  int `yaml:"push_failed" json:"push_failed"`
}

// Report is the per-run summary persisted under <dataRoot>/logs.
type Report struct {
	RunID      string `yaml:"run_id" json:"run_id"`
	StartedAt  string `yaml:"started_at" json:"started_at"`
	FinishedAt string `yaml:"finished_at" json:"finished_at"`
	Filter     string `yaml:"filter" json:"filter"`
	Counts     Counts `yaml:"counts" json:"counts"`
}

// Pipeline wires the run stages together.
type Pipeline struct {
	cfg      types.Config
	store    *store.Store
	fetcher  Fetcher
	filter   *filter.Filter
	enricher Enricher
	pusher   Pusher
	log      *slog.Logger
	now      func() time.Time
}

// New returns a Pipeline. The enricher and pusher may be nil when
// their stages are configured off.
func New(cfg types.Config, st *store.Store, f Fetcher, flt *filter.Filter, e Enricher, g Pusher, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		fetcher:  f,
		filter:   flt,
		enricher: e,
		pusher:   g,
		log:      log,
		now:      time.Now,
	}
}

// Run executes one collection pass and writes the run report. The
// returned Report is valid even when err is non-nil; it covers the
// stages that completed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := p.now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: started.Format("2006-01-02 15:04:05"),
		Filter:    p.filter.Describe(),
	}
	defer func() {
		report.FinishedAt = p.now().Format("2006-01-02 15:04:05")
		if err := p.writeReport(started, report); err != nil {
			p.log.Warn("writing run report failed", "err", err)
		}
	}()

	start, end := fetch.Window(started, p.cfg.Arxiv.DaysBack)
	p.log.Info("fetching papers",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"categories", strings.Join(p.cfg.Arxiv.Categories, ","))

	raw, err := p.fetcher.Search(ctx, start, end, p.cfg.Arxiv.Categories, p.cfg.Arxiv.MaxResults)
	if err != nil {
		return report, fmt.Errorf("fetching papers: %w", err)
	}
	report.Counts.Raw = len(raw)
	if len(raw) == 0 {
		p.log.Info("no papers in window")
		return report, nil
	}

	fresh := p.dropExisting(raw, report)
	if len(fresh) == 0 {
		p.log.Info("all fetched papers already on disk", "raw", len(raw))
		return report, nil
	}

	passed, removed := p.filter.Apply(ctx, fresh)
	report.Counts.FilteredIn = len(passed)
	report.Counts.FilteredOut = len(removed)
	if len(passed) == 0 {
		p.log.Info("no papers passed the filter", "removed", len(removed))
		return report, nil
	}

	p.attachFrontendURLs(passed)

	if p.cfg.Output.JSONEnabled {
		saved, err := p.store.SaveAll(passed)
		report.Counts.Saved = saved
		if err != nil {
			return report, fmt.Errorf("saving papers: %w", err)
		}
	}

	if err := p.enrichAll(ctx, passed, report); err != nil {
		return report, err
	}

	if err := p.pushAccepted(ctx, passed, report); err != nil {
		return report, err
	}

	p.log.Info("run complete",
		"raw", report.Counts.Raw,
		"new", report.Counts.New,
		"accepted", report.Counts.FilteredIn,
		"summarized", report.Counts.Summarized,
		"pushed", report.Counts.Pushed)
	return report, nil
}

// dropExisting partitions out papers whose JSON artifact already
// exists, so reruns never re-filter or re-enrich.
func (p *Pipeline) dropExisting(raw []*types.PaperRecord, report *Report) []*types.PaperRecord {
	fresh := make([]*types.PaperRecord, 0, len(raw))
	for _, paper := range raw {
		if p.store.Exists(paper) {
			report.Counts.Existing++
			continue
		}
		fresh = append(fresh, paper)
	}
	report.Counts.New = len(fresh)
	return fresh
}

// attachFrontendURLs sets each paper's front-end detail URL from the
// configured base and the URL-escaped paper identifier.
func (p *Pipeline) attachFrontendURLs(papers []*types.PaperRecord) {
	cfg := p.cfg.AipaperURL
	if !cfg.Enabled || cfg.BaseURL == "" {
		return
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	for _, paper := range papers {
		paper.AipaperURL = types.StrPtr(base + "/" + url.PathEscape(ident.Identifier(paper.Title, paper.Published)))
	}
}

func (p *Pipeline) enrichAll(ctx context.Context, papers []*types.PaperRecord, report *Report) error {
	if p.enricher == nil || !p.enricher.Enabled() {
		return nil
	}
	for _, paper := range papers {
		res, err := p.enricher.Process(ctx, paper)
		if err != nil {
			return fmt.Errorf("enriching %q: %w", paper.Title, err)
		}
		if res.Summary != nil {
			report.Counts.Summarized++
		}
	}
	return nil
}

func (p *Pipeline) pushAccepted(ctx context.Context, papers []*types.PaperRecord, report *Report) error {
	if p.pusher == nil || !p.pusher.Enabled() {
		return nil
	}
	toPush := papers
	if len(toPush) > maxPushPapers {
		p.log.Info("capping push batch", "accepted", len(toPush), "cap", maxPushPapers)
		toPush = toPush[:maxPushPapers]
	}
	pushed, failed, err := p.pusher.PushBatch(ctx, toPush)
	report.Counts.Pushed = pushed
	report.Counts.PushFailed = failed
	if err != nil {
		return fmt.Errorf("pushing papers: %w", err)
	}
	return nil
}

// writeReport persists the run report as YAML under <dataRoot>/logs,
// named by the run's start time.
func (p *Pipeline) writeReport(started time.Time, report *Report) error {
	dir := filepath.Join(p.store.DataRoot(), "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	path := filepath.Join(dir, "run_"+started.Format("20060102_150405")+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
