// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs the per-paper enrichment sequence: PDF download
// and text extraction, LLM summarization, summary refinement, and
// abstract translation. Each step is best-effort; a failed step is
// logged and skipped so one flaky call never loses a paper.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/internal/llm"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

// Per-call sampling settings. Summarization and refinement run warm;
// translation and anything judgment-like runs cold.
const (
	summaryTemperature   = 0.7
	summaryMaxTokens     = 2000
	refineTemperature    = 0.7
	refineMaxTokens      = 500
	translateTemperature = 0.3
	translateMaxTokens   = 1000
)

const aiFooter = "*This summary was generated by AI and is provided for reference only.*"

// Result reports what a Process call produced. Nil pointers mean the
// step did not run or failed.
type Result struct {
	Summary           *string
	RefinedSummary    *string
	TranslatedSummary *string
	Content           *string
	MarkdownPath      string
}

// Orchestrator drives enrichment for one pipeline run.
type Orchestrator struct {
	cfg         types.LLMConfig
	store       *store.Store
	llm         llm.Client
	http        *http.Client
	retry       httputil.Policy
	log         *slog.Logger
	jsonEnabled bool
}

// New returns an Orchestrator. A nil HTTP client falls back to
// http.DefaultClient; a nil logger to the default slog logger.
func New(cfg types.LLMConfig, st *store.Store, client llm.Client, httpClient *http.Client, jsonEnabled bool, log *slog.Logger) *Orchestrator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		cfg:         cfg,
		store:       st,
		llm:         client,
		http:        httpClient,
		retry:       httputil.Policy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
		log:         log,
		jsonEnabled: jsonEnabled,
	}
}

// Enabled reports whether enrichment is configured to run at all.
func (o *Orchestrator) Enabled() bool { return o.cfg.Enabled }

// Process enriches one paper in place and persists every artifact it
// produces. The sequence is: acquire PDF text, summarize, write the
// markdown document, refine the summary, translate the abstract.
// Translation runs even when summarization failed; it only needs the
// abstract. The returned error is non-nil only on context cancellation.
func (o *Orchestrator) Process(ctx context.Context, p *types.PaperRecord) (*Result, error) {
	res := &Result{}

	pdfText := o.acquireText(ctx, p, res)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	o.summarize(ctx, p, pdfText, res)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	o.translate(ctx, p, res)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if res.Content != nil {
		o.persistField(p, "content", *res.Content)
	}
	return res, nil
}

// acquireText downloads the paper's PDF (skipping the download when the
// file is already on disk), extracts its text, and writes the sidecar.
// Any failure falls back to the abstract by returning "".
func (o *Orchestrator) acquireText(ctx context.Context, p *types.PaperRecord, res *Result) string {
	if p.PDFURL == "" {
		return ""
	}

	pdfPath := o.store.PDFPath(p)
	if _, err := os.Stat(pdfPath); err != nil {
		if err := DownloadPDF(ctx, o.http, p.PDFURL, pdfPath, o.retry); err != nil {
			o.log.Warn("pdf download failed, using abstract", "title", p.Title, "err", err)
			return ""
		}
	} else {
		o.log.Info("pdf already on disk", "path", pdfPath)
	}

	text, err := ExtractText(pdfPath)
	if err != nil {
		o.log.Warn("pdf text extraction failed, using abstract", "title", p.Title, "err", err)
		return ""
	}

	if path, err := o.store.WriteContent(p, text); err != nil {
		o.log.Warn("writing extracted text failed", "path", path, "err", err)
	}
	p.Content = types.StrPtr(text)
	res.Content = p.Content
	return text
}

// summarize runs the summary call and, on success, the markdown
// document write and the refinement call.
func (o *Orchestrator) summarize(ctx context.Context, p *types.PaperRecord, pdfText string, res *Result) {
	prompt := BuildSummaryPrompt(o.cfg.PromptTemplate, p.Title, p.Authors, p.Summary, pdfText)
	summary, err := o.llm.Chat(ctx, prompt, summaryTemperature, summaryMaxTokens)
	if err != nil {
		o.log.Warn("summarization failed", "title", p.Title, "err", err)
		return
	}

	p.LLMSummary = types.StrPtr(summary)
	res.Summary = p.LLMSummary
	o.persistField(p, "llm_summary", summary)

	doc := ComposeMarkdown(p, summary)
	if path, err := o.store.WriteMarkdown(p, doc); err != nil {
		o.log.Warn("writing summary markdown failed", "title", p.Title, "err", err)
	} else {
		p.MarkdownPath = types.StrPtr(path)
		res.MarkdownPath = path
	}

	o.refine(ctx, p, summary, res)
}

func (o *Orchestrator) refine(ctx context.Context, p *types.PaperRecord, summary string, res *Result) {
	prompt := BuildRefinePrompt(o.cfg.RefinePromptTemplate, summary)
	refined, err := o.llm.Chat(ctx, prompt, refineTemperature, refineMaxTokens)
	if err != nil {
		o.log.Warn("summary refinement failed", "title", p.Title, "err", err)
		return
	}
	p.RefinedSummary = types.StrPtr(refined)
	res.RefinedSummary = p.RefinedSummary
	o.persistField(p, "refined_summary", refined)
}

func (o *Orchestrator) translate(ctx context.Context, p *types.PaperRecord, res *Result) {
	prompt := BuildTranslatePrompt(o.cfg.TranslatePromptTemplate, p.Summary)
	translated, err := o.llm.Chat(ctx, prompt, translateTemperature, translateMaxTokens)
	if err != nil {
		o.log.Warn("abstract translation failed", "title", p.Title, "err", err)
		return
	}
	p.TranslatedSummary = types.StrPtr(translated)
	res.TranslatedSummary = p.TranslatedSummary
	o.persistField(p, "translated_summary", translated)
}

// persistField writes one enrichment field back to the stored JSON when
// JSON output is enabled. The in-memory record is already updated by
// the caller, so a write failure degrades to an in-memory-only field.
func (o *Orchestrator) persistField(p *types.PaperRecord, field, value string) {
	if !o.jsonEnabled {
		return
	}
	if err := o.store.UpdateField(p, field, value); err != nil {
		o.log.Warn("persisting enrichment field failed", "field", field, "title", p.Title, "err", err)
	}
}

// ComposeMarkdown renders the English summary document written next to
// the paper's other artifacts.
func ComposeMarkdown(p *types.PaperRecord, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "**Authors:** %s\n\n", strings.Join(p.Authors, ", "))
	fmt.Fprintf(&b, "**Categories:** %s\n\n", strings.Join(p.Categories, ", "))
	fmt.Fprintf(&b, "**Published:** %s\n\n", p.Published)
	if p.PDFURL != "" {
		fmt.Fprintf(&b, "**PDF:** [%s](%s)\n\n", p.PDFURL, p.PDFURL)
	}
	if p.EntryID != "" {
		fmt.Fprintf(&b, "**arXiv:** [%s](%s)\n\n", p.EntryID, p.EntryID)
	}
	b.WriteString("## Abstract\n\n")
	b.WriteString(p.Summary)
	b.WriteString("\n\n## Detailed Summary\n\n")
	b.WriteString(summary)
	b.WriteString("\n\n---\n\n")
	b.WriteString(aiFooter)
	b.WriteString("\n")
	return b.String()
}
