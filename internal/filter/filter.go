// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides paper relevance in two stages: an offline
// keyword match and an optional model-backed semantic check.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/paperflow/internal/llm"
	"github.com/pdiddy/paperflow/pkg/types"
)

// Token sets classifying a model reply. Negative tokens are checked
// first: "不相关" contains "相关", so the positive scan alone would
// misread a negative reply.
var (
	noTokensRaw  = []string{"不相关", "否"}
	yesTokensRaw = []string{"相关", "是"}
	yesTokens    = []string{"yes", "true"}
	noTokens     = []string{"no", "false"}
)

// Filter applies the configured relevance policy to candidate papers.
type Filter struct {
	cfg types.FilterConfig
	llm llm.Client
	log *slog.Logger
}

// New returns a Filter. client may be nil when the semantic stage is
// disabled; a nil logger falls back to the default.
func New(cfg types.FilterConfig, client llm.Client, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{cfg: cfg, llm: client, log: log}
}

// Enabled reports whether filtering is active at all.
func (f *Filter) Enabled() bool { return f.cfg.Enabled }

// Decide evaluates one paper and returns the full decision with
// provenance.
func (f *Filter) Decide(ctx context.Context, p *types.PaperRecord) types.FilterDecision {
	if !f.cfg.Enabled {
		return types.FilterDecision{Passed: true, Method: types.MethodDisabled}
	}

	switch f.cfg.Mode {
	case "keyword":
		kw := f.keywordMatch(p)
		return types.FilterDecision{Passed: kw, Method: types.MethodKeyword, KeywordResult: &kw}

	case "semantic":
		v := f.semanticVerdict(ctx, p)
		// Unknown is an open default in semantic-only mode.
		return types.FilterDecision{Passed: v.Bool(true), Method: types.MethodSemantic, SemanticResult: &v}

	case "both":
		kw := f.keywordMatch(p)
		if kw {
			// Keyword pass short-circuits; the model is never called.
			return types.FilterDecision{Passed: true, Method: types.MethodKeyword, KeywordResult: &kw}
		}
		v := f.semanticVerdict(ctx, p)
		// Unknown is a closed default in both mode.
		return types.FilterDecision{Passed: v.Bool(false), Method: types.MethodSemantic, KeywordResult: &kw, SemanticResult: &v}

	default:
		return types.FilterDecision{Passed: true, Method: types.MethodUnknown}
	}
}

// Apply partitions papers into survivors and removals, covering the
// input exactly once. Survivors get their FilterDecision attached.
// Filtering disabled passes everything through untouched.
func (f *Filter) Apply(ctx context.Context, papers []*types.PaperRecord) (passed, removed []*types.PaperRecord) {
	if !f.cfg.Enabled {
		return papers, nil
	}

	for i, p := range papers {
		f.log.Info("filtering paper", "index", i+1, "total", len(papers), "title", truncate(p.Title, 50))
		decision := f.Decide(ctx, p)
		if decision.Passed {
			d := decision
			p.FilterInfo = &d
			passed = append(passed, p)
			f.log.Info("paper passed filter", "method", decision.Method)
		} else {
			removed = append(removed, p)
			f.log.Info("paper removed by filter", "method", decision.Method)
		}
	}
	return passed, removed
}

// keywordMatch reports whether the configured keywords occur in
// title + " " + summary. A disabled keyword stage or an empty keyword
// list matches vacuously.
func (f *Filter) keywordMatch(p *types.PaperRecord) bool {
	kc := f.cfg.Keyword
	if !kc.Enabled || len(kc.Keywords) == 0 {
		return true
	}

	text := p.Title + " " + p.Summary
	keywords := kc.Keywords
	if !kc.CaseSensitive {
		text = strings.ToLower(text)
		lowered := make([]string, len(keywords))
		for i, kw := range keywords {
			lowered[i] = strings.ToLower(kw)
		}
		keywords = lowered
	}

	if kc.MatchMode == "all" {
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				return false
			}
		}
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// semanticVerdict asks the model whether the paper is relevant. A
// disabled semantic stage answers yes; an unreachable or unclassifiable
// model answers unknown, never an error.
func (f *Filter) semanticVerdict(ctx context.Context, p *types.PaperRecord) types.Verdict {
	sc := f.cfg.Semantic
	if !sc.Enabled {
		return types.VerdictYes
	}
	if f.llm == nil || sc.APIURL == "" {
		f.log.Error("semantic filter enabled but no model configured")
		return types.VerdictUnknown
	}

	prompt := RenderPrompt(sc.PromptTemplate, p.Title, p.Summary)
	reply, err := f.llm.Chat(ctx, prompt, 0.3, 100)
	if err != nil {
		f.log.Warn("semantic filter call failed", "title", truncate(p.Title, 50), "err", err)
		return types.VerdictUnknown
	}

	v := Classify(reply)
	if v == types.VerdictUnknown {
		f.log.Warn("semantic filter reply not classifiable", "reply", truncate(reply, 80))
	}
	return v
}

// RenderPrompt substitutes the {title} and {summary} placeholders.
func RenderPrompt(template, title, summary string) string {
	return strings.NewReplacer("{title}", title, "{summary}", summary).Replace(template)
}

// Classify maps a free-text model reply onto the three-valued verdict.
func Classify(reply string) types.Verdict {
	lower := strings.ToLower(reply)

	for _, tok := range noTokensRaw {
		if strings.Contains(reply, tok) {
			return types.VerdictNo
		}
	}
	for _, tok := range yesTokensRaw {
		if strings.Contains(reply, tok) {
			return types.VerdictYes
		}
	}
	for _, tok := range yesTokens {
		if strings.Contains(lower, tok) {
			return types.VerdictYes
		}
	}
	for _, tok := range noTokens {
		if strings.Contains(lower, tok) {
			return types.VerdictNo
		}
	}
	return types.VerdictUnknown
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Describe summarizes the active policy for run logs.
func (f *Filter) Describe() string {
	if !f.cfg.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("mode=%s keyword=%v semantic=%v", f.cfg.Mode, f.cfg.Keyword.Enabled, f.cfg.Semantic.Enabled)
}
