// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway delivers accepted papers to the external
// push-notification gateway and keeps an on-disk audit trail of every
// attempt under the store's push directory.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	sourceSystem = "external"
	eventType    = "news"

	// maxPayloadAuthors caps the joined author list.
	maxPayloadAuthors = 5

	// maxErrorBodyChars caps the gateway response captured in a
	// failed-push audit record.
	maxErrorBodyChars = 500
)

// Gateway posts paper envelopes to the configured endpoint.
type Gateway struct {
	cfg   types.GatewayConfig
	store *store.Store
	http  *http.Client
	log   *slog.Logger
	now   func() time.Time
}

// New returns a Gateway. A nil HTTP client gets a fresh client with
// the configured timeout; a nil logger the default slog logger.
func New(cfg types.GatewayConfig, st *store.Store, client *http.Client, log *slog.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{cfg: cfg, store: st, http: client, log: log, now: time.Now}
}

// Enabled reports whether pushes are configured to run.
func (g *Gateway) Enabled() bool { return g.cfg.Enabled && g.cfg.URL != "" }

// BuildPayload maps a paper onto the gateway's payload shape. Every
// field degrades through a fallback chain so a sparsely enriched
// record still produces a useful notification.
func BuildPayload(p *types.PaperRecord, pushedAt time.Time) types.PushPayload {
	content := firstNonEmpty(
		types.Deref(p.Content),
		types.Deref(p.LLMSummary),
		types.Deref(p.RefinedSummary),
		types.Deref(p.TranslatedSummary),
		p.Summary,
	)
	digest := firstNonEmpty(
		types.Deref(p.RefinedSummary),
		types.Deref(p.TranslatedSummary),
		p.Summary,
	)
	pubTime := p.Published
	if pubTime == "" {
		pubTime = pushedAt.Format("2006-01-02 15:04:05")
	}
	return types.PushPayload{
		Title:     p.Title,
		Author:    joinAuthors(p.Authors),
		Content:   content,
		EnContent: content,
		Digest:    digest,
		Time:      pubTime,
		URL: firstNonEmpty(
			types.Deref(p.AipaperURL),
			p.PDFURL,
			p.EntryID,
		),
	}
}

// BuildEnvelope wraps the payload with the gateway's routing header.
func BuildEnvelope(p *types.PaperRecord, pushedAt time.Time) types.PushEnvelope {
	return types.PushEnvelope{
		SourceSystem: sourceSystem,
		Control:      types.PushControl{EventType: eventType, RecommendInner: true},
		Payload:      BuildPayload(p, pushedAt),
	}
}

// failedRecord is the audit shape written for an unsuccessful push.
type failedRecord struct {
	PushData types.PushEnvelope `json:"push_data"`
	Error    pushError          `json:"error"`
}

type pushError struct {
	StatusCode int    `json:"status_code"`
	Response   string `json:"response"`
}

// Push delivers one paper. The envelope is always audited under
// push/all/<timestamp>; a failed delivery additionally lands under
// push/failed/<timestamp> with the gateway's status and response.
// 200 and 202 both count as accepted.
func (g *Gateway) Push(ctx context.Context, p *types.PaperRecord, timestamp string) error {
	envelope := BuildEnvelope(p, g.now())

	if _, err := g.store.SavePushRecord("all", timestamp, p.Title, envelope); err != nil {
		g.log.Warn("saving push audit record failed", "title", p.Title, "err", err)
	}

	status, respBody, err := g.post(ctx, envelope)
	if err == nil && (status == http.StatusOK || status == http.StatusAccepted) {
		g.log.Info("pushed paper", "title", p.Title, "status", status)
		return nil
	}

	failure := pushError{StatusCode: status}
	if err != nil {
		failure.Response = err.Error()
	} else {
		failure.Response = truncate(respBody, maxErrorBodyChars)
	}
	if _, saveErr := g.store.SavePushRecord("failed", timestamp, p.Title, failedRecord{
		PushData: envelope,
		Error:    failure,
	}); saveErr != nil {
		g.log.Warn("saving failed-push record failed", "title", p.Title, "err", saveErr)
	}

	if err != nil {
		return fmt.Errorf("pushing %q: %w", p.Title, err)
	}
	return fmt.Errorf("pushing %q: gateway returned status %d", p.Title, status)
}

// PushBatch delivers the papers one by one under a shared run
// timestamp and returns the pushed and failed counts. Delivery
// failures never abort the batch; context cancellation does.
func (g *Gateway) PushBatch(ctx context.Context, papers []*types.PaperRecord) (pushed, failed int, err error) {
	timestamp := g.now().Format("20060102_150405")
	for _, p := range papers {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pushed, failed, ctxErr
		}
		if pushErr := g.Push(ctx, p, timestamp); pushErr != nil {
			g.log.Warn("push failed", "title", p.Title, "err", pushErr)
			failed++
			continue
		}
		pushed++
	}
	return pushed, failed, nil
}

func (g *Gateway) post(ctx context.Context, envelope types.PushEnvelope) (int, string, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return 0, "", fmt.Errorf("marshaling envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("posting to gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading gateway response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

// joinAuthors joins up to maxPayloadAuthors names, annotating longer
// lists with the total count.
func joinAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	if len(authors) <= maxPayloadAuthors {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (total %d authors)",
		strings.Join(authors[:maxPayloadAuthors], ", "), len(authors))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
