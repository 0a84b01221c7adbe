// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store reads and writes the date-partitioned paper artifact tree:
//
//	<dataRoot>/<YYYY-MM-DD>/json/<sanitizedTitle>.json
//	<dataRoot>/<YYYY-MM-DD>/pdf/<sanitizedTitle>.pdf
//	<dataRoot>/<YYYY-MM-DD>/markdown/<sanitizedTitle>.md
//	<dataRoot>/<YYYY-MM-DD>/content/<sanitizedTitle>.txt
//	<dataRoot>/push/{all,failed}/<timestamp>/<pushTitle>.json
//
// One pipeline run is the only writer of the tree; field updates are
// whole-file read-modify-write with no cross-field transactionality.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paperflow/internal/ident"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	jsonDir     = "json"
	pdfDir      = "pdf"
	markdownDir = "markdown"
	contentDir  = "content"
)

// updatableFields is the set of enrichment fields UpdateField accepts.
var updatableFields = map[string]bool{
	"llm_summary":        true,
	"content":            true,
	"translated_summary": true,
	"refined_summary":    true,
}

// Store manages the artifact tree under a single data root.
type Store struct {
	dataRoot string
	log      *slog.Logger
}

// New returns a Store rooted at dataRoot. A nil logger falls back to
// the default slog logger.
func New(dataRoot string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dataRoot: dataRoot, log: log}
}

// DataRoot returns the store's base directory.
func (s *Store) DataRoot() string { return s.dataRoot }

// JSONPath returns the paper's JSON artifact path. The filename is the
// sanitized title alone; the date lives in the directory.
func (s *Store) JSONPath(p *types.PaperRecord) string {
	return filepath.Join(s.dataRoot, ident.DateOf(p.Published), jsonDir, ident.SanitizeTitle(p.Title)+".json")
}

// PDFPath returns the paper's PDF artifact path.
func (s *Store) PDFPath(p *types.PaperRecord) string {
	return filepath.Join(s.dataRoot, ident.DateOf(p.Published), pdfDir, ident.SanitizeTitle(p.Title)+".pdf")
}

// MarkdownPath returns the paper's summary document path.
func (s *Store) MarkdownPath(p *types.PaperRecord) string {
	return filepath.Join(s.dataRoot, ident.DateOf(p.Published), markdownDir, ident.SanitizeTitle(p.Title)+".md")
}

// ContentPath returns the paper's extracted-text sidecar path.
func (s *Store) ContentPath(p *types.PaperRecord) string {
	return filepath.Join(s.dataRoot, ident.DateOf(p.Published), contentDir, ident.SanitizeTitle(p.Title)+".txt")
}

// Exists reports whether the paper's JSON artifact is already on disk.
// The pipeline checks this before filtering or enrichment so duplicate
// fetches never cost API calls.
func (s *Store) Exists(p *types.PaperRecord) bool {
	_, err := os.Stat(s.JSONPath(p))
	return err == nil
}

// SaveAll writes every paper's full record as indented JSON, creating
// parent directories as needed and overwriting unconditionally. It
// returns the number written.
func (s *Store) SaveAll(papers []*types.PaperRecord) (int, error) {
	saved := 0
	for _, p := range papers {
		path := s.JSONPath(p)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return saved, fmt.Errorf("creating json directory: %w", err)
		}
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return saved, fmt.Errorf("marshaling %q: %w", p.Title, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return saved, fmt.Errorf("writing %s: %w", path, err)
		}
		saved++
		s.log.Info("saved paper json", "path", path)
	}
	return saved, nil
}

// UpdateField sets one enrichment field in the paper's stored JSON and
// rewrites the whole file. The record is read into a generic map so
// fields this build does not know about survive the rewrite. A missing
// file is an error: UpdateField never fabricates a record.
func (s *Store) UpdateField(p *types.PaperRecord, field, value string) error {
	if !updatableFields[field] {
		return fmt.Errorf("field %q is not updatable", field)
	}

	path := s.JSONPath(p)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	record[field] = value

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Info("updated paper json", "path", path, "field", field)
	return nil
}

// ListDates returns every data-root subdirectory whose name parses as a
// date, newest first. The "unknown" bucket is excluded.
func (s *Store) ListDates() ([]string, error) {
	entries, err := os.ReadDir(s.dataRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data root %s: %w", s.dataRoot, err)
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == ident.UnknownDate {
			continue
		}
		if _, err := time.Parse("2006-01-02", entry.Name()); err != nil {
			continue
		}
		dates = append(dates, entry.Name())
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// LoadForDate reads every JSON artifact under the date's json directory.
// A file that fails to parse is logged and skipped; one bad file never
// aborts the batch.
func (s *Store) LoadForDate(date string) ([]*types.PaperRecord, error) {
	dir := filepath.Join(s.dataRoot, date, jsonDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var papers []*types.PaperRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable paper json", "path", path, "err", err)
			continue
		}
		var p types.PaperRecord
		if err := json.Unmarshal(data, &p); err != nil {
			s.log.Warn("skipping malformed paper json", "path", path, "err", err)
			continue
		}
		papers = append(papers, &p)
	}
	return papers, nil
}

// Paths holds the existence-checked derived file locations for a paper.
// Each pointer is nil when the file is not on disk. These are computed
// on every read, never stored in the JSON.
type Paths struct {
	PDF      *string `json:"pdf_path"`
	Markdown *string `json:"markdown_path"`
	Content  *string `json:"content_path"`
}

// ResolvePaths computes the paper's pdf/markdown/content paths under the
// given date and checks each for existence.
func (s *Store) ResolvePaths(p *types.PaperRecord, date string) Paths {
	check := func(sub, ext string) *string {
		path := filepath.Join(s.dataRoot, date, sub, ident.SanitizeTitle(p.Title)+ext)
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		return &path
	}
	return Paths{
		PDF:      check(pdfDir, ".pdf"),
		Markdown: check(markdownDir, ".md"),
		Content:  check(contentDir, ".txt"),
	}
}

// WriteMarkdown persists the composed summary document and returns its path.
func (s *Store) WriteMarkdown(p *types.PaperRecord, doc string) (string, error) {
	path := s.MarkdownPath(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating markdown directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Info("saved summary markdown", "path", path)
	return path, nil
}

// WriteContent persists the extracted PDF text sidecar and returns its path.
func (s *Store) WriteContent(p *types.PaperRecord, text string) (string, error) {
	path := s.ContentPath(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Info("saved extracted text", "path", path)
	return path, nil
}

// SavePushRecord writes a push-audit JSON copy under push/all or
// push/failed (kind), keyed by the run timestamp and the 50-char push
// filename rule. Audit copies are append-only per run.
func (s *Store) SavePushRecord(kind, timestamp, title string, v any) (string, error) {
	if kind != "all" && kind != "failed" {
		return "", fmt.Errorf("unknown push audit kind %q", kind)
	}
	dir := filepath.Join(s.dataRoot, "push", kind, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating push audit directory: %w", err)
	}

	path := filepath.Join(dir, ident.PushSanitizeTitle(title)+".json")
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling push record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
