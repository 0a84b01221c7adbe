// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/paperflow/pkg/types"
)

func testPaper(title, published string) *types.PaperRecord {
	return &types.PaperRecord{
		Title:           title,
		Authors:         []string{"Ada Lovelace", "Alan Turing"},
		Summary:         "An abstract about machine reasoning.",
		Published:       published,
		Categories:      []string{"cs.AI", "cs.LG"},
		PrimaryCategory: "cs.AI",
		PDFURL:          "http://arxiv.org/pdf/2601.00001v1",
		EntryID:         "http://arxiv.org/abs/2601.00001v1",
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), nil)
}

func TestSaveAllAndExists(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Machine Reasoning", "2026-01-13 09:30:00")

	if s.Exists(p) {
		t.Fatal("Exists() = true before save")
	}

	n, err := s.SaveAll([]*types.PaperRecord{p})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("saved = %d, want 1", n)
	}
	if !s.Exists(p) {
		t.Error("Exists() = false after save")
	}

	// An unrelated second save must not touch the first paper's file.
	before, err := os.ReadFile(s.JSONPath(p))
	if err != nil {
		t.Fatal(err)
	}
	other := testPaper("Another Paper", "2026-01-13 10:00:00")
	if _, err := s.SaveAll([]*types.PaperRecord{other}); err != nil {
		t.Fatal(err)
	}
	after, err := os.ReadFile(s.JSONPath(p))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("saving an unrelated paper modified an existing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Round Trip", "2026-01-13 09:30:00")
	doi := "10.1000/xyz"
	p.DOI = &doi

	if _, err := s.SaveAll([]*types.PaperRecord{p}); err != nil {
		t.Fatal(err)
	}

	papers, err := s.LoadForDate("2026-01-13")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 {
		t.Fatalf("loaded %d papers, want 1", len(papers))
	}

	got := papers[0]
	if got.Title != p.Title || got.Published != p.Published || got.Summary != p.Summary {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Ada Lovelace" {
		t.Errorf("authors = %v", got.Authors)
	}
	if got.DOI == nil || *got.DOI != doi {
		t.Errorf("doi = %v", got.DOI)
	}
	if got.LLMSummary != nil {
		t.Error("llm_summary should be absent on a fresh record")
	}
}

func TestUpdateField(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Updatable", "2026-01-13 09:30:00")
	if _, err := s.SaveAll([]*types.PaperRecord{p}); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(p, "llm_summary", "generated summary"); err != nil {
		t.Fatal(err)
	}

	papers, err := s.LoadForDate("2026-01-13")
	if err != nil {
		t.Fatal(err)
	}
	if got := types.Deref(papers[0].LLMSummary); got != "generated summary" {
		t.Errorf("llm_summary = %q", got)
	}
	// Core fields survive the rewrite.
	if papers[0].Title != "Updatable" {
		t.Errorf("title lost on update: %q", papers[0].Title)
	}
}

func TestUpdateFieldPreservesUnknownFields(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Forward Compat", "2026-01-13 09:30:00")
	if _, err := s.SaveAll([]*types.PaperRecord{p}); err != nil {
		t.Fatal(err)
	}

	// Inject a field this build does not model.
	path := s.JSONPath(p)
	data, _ := os.ReadFile(path)
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	m["custom_annotation"] = "keep me"
	out, _ := json.Marshal(m)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(p, "content", "pdf text"); err != nil {
		t.Fatal(err)
	}

	data, _ = os.ReadFile(path)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["custom_annotation"] != "keep me" {
		t.Error("unknown field dropped by UpdateField")
	}
	if m["content"] != "pdf text" {
		t.Errorf("content = %v", m["content"])
	}
}

func TestUpdateFieldNeverFabricates(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Never Saved", "2026-01-13 09:30:00")

	if err := s.UpdateField(p, "llm_summary", "x"); err == nil {
		t.Fatal("expected error updating a non-existent record")
	}
	if _, err := os.Stat(s.JSONPath(p)); !os.IsNotExist(err) {
		t.Error("UpdateField created a file for a non-existent record")
	}
}

func TestUpdateFieldRejectsUnknownField(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Guarded", "2026-01-13 09:30:00")
	if _, err := s.SaveAll([]*types.PaperRecord{p}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateField(p, "title", "rewritten"); err == nil {
		t.Fatal("expected error for non-updatable field")
	}
}

func TestListDates(t *testing.T) {
	s := newTestStore(t)
	for _, dir := range []string{"2026-01-10", "2026-01-12", "2026-01-11", "unknown", "logs", "not-a-date"} {
		if err := os.MkdirAll(filepath.Join(s.DataRoot(), dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := s.ListDates()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2026-01-12", "2026-01-11", "2026-01-10"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], want[i])
		}
	}
}

func TestListDatesMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), nil)
	dates, err := s.ListDates()
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 0 {
		t.Errorf("dates = %v, want empty", dates)
	}
}

func TestLoadForDateSkipsMalformed(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Good", "2026-01-13 09:30:00")
	if _, err := s.SaveAll([]*types.PaperRecord{p}); err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(s.DataRoot(), "2026-01-13", "json", "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	papers, err := s.LoadForDate("2026-01-13")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 || papers[0].Title != "Good" {
		t.Errorf("papers = %+v, want only the good record", papers)
	}
}

func TestResolvePaths(t *testing.T) {
	s := newTestStore(t)
	p := testPaper("Artifacts", "2026-01-13 09:30:00")

	paths := s.ResolvePaths(p, "2026-01-13")
	if paths.PDF != nil || paths.Markdown != nil || paths.Content != nil {
		t.Errorf("expected all paths nil before files exist: %+v", paths)
	}

	if _, err := s.WriteContent(p, "extracted text"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteMarkdown(p, "# doc"); err != nil {
		t.Fatal(err)
	}

	paths = s.ResolvePaths(p, "2026-01-13")
	if paths.Content == nil || paths.Markdown == nil {
		t.Errorf("expected content and markdown paths: %+v", paths)
	}
	if paths.PDF != nil {
		t.Error("pdf path should be nil, no pdf written")
	}
}

func TestSavePushRecord(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SavePushRecord("all", "20260113", "Some: Paper!", map[string]string{"k": "v"})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Some Paper.json" {
		t.Errorf("audit filename = %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("audit file missing: %v", err)
	}

	if _, err := s.SavePushRecord("bogus", "20260113", "t", nil); err == nil {
		t.Error("expected error for unknown audit kind")
	}
}
