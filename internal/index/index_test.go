// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T, papers ...*types.PaperRecord) (*Index, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), nil)
	if len(papers) > 0 {
		if _, err := st.SaveAll(papers); err != nil {
			t.Fatal(err)
		}
	}
	x, err := Open(st, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { x.Close() })
	return x, st
}

func indexPaper(title, published, summary string) *types.PaperRecord {
	return &types.PaperRecord{
		Title:           title,
		Authors:         []string{"Ada Lovelace"},
		Summary:         summary,
		Published:       published,
		Categories:      []string{"cs.LG"},
		PrimaryCategory: "cs.LG",
	}
}

func TestBuildAndQuery(t *testing.T) {
	x, _ := testSetup(t,
		indexPaper("Transformer Scaling", "2025-01-15 08:00:00", "We study transformer scaling laws."),
		indexPaper("Frog Genomics", "2025-01-15 09:00:00", "We sequence frog genomes."),
	)

	summary, err := x.Build(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if summary.Indexed != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	results, err := x.Query(context.Background(), "transformer", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if r.Title != "Transformer Scaling" {
		t.Errorf("title = %q", r.Title)
	}
	if r.ID != "2025-01-15_Transformer Scaling" {
		t.Errorf("id = %q", r.ID)
	}
	if len(r.Authors) != 1 || r.Authors[0] != "Ada Lovelace" {
		t.Errorf("authors = %v", r.Authors)
	}
	if !strings.Contains(r.Snippet, "[transformer]") && !strings.Contains(r.Snippet, "[Transformer]") {
		t.Errorf("snippet = %q, want highlighted match", r.Snippet)
	}
}

func TestBuildSkipsUnchangedFiles(t *testing.T) {
	x, _ := testSetup(t,
		indexPaper("Stable Paper", "2025-01-15 08:00:00", "Nothing changes here."),
	)

	if _, err := x.Build(context.Background(), io.Discard); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	summary, err := x.Build(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("summary = %+v, want skip only", summary)
	}
}

func TestBuildReindexesChangedFiles(t *testing.T) {
	p := indexPaper("Evolving Paper", "2025-01-15 08:00:00", "Initial abstract.")
	x, st := testSetup(t, p)

	if _, err := x.Build(context.Background(), io.Discard); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	// An enrichment write-back changes the file and its mod time.
	if err := st.UpdateField(p, "llm_summary", "zirconium reactors"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}

	summary, err := x.Build(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want one update", summary)
	}

	results, err := x.Query(context.Background(), "zirconium", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want updated content searchable", len(results))
	}
}

func TestBuildIndexesSidecarContent(t *testing.T) {
	p := indexPaper("Opaque Title", "2025-01-15 08:00:00", "Vague abstract.")
	x, st := testSetup(t, p)
	if _, err := st.WriteContent(p, "full text about ytterbium lasers"); err != nil {
		t.Fatalf("WriteContent: %v", err)
	}

	if _, err := x.Build(context.Background(), io.Discard); err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := x.Query(context.Background(), "ytterbium", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want sidecar text indexed", len(results))
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	x, _ := testSetup(t)

	results, err := x.Query(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d", len(results))
	}
}
