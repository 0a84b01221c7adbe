// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paperflow/pkg/types"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2601.00001v1</id>
    <title>Diffusion Models
      for Everything</title>
    <summary>A long
      hard-wrapped abstract.</summary>
    <published>2026-01-13T09:30:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.AI"/>
    <category term="cs.LG"/>
    <arxiv:primary_category term="cs.AI"/>
    <arxiv:doi>10.1000/xyz</arxiv:doi>
    <link href="http://arxiv.org/abs/2601.00001v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2601.00001v1" rel="related" type="application/pdf" title="pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2601.00002v1</id>
    <title>Graph Networks</title>
    <summary>Another abstract.</summary>
    <published>2026-01-12T18:00:00Z</published>
    <author><name>Grace Hopper</name></author>
    <category term="cs.LG"/>
    <arxiv:primary_category term="cs.LG"/>
    <link href="http://arxiv.org/pdf/2601.00002v1" rel="related" title="pdf"/>
  </entry>
</feed>`

func withStubAPI(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := arxivAPIBase
	arxivAPIBase = srv.URL
	t.Cleanup(func() {
		arxivAPIBase = orig
		srv.Close()
	})
}

func testClient() *Client {
	return New(types.ArxivConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "paperflow-test/0.1"},
		Categories:        []string{"cs.AI", "cs.LG"},
		MaxResults:        50,
		RequestsPerSecond: 1000,
	})
}

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery url.Values
	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(sampleFeed))
	})

	start := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	papers, err := testClient().Search(context.Background(), start, end, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 2 {
		t.Fatalf("papers = %d, want 2", len(papers))
	}

	q := gotQuery.Get("search_query")
	if !strings.Contains(q, "submittedDate:[20260112000000 TO 20260113000000]") {
		t.Errorf("search_query = %q", q)
	}
	if !strings.Contains(q, "cat:cs.AI OR cat:cs.LG") {
		t.Errorf("search_query missing categories: %q", q)
	}

	p := papers[0]
	if p.Title != "Diffusion Models for Everything" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Summary != "A long hard-wrapped abstract." {
		t.Errorf("summary = %q", p.Summary)
	}
	if p.Published != "2026-01-13 09:30:00" {
		t.Errorf("published = %q", p.Published)
	}
	if p.PDFURL != "http://arxiv.org/pdf/2601.00001v1" {
		t.Errorf("pdf_url = %q", p.PDFURL)
	}
	if p.EntryID != "http://arxiv.org/abs/2601.00001v1" {
		t.Errorf("entry_id = %q", p.EntryID)
	}
	if p.PrimaryCategory != "cs.AI" || len(p.Categories) != 2 {
		t.Errorf("categories = %v primary = %q", p.Categories, p.PrimaryCategory)
	}
	if len(p.Authors) != 2 || p.Authors[1] != "Alan Turing" {
		t.Errorf("authors = %v", p.Authors)
	}
	if p.DOI == nil || *p.DOI != "10.1000/xyz" {
		t.Errorf("doi = %v", p.DOI)
	}

	if papers[1].DOI != nil {
		t.Error("second entry should have no DOI")
	}
}

func TestSearchHTTPError(t *testing.T) {
	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := testClient().Search(context.Background(), time.Now().AddDate(0, 0, -1), time.Now(), nil, 0)
	if err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestSearchEmptyFeed(t *testing.T) {
	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	})

	papers, err := testClient().Search(context.Background(), time.Now().AddDate(0, 0, -1), time.Now(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 0 {
		t.Errorf("papers = %d, want 0", len(papers))
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 1, 13, 15, 42, 7, 0, time.UTC)

	start, end := Window(now, 1)
	if !end.Equal(time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
	if !start.Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}

	start, _ = Window(now, 7)
	if !start.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}

	// Zero days falls back to one.
	start, _ = Window(now, 0)
	if !start.Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
}
