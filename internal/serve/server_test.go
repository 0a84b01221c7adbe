// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/paperflow/pkg/types"
)

func testServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()
	p1 := seedPaper("Transformer Survey", "2025-01-15 08:00:00", "cs.LG", "Ada Lovelace")
	p2 := seedPaper("Diffusion Models", "2025-01-14 09:00:00", "cs.CV", "Ben Cook")
	e, st := seedStore(t, p1, p2)
	if _, err := st.WriteMarkdown(p1, "# Transformer Survey\n\nbody\n"); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}

	srv := httptest.NewServer(NewServer(e, types.ServerConfig{APIPrefix: "/ai_paper"}, nil))
	t.Cleanup(srv.Close)
	return srv, e
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
}

func TestServerDates(t *testing.T) {
	srv, _ := testServer(t)

	var got struct {
		Dates []string `json:"dates"`
		Count int      `json:"count"`
	}
	getJSON(t, srv.URL+"/ai_paper/api/dates", http.StatusOK, &got)
	if got.Count != 2 || got.Dates[0] != "2025-01-15" {
		t.Errorf("dates = %+v", got)
	}
}

func TestServerPapersWithFilters(t *testing.T) {
	srv, _ := testServer(t)

	var page PapersPage
	getJSON(t, srv.URL+"/ai_paper/api/papers?date=2025-01-15&keyword=transformer", http.StatusOK, &page)
	if page.Total != 1 || page.Papers[0].Title != "Transformer Survey" {
		t.Errorf("page = %+v", page)
	}
	if page.Filters["keyword"] != "transformer" {
		t.Errorf("filters = %v", page.Filters)
	}
}

func TestServerAllPapers(t *testing.T) {
	srv, _ := testServer(t)

	var page PapersPage
	getJSON(t, srv.URL+"/ai_paper/api/papers/all", http.StatusOK, &page)
	if page.Total != 2 {
		t.Errorf("total = %d", page.Total)
	}
	// Sorted newest first across dates.
	if page.Papers[0].Title != "Transformer Survey" {
		t.Errorf("first = %q", page.Papers[0].Title)
	}
}

func TestServerGetPaper(t *testing.T) {
	srv, _ := testServer(t)

	var v PaperView
	getJSON(t, srv.URL+"/ai_paper/api/paper/2025-01-15_Transformer Survey", http.StatusOK, &v)
	if v.Title != "Transformer Survey" {
		t.Errorf("title = %q", v.Title)
	}
	if v.Files.Markdown == nil {
		t.Error("markdown path missing from files")
	}
}

func TestServerPaperMarkdownFile(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/ai_paper/api/paper/2025-01-15_Transformer Survey/markdown")
	if err != nil {
		t.Fatalf("GET markdown: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
}

func TestServerErrorStatuses(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad id", "/ai_paper/api/paper/no-separator", http.StatusBadRequest},
		{"unknown paper", "/ai_paper/api/paper/2025-01-15_Nope", http.StatusNotFound},
		{"missing file", "/ai_paper/api/paper/2025-01-15_Transformer Survey/pdf", http.StatusNotFound},
		{"bad limit", "/ai_paper/api/papers?limit=abc", http.StatusBadRequest},
		{"negative offset", "/ai_paper/api/papers?offset=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			getJSON(t, srv.URL+tt.path, tt.want, &body)
			if body["error"] == "" {
				t.Error("no error body")
			}
		})
	}
}

func TestServerPapersDefaultLimit(t *testing.T) {
	var papers []*types.PaperRecord
	for i := 0; i < 60; i++ {
		papers = append(papers, seedPaper(
			fmt.Sprintf("Paper %02d", i),
			fmt.Sprintf("2025-01-15 08:%02d:00", i),
			"cs.LG"))
	}
	e, _ := seedStore(t, papers...)
	srv := httptest.NewServer(NewServer(e, types.ServerConfig{APIPrefix: "/ai_paper"}, nil))
	t.Cleanup(srv.Close)

	// An unparameterized request never returns the whole corpus.
	var page PapersPage
	getJSON(t, srv.URL+"/ai_paper/api/papers?date=2025-01-15", http.StatusOK, &page)
	if page.Total != 60 {
		t.Errorf("total = %d, want pre-pagination count", page.Total)
	}
	if page.Count != defaultPapersLimit {
		t.Errorf("count = %d, want default limit %d", page.Count, defaultPapersLimit)
	}
}

func TestParseQueryLimitBounds(t *testing.T) {
	tests := []struct {
		name      string
		rawQuery  string
		wantLimit int
	}{
		{"absent takes default", "", defaultPapersLimit},
		{"explicit zero takes default", "limit=0", defaultPapersLimit},
		{"within bounds kept", "limit=7", 7},
		{"over ceiling clamped", "limit=9999", maxPapersLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ai_paper/api/papers?"+tt.rawQuery, nil)
			q, ok := parseQuery(httptest.NewRecorder(), r, defaultPapersLimit, maxPapersLimit)
			if !ok {
				t.Fatal("parseQuery rejected valid input")
			}
			if q.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", q.Limit, tt.wantLimit)
			}
		})
	}
}

func TestServerStats(t *testing.T) {
	srv, _ := testServer(t)

	var stats Stats
	getJSON(t, srv.URL+"/ai_paper/api/stats", http.StatusOK, &stats)
	if stats.TotalPapers != 2 || stats.TotalDays != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Categories["cs.LG"] != 1 || stats.Categories["cs.CV"] != 1 {
		t.Errorf("category counts = %v", stats.Categories)
	}

	var daily struct {
		Daily []DayCount `json:"daily"`
	}
	getJSON(t, srv.URL+"/ai_paper/api/stats/daily", http.StatusOK, &daily)
	if len(daily.Daily) != 2 || daily.Daily[0].Date != "2025-01-15" {
		t.Errorf("daily = %+v", daily)
	}
}
