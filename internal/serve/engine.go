// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package serve exposes the artifact tree read-only: a scan-based query
// engine over the stored JSON plus the HTTP surface in front of it.
// The engine never writes; the pipeline is the only writer.
package serve

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/paperflow/internal/ident"
	"github.com/pdiddy/paperflow/internal/store"
	"github.com/pdiddy/paperflow/pkg/types"
)

// keywordWorkers bounds the concurrent sidecar reads during keyword
// filtering. Sidecars can be megabytes of extracted text, so the scan
// is parallel but capped.
const keywordWorkers = 10

var (
	// ErrNotFound reports an id that parsed but matched no stored paper.
	ErrNotFound = errors.New("paper not found")

	// ErrBadID reports an id without the date_title shape.
	ErrBadID = errors.New("malformed paper id")
)

// PaperView is a stored record plus its derived read-time fields.
type PaperView struct {
	*types.PaperRecord

	// ID is the paper's stable identifier, usable with GetPaper.
	ID string `json:"id"`

	// Date is the partition the record was read from.
	Date string `json:"date"`

	// Files holds the existence-checked artifact paths.
	Files store.Paths `json:"files"`
}

// Query holds the optional list filters. Filters apply in a fixed
// order: category, then keyword, then author.
type Query struct {
	Category string
	Keyword  string
	Author   string
	Limit    int
	Offset   int
}

// PapersPage is one page of query results. Total counts every match
// before pagination.
type PapersPage struct {
	Date    string            `json:"date,omitempty"`
	Total   int               `json:"total"`
	Count   int               `json:"count"`
	Filters map[string]string `json:"filters"`
	Papers  []*PaperView      `json:"papers"`
}

// Stats summarizes the whole artifact tree. Categories maps each
// category to the number of papers carrying it; a paper with several
// categories counts once per category.
type Stats struct {
	TotalPapers int            `json:"total_papers"`
	TotalDays   int            `json:"total_days"`
	Categories  map[string]int `json:"categories"`
	LatestDate  string         `json:"latest_date,omitempty"`
}

// DayCount is one day's paper count.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Engine answers queries by scanning the artifact store.
type Engine struct {
	store   *store.Store
	log     *slog.Logger
	workers int
}

// NewEngine returns an Engine over st.
func NewEngine(st *store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: st, log: log, workers: keywordWorkers}
}

// ListDates returns every stored date, newest first.
func (e *Engine) ListDates() ([]string, error) {
	return e.store.ListDates()
}

// ListPapers queries one date partition, or the whole tree when date
// is empty. The full scan echoes "all" as the effective date.
func (e *Engine) ListPapers(date string, q Query) (*PapersPage, error) {
	var views []*PaperView
	var err error
	if date == "" {
		date = "all"
		views, err = e.loadDates("", "")
	} else {
		views, err = e.loadDate(date)
	}
	if err != nil {
		return nil, err
	}

	matched := e.applyFilters(views, q)
	sortViews(matched)

	page := &PapersPage{
		Date:    date,
		Total:   len(matched),
		Filters: q.echo(),
		Papers:  paginate(matched, q.Limit, q.Offset),
	}
	page.Count = len(page.Papers)
	return page, nil
}

// ListAllPapers queries across every stored date, optionally bounded
// by an inclusive date range. Offset is not supported across dates;
// only Limit applies.
func (e *Engine) ListAllPapers(q Query, startDate, endDate string) (*PapersPage, error) {
	views, err := e.loadDates(startDate, endDate)
	if err != nil {
		return nil, err
	}

	matched := e.applyFilters(views, q)
	sortViews(matched)

	page := &PapersPage{
		Total:   len(matched),
		Filters: q.echo(),
		Papers:  paginate(matched, q.Limit, 0),
	}
	page.Count = len(page.Papers)
	return page, nil
}

// GetPaper resolves one paper by identifier. The title token matches
// either the sanitized stored title or, for older links, the raw title
// with underscores read as spaces.
func (e *Engine) GetPaper(id string) (*PaperView, error) {
	date, titleToken, ok := ident.SplitIdentifier(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadID, id)
	}

	views, err := e.loadDate(date)
	if err != nil {
		return nil, err
	}

	spaced := strings.ReplaceAll(titleToken, "_", " ")
	for _, v := range views {
		if ident.SanitizeTitle(v.Title) == titleToken || v.Title == spaced {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// PaperFile resolves the on-disk path of a paper's pdf or markdown
// artifact. A known paper without the requested file is ErrNotFound.
func (e *Engine) PaperFile(id, kind string) (string, error) {
	v, err := e.GetPaper(id)
	if err != nil {
		return "", err
	}
	var path *string
	switch kind {
	case "pdf":
		path = v.Files.PDF
	case "markdown":
		path = v.Files.Markdown
	default:
		return "", fmt.Errorf("%w: unknown file kind %q", ErrBadID, kind)
	}
	if path == nil {
		return "", fmt.Errorf("%w: no %s file for %q", ErrNotFound, kind, id)
	}
	return *path, nil
}

// Categories returns the sorted union of every category across the tree.
func (e *Engine) Categories() ([]string, error) {
	dates, err := e.store.ListDates()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, date := range dates {
		papers, err := e.store.LoadForDate(date)
		if err != nil {
			return nil, err
		}
		for _, p := range papers {
			for _, c := range p.Categories {
				seen[c] = true
			}
		}
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats, nil
}

// Stats summarizes the tree in one scan.
func (e *Engine) Stats() (*Stats, error) {
	dates, err := e.store.ListDates()
	if err != nil {
		return nil, err
	}

	s := &Stats{TotalDays: len(dates), Categories: map[string]int{}}
	for _, date := range dates {
		papers, err := e.store.LoadForDate(date)
		if err != nil {
			return nil, err
		}
		s.TotalPapers += len(papers)
		for _, p := range papers {
			for _, c := range p.Categories {
				s.Categories[c]++
			}
		}
	}
	if len(dates) > 0 {
		s.LatestDate = dates[0]
	}
	return s, nil
}

// DailyStats returns per-day paper counts, newest first.
func (e *Engine) DailyStats() ([]DayCount, error) {
	dates, err := e.store.ListDates()
	if err != nil {
		return nil, err
	}

	daily := make([]DayCount, 0, len(dates))
	for _, date := range dates {
		papers, err := e.store.LoadForDate(date)
		if err != nil {
			return nil, err
		}
		daily = append(daily, DayCount{Date: date, Count: len(papers)})
	}
	return daily, nil
}

func (e *Engine) loadDate(date string) ([]*PaperView, error) {
	papers, err := e.store.LoadForDate(date)
	if err != nil {
		return nil, err
	}
	views := make([]*PaperView, 0, len(papers))
	for _, p := range papers {
		views = append(views, &PaperView{
			PaperRecord: p,
			ID:          ident.Identifier(p.Title, p.Published),
			Date:        date,
			Files:       e.store.ResolvePaths(p, date),
		})
	}
	return views, nil
}

// loadDates merges every stored date's views, optionally bounded by an
// inclusive date range.
func (e *Engine) loadDates(startDate, endDate string) ([]*PaperView, error) {
	dates, err := e.store.ListDates()
	if err != nil {
		return nil, err
	}

	var views []*PaperView
	for _, date := range dates {
		if startDate != "" && date < startDate {
			continue
		}
		if endDate != "" && date > endDate {
			continue
		}
		dayViews, err := e.loadDate(date)
		if err != nil {
			return nil, err
		}
		views = append(views, dayViews...)
	}
	return views, nil
}

// applyFilters narrows views in the fixed order category, keyword,
// author.
func (e *Engine) applyFilters(views []*PaperView, q Query) []*PaperView {
	if q.Category != "" {
		// Exact membership over the categories set; arXiv category
		// names are case-significant.
		views = filterViews(views, func(v *PaperView) bool {
			for _, c := range v.Categories {
				if c == q.Category {
					return true
				}
			}
			return false
		})
	}
	views = e.filterKeyword(views, q.Keyword)
	if q.Author != "" {
		author := strings.ToLower(q.Author)
		views = filterViews(views, func(v *PaperView) bool {
			for _, a := range v.Authors {
				if strings.Contains(strings.ToLower(a), author) {
					return true
				}
			}
			return false
		})
	}
	return views
}

// filterKeyword keeps views whose searchable text contains the keyword,
// case-insensitive. Sidecar content files are read on demand inside a
// bounded worker pool; input order is preserved.
func (e *Engine) filterKeyword(views []*PaperView, keyword string) []*PaperView {
	if keyword == "" {
		return views
	}
	kw := strings.ToLower(keyword)

	workers := e.workers
	if workers < 1 {
		workers = 1
	}

	keep := make([]bool, len(views))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				keep[i] = e.matchesKeyword(views[i], kw)
			}
		}()
	}
	for i := range views {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]*PaperView, 0, len(views))
	for i, v := range views {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}

// matchesKeyword checks title, abstract, generated summary, and full
// text. Full text comes from the record when present, otherwise from
// the content sidecar.
func (e *Engine) matchesKeyword(v *PaperView, kw string) bool {
	for _, s := range []string{v.Title, v.Summary, types.Deref(v.LLMSummary)} {
		if strings.Contains(strings.ToLower(s), kw) {
			return true
		}
	}

	content := types.Deref(v.Content)
	if content == "" && v.Files.Content != nil {
		data, err := os.ReadFile(*v.Files.Content)
		if err != nil {
			e.log.Warn("reading content sidecar failed", "path", *v.Files.Content, "err", err)
			return false
		}
		content = string(data)
	}
	return content != "" && strings.Contains(strings.ToLower(content), kw)
}

// sortViews orders by published timestamp descending. The fixed
// timestamp format makes the lexicographic comparison chronological;
// titles break ties so pagination is stable.
func sortViews(views []*PaperView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].Published != views[j].Published {
			return views[i].Published > views[j].Published
		}
		return views[i].Title < views[j].Title
	})
}

func filterViews(views []*PaperView, pred func(*PaperView) bool) []*PaperView {
	out := make([]*PaperView, 0, len(views))
	for _, v := range views {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func paginate(views []*PaperView, limit, offset int) []*PaperView {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(views) {
		return []*PaperView{}
	}
	views = views[offset:]
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views
}

// echo reports which filters were applied, for inclusion in responses.
func (q Query) echo() map[string]string {
	m := map[string]string{}
	if q.Category != "" {
		m["category"] = q.Category
	}
	if q.Keyword != "" {
		m["keyword"] = q.Keyword
	}
	if q.Author != "" {
		m["author"] = q.Author
	}
	return m
}
