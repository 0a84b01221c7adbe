// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch queries the arXiv API for papers submitted in a date
// window. It is the pipeline's only ingress; everything downstream
// works from the PaperRecord values built here.
package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperflow/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivTimeLayout is the submittedDate query granularity.
const arxivTimeLayout = "20060102150405"

// publishedLayout is the timestamp format stored on PaperRecord.
const publishedLayout = "2006-01-02 15:04:05"

// Client fetches papers from arXiv with polite rate limiting.
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
	Config  types.ArxivConfig
}

// New returns a Client honoring the configured request rate.
func New(cfg types.ArxivConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		Limiter: rate.NewLimiter(rate.Limit(rps), 1),
		Config:  cfg,
	}
}

// Window returns the [start, end) fetch window ending at today's
// midnight and reaching daysBack days into the past.
func Window(now time.Time, daysBack int) (start, end time.Time) {
	if daysBack <= 0 {
		daysBack = 1
	}
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start = end.AddDate(0, 0, -daysBack)
	return start, end
}

// Search fetches papers submitted within [start, end], newest first.
// categories and maxResults default to the client configuration when
// zero-valued.
func (c *Client) Search(ctx context.Context, start, end time.Time, categories []string, maxResults int) ([]*types.PaperRecord, error) {
	if len(categories) == 0 {
		categories = c.Config.Categories
	}
	if maxResults <= 0 {
		maxResults = c.Config.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	query := fmt.Sprintf("submittedDate:[%s TO %s]", start.Format(arxivTimeLayout), end.Format(arxivTimeLayout))
	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, cat := range categories {
			cats[i] = "cat:" + cat
		}
		query = fmt.Sprintf("(%s) AND (%s)", query, strings.Join(cats, " OR "))
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, url.QueryEscape(query), maxResults)

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []*types.PaperRecord
	for _, entry := range feed.Entries {
		papers = append(papers, entryToRecord(entry))
	}
	return papers, nil
}

// entryToRecord maps one Atom entry into the pipeline record shape.
func entryToRecord(entry arxivEntry) *types.PaperRecord {
	p := &types.PaperRecord{
		Title:           strings.TrimSpace(entry.Title),
		Summary:         collapseWhitespace(entry.Summary),
		EntryID:         strings.TrimSpace(entry.ID),
		PrimaryCategory: entry.PrimaryCategory.Term,
	}

	for _, a := range entry.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}
	for _, cat := range entry.Categories {
		p.Categories = append(p.Categories, cat.Term)
	}
	for _, link := range entry.Links {
		if link.Title == "pdf" || strings.Contains(link.Href, "/pdf/") {
			p.PDFURL = link.Href
			break
		}
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		p.Published = t.Format(publishedLayout)
	}
	if doi := strings.TrimSpace(entry.DOI); doi != "" {
		p.DOI = &doi
	}
	return p
}

// collapseWhitespace flattens the hard-wrapped Atom abstract into one line.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	DOI             string          `xml:"doi"`
	Authors         []arxivAuthor   `xml:"author"`
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"primary_category"`
	Links           []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}
