// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperflow pipeline
// and serving API.
package types

// PaperRecord is the central entity: one fetched arXiv paper plus any
// enrichment produced by later pipeline stages.
//
// Core fields are set once by the fetch stage and never mutated.
// Enrichment fields are pointers so that "never computed" is
// distinguishable from "computed as empty". They are added
// incrementally and never removed.
type PaperRecord struct {
	// Title is the paper title as returned by arXiv.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the paper abstract with newlines collapsed to spaces.
	Summary string `json:"summary" yaml:"summary"`

	// Published is the submission timestamp in "YYYY-MM-DD HH:MM:SS"
	// form. The fixed format makes lexicographic comparison equivalent
	// to chronological comparison, which the serving layer relies on.
	Published string `json:"published" yaml:"published"`

	// Categories lists every arXiv category the paper carries.
	Categories []string `json:"categories" yaml:"categories"`

	// PrimaryCategory is the paper's primary arXiv category.
	PrimaryCategory string `json:"primary_category" yaml:"primary_category"`

	// PDFURL is the arXiv PDF download URL.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// EntryID is the arXiv abstract page URL, unique per paper.
	EntryID string `json:"entry_id" yaml:"entry_id"`

	// DOI is the registered DOI, when arXiv knows one.
	DOI *string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Content is the full text extracted from the downloaded PDF.
	Content *string `json:"content,omitempty" yaml:"content,omitempty"`

	// LLMSummary is the generated long-form summary.
	LLMSummary *string `json:"llm_summary,omitempty" yaml:"llm_summary,omitempty"`

	// RefinedSummary is the 200-300 word condensed form of LLMSummary.
	RefinedSummary *string `json:"refined_summary,omitempty" yaml:"refined_summary,omitempty"`

	// TranslatedSummary is the translated abstract.
	TranslatedSummary *string `json:"translated_summary,omitempty" yaml:"translated_summary,omitempty"`

	// MarkdownPath is the path of the composed summary document.
	MarkdownPath *string `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`

	// AipaperURL is the front-end gateway URL for this paper, when the
	// URL feature is enabled.
	AipaperURL *string `json:"aipaper_url,omitempty" yaml:"aipaper_url,omitempty"`

	// FilterInfo records the relevance decision for papers that passed
	// the filter during the run that saved them.
	FilterInfo *FilterDecision `json:"filter_info,omitempty" yaml:"filter_info,omitempty"`
}

// StrPtr returns a pointer to s. Convenience for enrichment fields.
func StrPtr(s string) *string { return &s }

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
