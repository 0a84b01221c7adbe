// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"strings"
	"unicode/utf8"
)

// maxPDFTextChars caps the extracted text substituted into a prompt so
// an unbounded paper body cannot degrade or fail the model call.
const maxPDFTextChars = 100000

// truncationMarker is appended when the cap strikes.
const truncationMarker = "\n\n[content truncated...]"

// defaultRefineTemplate condenses a long generated summary into a
// 200-300 word digest.
const defaultRefineTemplate = `Condense the following paper summary into 200-300 words, keeping the core research topic, method, and conclusions so a reader can judge relevance quickly.

Original summary:
{summary}

Output only the condensed summary, with no preamble.`

// defaultTranslateTemplate translates the original abstract.
const defaultTranslateTemplate = `Translate the following paper abstract into Chinese, keeping technical terms accurate.

Abstract:
{summary}

Output only the translation, with no preamble.`

// BuildSummaryPrompt renders the summarization template. The template
// may reference {title}, {authors}, {summary} and {pdf_text}; when it
// carries no {pdf_text} placeholder the extracted text (or, absent
// that, the abstract) is substituted for {summary} instead, so older
// templates still see the richest available content.
func BuildSummaryPrompt(template, title string, authors []string, summary, pdfText string) string {
	authorsStr := "Unknown"
	if len(authors) > 0 {
		authorsStr = strings.Join(authors, ", ")
	}

	content := summary
	if pdfText != "" {
		content = truncateChars(pdfText, maxPDFTextChars)
	}

	if strings.Contains(template, "{pdf_text}") {
		return strings.NewReplacer(
			"{title}", title,
			"{authors}", authorsStr,
			"{summary}", summary,
			"{pdf_text}", content,
		).Replace(template)
	}
	return strings.NewReplacer(
		"{title}", title,
		"{authors}", authorsStr,
		"{summary}", content,
	).Replace(template)
}

// BuildRefinePrompt renders the refine template (built-in when empty).
func BuildRefinePrompt(template, llmSummary string) string {
	if template == "" {
		template = defaultRefineTemplate
	}
	return strings.ReplaceAll(template, "{summary}", llmSummary)
}

// BuildTranslatePrompt renders the translate template (built-in when empty).
func BuildTranslatePrompt(template, summary string) string {
	if template == "" {
		template = defaultTranslateTemplate
	}
	return strings.ReplaceAll(template, "{summary}", summary)
}

// truncateChars caps s at max bytes, appending the marker when
// anything was cut. The cut backs up to a rune boundary so the result
// stays valid UTF-8.
func truncateChars(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + truncationMarker
}
