// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident derives stable paper identifiers and sanitized filenames.
// The storage layer and the serving API both go through this package so
// the writer and the reader can never disagree on a paper's identity.
package ident

import (
	"strings"
	"unicode"
)

// MaxTitleLen is the rune cap applied to sanitized titles.
const MaxTitleLen = 100

// maxPushTitleLen is the separate cap used by the push-audit filenames.
const maxPushTitleLen = 50

// UnknownDate is the bucket for papers without a published timestamp.
const UnknownDate = "unknown"

// DateOf returns the date portion of a "YYYY-MM-DD HH:MM:SS" timestamp,
// or UnknownDate when the timestamp is empty.
func DateOf(published string) string {
	if published == "" {
		return UnknownDate
	}
	if idx := strings.IndexByte(published, ' '); idx >= 0 {
		return published[:idx]
	}
	return published
}

// SanitizeTitle replaces every rune outside {letters, digits, space,
// hyphen, underscore} with an underscore and truncates to MaxTitleLen
// runes. Distinct titles that differ only in disallowed runes collapse
// to the same sanitized form; that collision is accepted.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	n := 0
	for _, r := range title {
		if n == MaxTitleLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		n++
	}
	return b.String()
}

// Identifier returns the composite paper identifier joining the storage
// and serving layers: "<date>_<sanitizedTitle>".
func Identifier(title, published string) string {
	return DateOf(published) + "_" + SanitizeTitle(title)
}

// SplitIdentifier splits an identifier into its date and title-token
// halves at the first underscore. ok is false when the separator is
// missing.
func SplitIdentifier(id string) (date, titleToken string, ok bool) {
	idx := strings.IndexByte(id, '_')
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// PushSanitizeTitle computes the push-audit filename stem: the first 50
// runes of the title filtered to alnum/space/hyphen/underscore, with
// surrounding spaces trimmed. An empty result becomes "unknown". This
// rule evolved separately from SanitizeTitle and is kept distinct.
func PushSanitizeTitle(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n == maxPushTitleLen {
			break
		}
		n++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return "unknown"
	}
	return s
}
