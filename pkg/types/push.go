// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PushPayload is the inner paper representation sent to the gateway.
type PushPayload struct {
	Title string `json:"title"`

	// Author is the joined author list, capped at five names with an
	// "et al." suffix carrying the total count.
	Author string `json:"author"`

	// Content is the best available long text: content, then
	// llm_summary, refined_summary, translated_summary, summary.
	Content string `json:"content"`

	// EnContent mirrors Content for consumers that key on language.
	EnContent string `json:"en_content"`

	// Digest is the best available short text: refined_summary, then
	// translated_summary, then summary.
	Digest string `json:"digest"`

	// Time is the paper's published timestamp, or the push time when
	// the record has none.
	Time string `json:"time"`

	// URL is aipaper_url, then pdf_url, then entry_id.
	URL string `json:"url"`
}

// PushControl carries gateway routing flags.
type PushControl struct {
	EventType      string `json:"event_type"`
	RecommendInner bool   `json:"recommend_inner"`
}

// PushEnvelope is the complete gateway request body.
type PushEnvelope struct {
	SourceSystem string      `json:"source_system"`
	Control      PushControl `json:"control"`
	Payload      PushPayload `json:"payload"`
}
