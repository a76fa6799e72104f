// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page holds the cleaned text content of one fetched web page.
// Pages are immutable once fetched and shared read-only by every
// research phase. Per prd001-scraping R2.1-R2.3.
type Page struct {
	// SourceID is the stable identifier for the page (the normalized URL).
	SourceID string `json:"source_id" yaml:"source_id"`

	// Title is the page title as extracted from the HTML head.
	Title string `json:"title" yaml:"title"`

	// Text is the visible text content with markup stripped.
	Text string `json:"text" yaml:"text"`
}

// PatternMatch is a snippet extracted by the pattern search index during
// refinement. Matches are ephemeral: they are rendered into a refinement
// task's context and never persisted. Per prd005-pattern-search R3.1.
type PatternMatch struct {
	// PatternName identifies the pattern that produced the match.
	PatternName string

	// SourceID identifies the page the match came from.
	SourceID string

	// Matched is the exact matched span.
	Matched string

	// Snippet is the match plus its configured window of surrounding lines.
	Snippet string
}
