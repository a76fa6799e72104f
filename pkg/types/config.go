// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	// Per prd001-scraping R4.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the page fetching stage.
// Per prd001-scraping R1, R4.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// AllowedDomains is the allow-list of hosts that may be fetched.
	// A URL outside this set is rejected before any request is made.
	AllowedDomains []string `json:"allowed_domains" yaml:"allowed_domains"`

	// MaxRetries is the retry budget for rate-limited requests (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-3-flash-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls.
	// Retries are applied by the call wrapper, never by the orchestration
	// core itself (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ResearchConfig holds settings for the supervisor and its worker pools.
// Per prd004-supervision R5.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// InitialWorkers bounds concurrency for the first dispatch (default 4).
	InitialWorkers int `json:"initial_workers" yaml:"initial_workers"`

	// RefinementWorkers bounds concurrency for refinement dispatches
	// (default 2). Refinement batches are smaller and their contexts are
	// pattern-search snippets, so the pool is narrower.
	RefinementWorkers int `json:"refinement_workers" yaml:"refinement_workers"`

	// MaxRefinementIterations caps the review/refine loop (default 2).
	MaxRefinementIterations int `json:"max_refinement_iterations" yaml:"max_refinement_iterations"`

	// ContextByteBudget bounds the ranked context size. Zero (the default)
	// disables truncation; a positive budget drops whole trailing pages
	// once exceeded, never splitting a page.
	ContextByteBudget int `json:"context_byte_budget" yaml:"context_byte_budget"`

	// DateCutoff, when set (YYYY-MM-DD), adds a checklist item asking the
	// reflection step to flag dates past the cutoff. This is configurable
	// business logic, not a structural requirement.
	DateCutoff string `json:"date_cutoff,omitempty" yaml:"date_cutoff,omitempty"`
}

// ReportConfig holds settings for report rendering and the run archive.
// Per prd006-reporting R4.
type ReportConfig struct {
	// ArchiveDir is the directory holding the SQLite run archive.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// OutputDir is the directory for rendered markdown reports.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Report   ReportConfig   `json:"report" yaml:"report"`
}
