// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch populates the page store from seed URLs. Every URL is
// validated against the domain allow-list before any request is made; a
// source outside the allowed set is a hard stop for that source only.
// Per-source fetch failures are logged and skipped — the run proceeds as
// long as at least one page lands. Implements: prd001-scraping (R1, R4).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/company-research/internal/httputil"
	"github.com/pdiddy/company-research/internal/pagestore"
	"github.com/pdiddy/company-research/pkg/types"
)

// ErrDomainNotAllowed marks a URL rejected by the allow-list.
type ErrDomainNotAllowed struct {
	URL string
}

func (e ErrDomainNotAllowed) Error() string {
	return fmt.Sprintf("url not in allowed domains: %s", e.URL)
}

// Fetcher retrieves pages over HTTP with domain validation and
// rate-limit-aware retries.
type Fetcher struct {
	cfg    types.FetchConfig
	client *http.Client
	log    *zap.Logger
}

// New returns a fetcher. A zero timeout falls back to the client default.
func New(cfg types.FetchConfig, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// allowed reports whether rawURL's host is in the allow-list. Exact hosts
// and subdomains of allowed domains are accepted.
func (f *Fetcher) allowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, d := range f.cfg.AllowedDomains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Fetch retrieves one page. The allow-list check happens before the
// request; retries apply only to rate limiting (HTTP 429).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (types.Page, error) {
	if !f.allowed(rawURL) {
		return types.Page{}, ErrDomainNotAllowed{URL: rawURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.Page{}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return types.Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Page{}, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Page{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	title, text, err := ExtractText(body)
	if err != nil {
		return types.Page{}, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	return types.Page{SourceID: rawURL, Title: title, Text: text}, nil
}

// Populate fetches all seed URLs into the store. Individual failures are
// logged and counted, not fatal; the caller decides whether zero pages is
// fatal (it is, for research).
func (f *Fetcher) Populate(ctx context.Context, store *pagestore.Store, seedURLs []string) (fetched, failed int) {
	for _, u := range seedURLs {
		if _, ok := store.Get(u); ok {
			continue
		}
		page, err := f.Fetch(ctx, u)
		if err != nil {
			f.log.Warn("fetch failed", zap.String("url", u), zap.Error(err))
			failed++
			continue
		}
		store.Add(page)
		f.log.Info("fetched page",
			zap.String("url", u),
			zap.String("title", page.Title),
			zap.Int("bytes", len(page.Text)))
		fetched++
	}
	return fetched, failed
}
