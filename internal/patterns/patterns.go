// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns provides the pattern search index used during
// refinement. Full-page re-analysis of a coverage gap is expensive and
// imprecise; scanning for named extraction patterns yields a dense,
// targeted snippet set addressing the specific gap instead.
// Implements: prd005-pattern-search (R1-R4).
package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/company-research/pkg/types"
)

// Pattern is one named text-extraction pattern: a matcher plus the number
// of surrounding lines to keep as context.
type Pattern struct {
	// Name identifies the pattern (e.g. "news_dates").
	Name string

	// Matcher is the compiled expression scanned line by line.
	Matcher *regexp.Regexp

	// ContextLines is the window of lines kept before and after a match.
	ContextLines int
}

// Index is the registry of named patterns. Built once at supervisor
// construction and shared read-only.
type Index struct {
	byName map[string]Pattern
	order  []string
}

// NewIndex returns the built-in registry covering dates, people and
// titles, monetary amounts, percentages, organizations and funds, sector
// keywords, geography, and investment rounds.
func NewIndex() *Index {
	idx := &Index{byName: make(map[string]Pattern)}
	for _, p := range builtins() {
		idx.register(p)
	}
	return idx
}

func (idx *Index) register(p Pattern) {
	if _, ok := idx.byName[p.Name]; !ok {
		idx.order = append(idx.order, p.Name)
	}
	idx.byName[p.Name] = p
}

// Names returns all registered pattern names in registration order.
func (idx *Index) Names() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Get returns the pattern for name, if registered.
func (idx *Index) Get(name string) (Pattern, bool) {
	p, ok := idx.byName[name]
	return p, ok
}

func builtins() []Pattern {
	month := `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
	return []Pattern{
		// Dates.
		{Name: "news_dates", ContextLines: 5, Matcher: regexp.MustCompile(
			`\d{4}-\d{2}-\d{2}|` + month + `\s+\d{1,2},\s+\d{4}`)},
		{Name: "quarter_dates", ContextLines: 4, Matcher: regexp.MustCompile(
			`Q[1-4]\s+\d{4}|(?i:(?:first|second|third|fourth)\s+quarter\s+(?:of\s+)?\d{4})`)},
		{Name: "month_year_dates", ContextLines: 4, Matcher: regexp.MustCompile(
			month + `\s+\d{4}`)},

		// Organizations and portfolio.
		{Name: "company_names", ContextLines: 3, Matcher: regexp.MustCompile(
			`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*(?:\sInc\.|\sLLC|\sLtd\.|\sCorp\.)`)},
		{Name: "private_entities", ContextLines: 3, Matcher: regexp.MustCompile(
			`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*\s+(?:LP|GP|Holdings?|Partners?|Group|Management|Advisors?)`)},
		{Name: "sector_keywords", ContextLines: 3, Matcher: regexp.MustCompile(
			`\b(?:biotech(?:nology)?|fintech|healthtech|climate tech|clean tech|SaaS|enterprise software|consumer|B2B|B2C|healthcare|financial services|real estate|infrastructure)\b`)},

		// People and leadership.
		{Name: "people_with_titles", ContextLines: 2, Matcher: regexp.MustCompile(
			`[A-Z][a-z]+\s[A-Z][a-z]+,?\s+(?:CEO|CTO|CFO|COO|Partner|Managing Director|Director|Vice President|VP|Head of|Chief)`)},
		{Name: "academic_titles", ContextLines: 2, Matcher: regexp.MustCompile(
			`[A-Z][a-z]+\s[A-Z][a-z]+,?\s+(?:PhD|MD|MBA|JD|CFA|M\.D\.|Ph\.D\.)`)},
		{Name: "board_roles", ContextLines: 2, Matcher: regexp.MustCompile(
			`[A-Z][a-z]+\s[A-Z][a-z]+,?\s+(?:Board Member|Trustee|Advisory Board|Board of Directors|Independent Director|Non-Executive Director)`)},
		{Name: "senior_titles", ContextLines: 2, Matcher: regexp.MustCompile(
			`\b(?:Senior|Principal|Executive|General)\s+(?:Partner|Director|Manager|Vice President|Advisor)\b`)},

		// Financial metrics.
		{Name: "dollar_amounts", ContextLines: 3, Matcher: regexp.MustCompile(
			`\$\d+(?:\.\d+)?(?:M|B|bn|mn|million|billion|\s+million|\s+billion)`)},
		{Name: "percentages", ContextLines: 3, Matcher: regexp.MustCompile(
			`\d+(?:\.\d+)?%(?:\s+(?:stake|ownership|equity|interest|return|growth|increase))?`)},
		{Name: "employee_counts", ContextLines: 2, Matcher: regexp.MustCompile(
			`\d+\+?\s+(?:employees?|people|team members?|professionals?)`)},

		// Geography.
		{Name: "geography", ContextLines: 2, Matcher: regexp.MustCompile(
			`\b(?:APAC|EMEA|North America|Europe|Asia|Latin America|Middle East|Africa|US|UK|China|India|San Francisco|New York|Boston|London|Singapore)\b`)},

		// Investment terms.
		{Name: "investment_rounds", ContextLines: 3, Matcher: regexp.MustCompile(
			`\b(?:Seed|Series\s+[A-F]|Pre-seed|Growth\s+(?:round|equity)|Late\s+stage|Early\s+stage)\b`)},
		{Name: "fund_names", ContextLines: 3, Matcher: regexp.MustCompile(
			`(?:[A-Z][a-z]+\s)+(?:Fund|Venture|Capital|Growth|Portfolio|Strategy)`)},
	}
}

// Search scans every page for every requested pattern and returns the
// matches with their context windows. Results come back in page order,
// then match-position order; overlapping windows within a page/pattern
// pair are deduplicated so dense hits do not repeat context (R3.2).
// Unknown pattern names are skipped.
func (idx *Index) Search(names []string, pages []types.Page) []types.PatternMatch {
	var out []types.PatternMatch
	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		for _, name := range names {
			p, ok := idx.byName[name]
			if !ok {
				continue
			}
			out = append(out, searchPage(p, page, lines)...)
		}
	}
	return out
}

func searchPage(p Pattern, page types.Page, lines []string) []types.PatternMatch {
	var matches []types.PatternMatch
	lastEnd := -1 // last line index covered by an emitted window

	for i, line := range lines {
		for _, loc := range p.Matcher.FindAllString(line, -1) {
			start := i - p.ContextLines
			if start < 0 {
				start = 0
			}
			end := i + p.ContextLines
			if end >= len(lines) {
				end = len(lines) - 1
			}

			// Skip windows fully inside the previous one.
			if end <= lastEnd {
				continue
			}
			if start <= lastEnd {
				start = lastEnd + 1
			}
			lastEnd = end

			matches = append(matches, types.PatternMatch{
				PatternName: p.Name,
				SourceID:    page.SourceID,
				Matched:     loc,
				Snippet:     strings.Join(lines[start:end+1], "\n"),
			})
		}
	}
	return matches
}

// gapRoutes maps gap-description keywords to pattern names. The table is
// walked in order; every route whose keywords appear in the gap or topic
// contributes its patterns (R2.1).
var gapRoutes = []struct {
	keywords []string
	patterns []string
	topicToo bool // also match against the topic text, not just the gap
}{
	{keywords: []string{"news", "announcement", "press release", "date"},
		patterns: []string{"news_dates", "quarter_dates", "month_year_dates"}},
	{keywords: []string{"company", "companies", "portfolio", "investment", "firm"},
		patterns: []string{"company_names", "private_entities", "sector_keywords"}, topicToo: true},
	{keywords: []string{"team", "leadership", "decision maker", "people", "member", "executive", "board"},
		patterns: []string{"people_with_titles", "academic_titles", "board_roles", "senior_titles"}, topicToo: true},
	{keywords: []string{"amount", "aum", "assets", "fund size", "capital", "valuation", "stake", "ownership"},
		patterns: []string{"dollar_amounts", "percentages", "fund_names"}},
	{keywords: []string{"region", "geographic", "location", "country", "market"},
		patterns: []string{"geography"}, topicToo: true},
	{keywords: []string{"round", "series", "stage", "strategy", "fund"},
		patterns: []string{"investment_rounds", "fund_names"}, topicToo: true},
	{keywords: []string{"employee", "team size", "headcount", "scale"},
		patterns: []string{"employee_counts"}},
}

// defaultRoute is used when no keywords match: dates plus organization
// names cover the most common gap (imprecise news coverage).
var defaultRoute = []string{"news_dates", "quarter_dates", "company_names"}

// ForGap selects pattern names for a gap description and its topic.
// Duplicates are removed preserving first-selection order.
func ForGap(gapDescription, topic string) []string {
	gap := strings.ToLower(gapDescription)
	top := strings.ToLower(topic)

	seen := make(map[string]bool)
	var names []string
	add := func(ps []string) {
		for _, p := range ps {
			if !seen[p] {
				seen[p] = true
				names = append(names, p)
			}
		}
	}

	for _, route := range gapRoutes {
		for _, kw := range route.keywords {
			if strings.Contains(gap, kw) || (route.topicToo && strings.Contains(top, kw)) {
				add(route.patterns)
				break
			}
		}
	}

	if len(names) == 0 {
		add(defaultRoute)
	}
	return names
}

// BuildSnippetContext renders pattern matches into the context string for
// a refinement task, grouped per pattern with at most maxPerPattern
// snippets each. Returns the context and the pattern names that actually
// produced matches (R4.1, R4.2).
func BuildSnippetContext(matches []types.PatternMatch, maxPerPattern int) (string, []string) {
	if maxPerPattern <= 0 {
		maxPerPattern = 20
	}

	grouped := make(map[string][]types.PatternMatch)
	var order []string
	for _, m := range matches {
		if _, ok := grouped[m.PatternName]; !ok {
			order = append(order, m.PatternName)
		}
		grouped[m.PatternName] = append(grouped[m.PatternName], m)
	}

	var b strings.Builder
	var used []string
	for _, name := range order {
		ms := grouped[name]
		if len(ms) > maxPerPattern {
			ms = ms[:maxPerPattern]
		}
		used = append(used, name)

		fmt.Fprintf(&b, "=== PATTERN: %s (%d matches) ===\n", strings.ToUpper(name), len(ms))
		for i, m := range ms {
			fmt.Fprintf(&b, "\n--- Match %d: %q (source: %s) ---\n%s\n", i+1, m.Matched, m.SourceID, m.Snippet)
		}
		b.WriteString("\n")
	}
	return b.String(), used
}

// SourcesOf returns the distinct source IDs the matches came from, in
// first-appearance order. Refinement results cite these.
func SourcesOf(matches []types.PatternMatch) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		if !seen[m.SourceID] {
			seen[m.SourceID] = true
			out = append(out, m.SourceID)
		}
	}
	return out
}
