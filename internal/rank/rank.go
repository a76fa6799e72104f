// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders pages by topical relevance and assembles the
// research context handed to sub-agents. No page is ever dropped for a
// low score — ranking only reorders so the most relevant content leads
// the context window. Implements: prd002-context (R1-R4).
package rank

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-research/pkg/types"
)

// titleBonus is added once when any keyword appears in the page title.
const titleBonus = 5.0

// Table maps topic categories to the keywords used for scoring. Loaded
// once at supervisor construction; topics are classified against it at
// task-creation time only (R1.2).
type Table map[types.TopicCategory][]string

// DefaultTable returns the built-in keyword table for private-markets
// research topics.
func DefaultTable() Table {
	return Table{
		types.CategoryPeople: {
			"leader", "leadership", "decision maker", "team", "people",
			"executive", "board", "partner", "director", "officer",
		},
		types.CategoryNews: {
			"news", "announcement", "press release", "recent", "update",
			"launch", "acquisition",
		},
		types.CategoryFinancials: {
			"aum", "assets under management", "metric", "capital",
			"fund size", "valuation", "billion", "million", "performance",
		},
		types.CategoryPortfolio: {
			"portfolio", "invested", "investment", "company", "companies",
			"holding", "deal", "firm",
		},
		types.CategoryStrategy: {
			"strategy", "strategies", "fund", "program", "approach",
			"thesis", "stage", "focus",
		},
		types.CategoryGeography: {
			"region", "regions", "sector", "sectors", "geographic",
			"geography", "market", "country", "location",
		},
	}
}

// LoadTable reads a keyword table from a YAML file, falling back to the
// defaults for categories the file does not mention.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table: %w", err)
	}
	loaded := Table{}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing keyword table: %w", err)
	}
	table := DefaultTable()
	for cat, words := range loaded {
		table[cat] = words
	}
	return table, nil
}

// Classify maps a topic string to zero or more categories by substring
// match against the table's keywords. Called once, when the supervisor
// creates the task; the resulting categories travel with the SubTask.
func Classify(topic string, table Table) []types.TopicCategory {
	lower := strings.ToLower(topic)
	var cats []types.TopicCategory
	for _, cat := range categoryOrder() {
		for _, kw := range table[cat] {
			if strings.Contains(lower, kw) {
				cats = append(cats, cat)
				break
			}
		}
	}
	return cats
}

// categoryOrder fixes the iteration order so classification is
// deterministic regardless of map ordering.
func categoryOrder() []types.TopicCategory {
	return []types.TopicCategory{
		types.CategoryPeople,
		types.CategoryNews,
		types.CategoryFinancials,
		types.CategoryPortfolio,
		types.CategoryStrategy,
		types.CategoryGeography,
	}
}

// Keywords returns the union of keyword lists for the given categories,
// preserving table order and dropping duplicates.
func Keywords(cats []types.TopicCategory, table Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, cat := range cats {
		for _, kw := range table[cat] {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}

// Rank returns the pages reordered most-relevant-first for the given
// categories. The sort is stable: pages with equal scores keep their
// original order, and identical inputs always produce identical output.
// Every input page appears in the result exactly once (R2.4).
func Rank(pages []types.Page, cats []types.TopicCategory, table Table) []types.Page {
	keywords := Keywords(cats, table)

	ranked := make([]types.Page, len(pages))
	copy(ranked, pages)

	scores := make(map[string]float64, len(ranked))
	for _, p := range ranked {
		scores[p.SourceID] = score(p, keywords)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].SourceID] > scores[ranked[j].SourceID]
	})
	return ranked
}

// score computes a page's relevance: a flat title bonus when any keyword
// appears in the title, plus per-keyword occurrence density normalized by
// page length so short pages are not drowned out by long ones (R2.2).
func score(p types.Page, keywords []string) float64 {
	titleLower := strings.ToLower(p.Title)
	textLower := strings.ToLower(p.Text)

	norm := float64(len(p.Text))
	if norm < 1000 {
		norm = 1000
	}

	var s float64
	titleHit := false
	for _, kw := range keywords {
		if !titleHit && strings.Contains(titleLower, kw) {
			titleHit = true
		}
		if n := strings.Count(textLower, kw); n > 0 {
			s += float64(n) * 1000 / norm
		}
	}
	if titleHit {
		s += titleBonus
	}
	return s
}

// BuildContext concatenates ranked pages into the sub-agent context.
// Each page gets a numbered source header; the numbering defines the
// citation space for the result built on this context. A byteBudget of
// zero or less disables truncation, which is the default. With a positive
// budget, whole trailing pages are dropped once the budget is exceeded; a
// page is never split (R3.2).
func BuildContext(pages []types.Page, byteBudget int) (string, []string) {
	var b strings.Builder
	var sources []string

	for i, p := range pages {
		chunk := fmt.Sprintf("=== SOURCE [%d] ===\nURL: %s\nTitle: %s\n\n%s\n\n",
			i+1, p.SourceID, p.Title, p.Text)
		if byteBudget > 0 && b.Len() > 0 && b.Len()+len(chunk) > byteBudget {
			break
		}
		b.WriteString(chunk)
		sources = append(sources, p.SourceID)
	}
	return b.String(), sources
}
