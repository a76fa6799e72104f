// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// checklists.go holds the per-category self-verification checklists given
// to the reflection call. The checklist is selected from the categories
// assigned at task creation, never re-derived from the topic string.
// Implements: prd003-sub-agents (R2.2, R2.3).
package agent

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-research/pkg/types"
)

// Checklists maps topic categories to self-verification prompts.
type Checklists map[types.TopicCategory][]string

// DefaultChecklists returns the built-in checklists.
func DefaultChecklists() Checklists {
	return Checklists{
		types.CategoryPeople: {
			"Is every person named with their complete title or position?",
			"Are board members and advisors listed separately from executives?",
			"Were any names mentioned in the context but missing from the findings?",
		},
		types.CategoryNews: {
			"Is every date as precise as the content allows (day over month over quarter over year)?",
			"Is every news item paired with a date when one exists in the content?",
			"Are recent announcements covered, not only older ones?",
		},
		types.CategoryFinancials: {
			"Is every disclosed amount captured with its unit and currency?",
			"Are AUM and platform-level figures distinguished from fund-level figures?",
			"Are percentages tied to what they measure (stake, return, growth)?",
		},
		types.CategoryPortfolio: {
			"Is every portfolio company or deal named, with sector and stage when disclosed?",
			"Are exited and current holdings distinguished?",
		},
		types.CategoryStrategy: {
			"Is every strategy, fund, and program listed by name with its focus?",
			"Are fund vintages or sizes captured when disclosed?",
		},
		types.CategoryGeography: {
			"Are all regions and sectors listed, not just the most prominent?",
		},
		types.CategoryGeneral: {
			"Does every factual claim carry an inline citation?",
			"Is anything stated without support from the provided context?",
		},
	}
}

// LoadChecklists reads checklist overrides from a YAML file, keeping the
// defaults for categories the file does not mention.
func LoadChecklists(path string) (Checklists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checklists: %w", err)
	}
	loaded := Checklists{}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing checklists: %w", err)
	}
	lists := DefaultChecklists()
	for cat, items := range loaded {
		lists[cat] = items
	}
	return lists, nil
}

// For renders the checklist text for a task's categories. The general
// checklist is always appended. When dateCutoff is set and the task is
// news-tagged, a cutoff item is added — this is configured business
// logic, not core behavior.
func (c Checklists) For(cats []types.TopicCategory, dateCutoff string) string {
	var b strings.Builder
	n := 0
	write := func(items []string) {
		for _, item := range items {
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, item)
		}
	}

	newsTagged := false
	for _, cat := range cats {
		if cat == types.CategoryNews {
			newsTagged = true
		}
		write(c[cat])
	}
	write(c[types.CategoryGeneral])

	if newsTagged && dateCutoff != "" {
		n++
		fmt.Fprintf(&b, "%d. Are any dates later than %s? Flag them as suspect.\n", n, dateCutoff)
	}
	return b.String()
}
