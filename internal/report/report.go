// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders merged notes into the final markdown document
// and persists run artifacts. The renderer is deterministic: one section
// per topic in topic order, then a sources section mapping global
// citation indices to source IDs. Its whole input is the supervisor's
// output — the note set and the citation table.
// Implements: prd006-reporting (R4, R5).
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/company-research/pkg/types"
)

// Render produces the markdown report for a company from merged notes.
func Render(company string, merged types.MergedNotes) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — Private Investing Research Report\n\n", company)
	fmt.Fprintf(&b, "_Generated %s_\n\n", time.Now().UTC().Format("2006-01-02"))

	for _, note := range merged.Notes {
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(note))
		if note.Unavailable {
			fmt.Fprintf(&b, "Not disclosed in the researched sources.\n\n")
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(note.Content))
	}

	b.WriteString("## Sources\n\n")
	if len(merged.Citations) == 0 {
		b.WriteString("No sources cited.\n")
	}
	for i, src := range merged.Citations {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, src)
	}

	return b.String()
}

// sectionTitle prefers the topic text; the topic ID is a fallback for
// notes rebuilt from an archive that predates topic text storage.
func sectionTitle(note types.Note) string {
	if note.Topic != "" {
		return note.Topic
	}
	return note.TopicID
}

// WriteFile saves the rendered report under dir as
// <company-slug>-report.md and returns the path.
func WriteFile(dir, company, markdown string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, slug(company)+"-report.md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// slug lowercases and hyphenates a company name for filenames.
func slug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
