// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// archive.go persists merged notes and rendered reports into the shared
// SQLite run archive, so the report subcommand can re-render past runs
// without re-fetching or re-researching.
package report

import (
	"context"
	"database/sql"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/company-research/pkg/types"
)

// Archive stores run artifacts. It shares the database handle with the
// page archive so one file holds the whole run.
type Archive struct {
	db *sql.DB
}

// NewArchive prepares the notes/reports schema on an open database.
func NewArchive(db *sql.DB) (*Archive, error) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			run_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (run_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT NOT NULL,
			company TEXT NOT NULL,
			markdown TEXT NOT NULL,
			PRIMARY KEY (run_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("creating report schema: %w", err)
		}
	}
	return &Archive{db: db}, nil
}

// SaveNotes stores the merged notes for a run as a YAML payload.
func (a *Archive) SaveNotes(ctx context.Context, runID string, merged types.MergedNotes) error {
	payload, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshaling notes: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notes (run_id, payload) VALUES (?, ?)`,
		runID, string(payload))
	if err != nil {
		return fmt.Errorf("saving notes for run %s: %w", runID, err)
	}
	return nil
}

// LoadNotes restores the merged notes of a previous run.
func (a *Archive) LoadNotes(ctx context.Context, runID string) (types.MergedNotes, error) {
	var payload string
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM notes WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		return types.MergedNotes{}, fmt.Errorf("loading notes for run %s: %w", runID, err)
	}
	var merged types.MergedNotes
	if err := yaml.Unmarshal([]byte(payload), &merged); err != nil {
		return types.MergedNotes{}, fmt.Errorf("parsing notes for run %s: %w", runID, err)
	}
	return merged, nil
}

// SaveReport stores the rendered markdown for a run.
func (a *Archive) SaveReport(ctx context.Context, runID, company, markdown string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (run_id, company, markdown) VALUES (?, ?, ?)`,
		runID, company, markdown)
	if err != nil {
		return fmt.Errorf("saving report for run %s: %w", runID, err)
	}
	return nil
}

// LoadReport restores the company name and markdown of a previous run.
func (a *Archive) LoadReport(ctx context.Context, runID string) (company, markdown string, err error) {
	err = a.db.QueryRowContext(ctx,
		`SELECT company, markdown FROM reports WHERE run_id = ?`, runID).
		Scan(&company, &markdown)
	if err != nil {
		return "", "", fmt.Errorf("loading report for run %s: %w", runID, err)
	}
	return company, markdown, nil
}
