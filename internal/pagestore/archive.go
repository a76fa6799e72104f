// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// archive.go persists fetched pages to a SQLite run archive so a research
// run can be replayed without re-fetching. Persistence failures are the
// caller's to log; the in-memory store is authoritative during a run.
// Implements: prd001-scraping (R3.3, R3.4).
package pagestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/company-research/pkg/types"
)

const dbFile = "company-research.db"

// Archive wraps the SQLite database holding pages per run.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the run archive in dir, creating the
// schema if needed.
func OpenArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return a, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// DB exposes the underlying handle so the report archive can share it.
func (a *Archive) DB() *sql.DB {
	return a.db
}

func (a *Archive) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			title TEXT,
			text TEXT,
			PRIMARY KEY (run_id, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a new run and returns nothing; the caller supplies the
// run ID (a UUID) so pages, notes, and reports share it.
func (a *Archive) BeginRun(ctx context.Context, runID, company string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO runs (id, company, started_at) VALUES (?, ?, ?)`,
		runID, company, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}

// SavePages writes the store's pages for a run inside one transaction.
func (a *Archive) SavePages(ctx context.Context, runID string, pages []types.Page) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO pages (run_id, position, source_id, title, text)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pages {
		if _, err := stmt.ExecContext(ctx, runID, i, p.SourceID, p.Title, p.Text); err != nil {
			return fmt.Errorf("inserting page %s: %w", p.SourceID, err)
		}
	}
	return tx.Commit()
}

// LoadPages restores the pages of a previous run in stored order.
func (a *Archive) LoadPages(ctx context.Context, runID string) ([]types.Page, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT source_id, title, text FROM pages WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages for run %s: %w", runID, err)
	}
	defer rows.Close()

	var pages []types.Page
	for rows.Next() {
		var p types.Page
		if err := rows.Scan(&p.SourceID, &p.Title, &p.Text); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// LatestRun returns the most recently started run ID, or "" if none exist.
func (a *Archive) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return id, nil
}
