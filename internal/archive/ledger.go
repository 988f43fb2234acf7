// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const ledgerFile = "harvester.db"

// Ledger is the SQLite audit trail of collection runs. It records one
// row per run; the per-query results.json remains the source of truth
// for the records themselves.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the run ledger under the output root.
func OpenLedger(root string) (*Ledger, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	dbPath := filepath.Join(root, ledgerFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening run ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	const stmt = `CREATE TABLE IF NOT EXISTS runs (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		slug TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages INTEGER NOT NULL,
		records INTEGER NOT NULL,
		downloaded INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		outcome TEXT NOT NULL
	)`
	if _, err := l.db.Exec(stmt); err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record appends one run summary to the ledger.
func (l *Ledger) Record(s types.RunSummary) error {
	_, err := l.db.Exec(
		`INSERT INTO runs (query, slug, started_at, finished_at, pages, records, downloaded, skipped, failed, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Query, s.Slug,
		s.StartedAt.UTC().Format(time.RFC3339),
		s.FinishedAt.UTC().Format(time.RFC3339),
		s.Pages, s.Records, s.Downloaded, s.Skipped, s.Failed, s.Outcome,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Runs returns recorded runs, most recent first.
func (l *Ledger) Runs() ([]types.RunSummary, error) {
	rows, err := l.db.Query(
		`SELECT query, slug, started_at, finished_at, pages, records, downloaded, skipped, failed, outcome
		 FROM runs ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []types.RunSummary
	for rows.Next() {
		var s types.RunSummary
		var started, finished string
		if err := rows.Scan(&s.Query, &s.Slug, &started, &finished,
			&s.Pages, &s.Records, &s.Downloaded, &s.Skipped, &s.Failed, &s.Outcome); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339, started)
		s.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
