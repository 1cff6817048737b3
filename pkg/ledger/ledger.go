/*
Package ledger keeps a SQLite-backed history of generation cycles and the
pages they wrote.

The history lets the folder allocator avoid names handed out by earlier cycles,
even after their folders are removed from disk, and gives a cheap summary of
everything generated so far. The package only needs a *sql.DB; the driver is
chosen by the caller.
*/
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_cycles (
    cycle_id     TEXT PRIMARY KEY,
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME,
    requested    INTEGER NOT NULL,
    written      INTEGER NOT NULL DEFAULT 0,
    failed       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS ledger_pages (
    page_id      INTEGER PRIMARY KEY,
    cycle_id     TEXT NOT NULL,
    folder       TEXT NOT NULL,
    filename     TEXT NOT NULL,
    title        TEXT NOT NULL,
    lang         TEXT NOT NULL,
    template     TEXT NOT NULL,
    page_date    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_pages_folder ON ledger_pages (folder);
`

// SetupSchema creates the ledger tables. It is idempotent.
func SetupSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not create ledger schema: %w", err)
	}
	return nil
}

// Page is a single written page as stored in the ledger.
type Page struct {
	Folder   string
	Filename string
	Title    string
	Lang     string
	Template string
	Date     string
}

// Summary is a high-level overview of the whole history.
type Summary struct {
	Cycles       int64
	PagesWritten int64
	PagesFailed  int64
	Folders      int64
	LastCycle    time.Time
}

// Ledger records cycles and pages. It is safe for concurrent use to the same
// degree the underlying *sql.DB is.
type Ledger struct {
	db *sql.DB
}

// New returns a Ledger over db. SetupSchema must have been called on db.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// BeginCycle records the start of a cycle.
func (l *Ledger) BeginCycle(ctx context.Context, cycleID string, started time.Time, requested int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ledger_cycles (cycle_id, started_at, requested) VALUES (?, ?, ?)`,
		cycleID, started.UTC(), requested)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %s: %w", cycleID, err)
	}
	return nil
}

// RecordPages stores the pages written by a cycle in a single transaction.
func (l *Ledger) RecordPages(ctx context.Context, cycleID string, pages []Page) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO ledger_pages (cycle_id, folder, filename, title, lang, template, page_date)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not prepare page insert: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmt)

	for _, p := range pages {
		if _, err = stmt.ExecContext(ctx, cycleID, p.Folder, p.Filename, p.Title, p.Lang, p.Template, p.Date); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", p.Filename, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pages: %w", err)
	}
	return nil
}

// FinishCycle records the outcome of a cycle.
func (l *Ledger) FinishCycle(ctx context.Context, cycleID string, finished time.Time, written, failed int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE ledger_cycles SET finished_at = ?, written = ?, failed = ? WHERE cycle_id = ?`,
		finished.UTC(), written, failed, cycleID)
	if err != nil {
		return fmt.Errorf("failed to update cycle %s: %w", cycleID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cycle %s was never started", cycleID)
	}
	return nil
}

// FolderUsed reports whether any recorded page lives in folder.
func (l *Ledger) FolderUsed(ctx context.Context, folder string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ledger_pages WHERE folder = ?)`, folder).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up folder %s: %w", folder, err)
	}
	return exists, nil
}

// Pages returns the pages recorded for a cycle, in insertion order.
func (l *Ledger) Pages(ctx context.Context, cycleID string) ([]Page, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT folder, filename, title, lang, template, page_date
        FROM ledger_pages WHERE cycle_id = ? ORDER BY page_id`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var pages []Page
	for rows.Next() {
		var p Page
		if err = rows.Scan(&p.Folder, &p.Filename, &p.Title, &p.Lang, &p.Template, &p.Date); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Summary aggregates the whole history.
func (l *Ledger) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	var last sql.NullString
	err := l.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COALESCE(SUM(written), 0), COALESCE(SUM(failed), 0), MAX(started_at)
        FROM ledger_cycles`).Scan(&s.Cycles, &s.PagesWritten, &s.PagesFailed, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize cycles: %w", err)
	}
	if err = l.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT folder) FROM ledger_pages`).Scan(&s.Folders); err != nil {
		return nil, fmt.Errorf("failed to count folders: %w", err)
	}
	if last.Valid {
		s.LastCycle = parseTime(last.String)
	}
	return s, nil
}

// Drivers differ in how they hand back DATETIME columns through an aggregate,
// so MAX(started_at) is scanned as text and parsed here.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
