package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// setupTestLedger opens a fresh SQLite database in a temporary directory.
func setupTestLedger(tb testing.TB) *Ledger {
	tb.Helper()

	db, err := sql.Open("sqlite", filepath.Join(tb.TempDir(), "ledger.db"))
	if err != nil {
		tb.Fatalf("failed to open db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	if err = SetupSchema(db); err != nil {
		tb.Fatalf("failed to setup ledger schema: %v", err)
	}
	// Running it twice must be harmless.
	if err = SetupSchema(db); err != nil {
		tb.Fatalf("SetupSchema is not idempotent: %v", err)
	}
	return New(db)
}

func TestLedger_CycleLifecycle(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()
	started := time.Now()

	if err := l.BeginCycle(ctx, "cycle-1", started, 3); err != nil {
		t.Fatalf("BeginCycle failed: %v", err)
	}
	pages := []Page{
		{Folder: "abc/def", Filename: "one.html", Title: "one", Lang: "en", Template: "test.html", Date: "2024-01-01 00:00:00"},
		{Folder: "abc/def", Filename: "two.html", Title: "two", Lang: "ar", Template: "test1.html", Date: "2024-01-01 00:00:01"},
	}
	if err := l.RecordPages(ctx, "cycle-1", pages); err != nil {
		t.Fatalf("RecordPages failed: %v", err)
	}
	if err := l.FinishCycle(ctx, "cycle-1", started.Add(time.Second), 2, 1); err != nil {
		t.Fatalf("FinishCycle failed: %v", err)
	}

	got, err := l.Pages(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if len(got) != 2 || got[0] != pages[0] || got[1] != pages[1] {
		t.Errorf("unexpected pages: %+v", got)
	}

	s, err := l.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.Cycles != 1 || s.PagesWritten != 2 || s.PagesFailed != 1 || s.Folders != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.LastCycle.IsZero() {
		t.Error("summary should report the last cycle time")
	}
}

func TestLedger_FolderUsed(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	used, err := l.FolderUsed(ctx, "abc/def")
	if err != nil {
		t.Fatalf("FolderUsed failed: %v", err)
	}
	if used {
		t.Error("empty ledger should report no folders in use")
	}

	if err = l.RecordPages(ctx, "c", []Page{{Folder: "abc/def", Filename: "x.html"}}); err != nil {
		t.Fatalf("RecordPages failed: %v", err)
	}
	if used, _ = l.FolderUsed(ctx, "abc/def"); !used {
		t.Error("folder should be reported in use after recording a page in it")
	}
	if used, _ = l.FolderUsed(ctx, "abc/xyz"); used {
		t.Error("unrelated folder reported in use")
	}
}

func TestLedger_FinishUnknownCycle(t *testing.T) {
	l := setupTestLedger(t)
	if err := l.FinishCycle(context.Background(), "nope", time.Now(), 0, 0); err == nil {
		t.Fatal("expected an error finishing a cycle that was never started")
	}
}

func TestLedger_EmptySummary(t *testing.T) {
	l := setupTestLedger(t)
	s, err := l.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.Cycles != 0 || s.PagesWritten != 0 || !s.LastCycle.IsZero() {
		t.Errorf("unexpected summary for an empty ledger: %+v", s)
	}
}
