package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTest(t)

	if err := j.Record("s1", "skip_cooldown", "cooldown active", ""); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record("s1", "intervention", "syntax_help", "print(1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Outcome != "intervention" {
		t.Errorf("first entry outcome = %q", entries[0].Outcome)
	}
	if entries[0].Code != "print(1" {
		t.Errorf("code snapshot not restored: %q", entries[0].Code)
	}
	if entries[1].Code != "" {
		t.Errorf("expected empty code on skip entry, got %q", entries[1].Code)
	}
}

func TestRecent_Limit(t *testing.T) {
	j := openTest(t)

	for i := 0; i < 5; i++ {
		if err := j.Record("s1", "no_intervention", "", ""); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestPrune(t *testing.T) {
	j := openTest(t)

	// An old row, inserted directly to control its timestamp.
	old := time.Now().Add(-48 * time.Hour).Unix()
	if _, err := j.db.Exec(
		`INSERT INTO events (session_id, at, outcome) VALUES ('s0', ?, 'failure')`, old); err != nil {
		t.Fatal(err)
	}
	if err := j.Record("s1", "no_intervention", "", ""); err != nil {
		t.Fatal(err)
	}

	removed, err := j.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d rows, want 1", removed)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].SessionID != "s1" {
		t.Errorf("wrong survivor: %+v", entries)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open with missing parents: %v", err)
	}
	j.Close()
}
