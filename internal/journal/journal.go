// Package journal keeps a local, queryable record of observation attempts
// and their outcomes. It exists for debuggability: guard skips, fail-open
// network errors, and delivered interventions all look identical to the
// learner ("nothing happened" or "a hint appeared"), so the journal is where
// they stay distinguishable. The engine never reads it back to make
// decisions.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/johns/codecoach/internal/snapshot"
)

// Entry is one recorded attempt outcome.
type Entry struct {
	ID        int64
	SessionID string
	At        time.Time
	Outcome   string
	Detail    string
	Code      string
}

// Journal wraps the sqlite store.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	at INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	code BLOB
);
CREATE INDEX IF NOT EXISTS events_at ON events(at);
`

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one attempt outcome. The code snapshot, if any, is stored
// zstd-compressed.
func (j *Journal) Record(sessionID, outcome, detail, code string) error {
	_, err := j.db.Exec(
		`INSERT INTO events (session_id, at, outcome, detail, code) VALUES (?, ?, ?, ?, ?)`,
		sessionID, time.Now().Unix(), outcome, detail, snapshot.Pack(code),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Recent returns the n most recent entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, session_id, at, outcome, detail, code FROM events ORDER BY at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		var code []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &at, &e.Outcome, &e.Detail, &code); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.At = time.Unix(at, 0)
		e.Code, err = snapshot.Unpack(code)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Prune deletes entries older than the retention window. Returns the number
// of rows removed.
func (j *Journal) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := j.db.Exec(`DELETE FROM events WHERE at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}
