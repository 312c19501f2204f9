// Package store handles SQLite persistence.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for users, sessions and keystrokes.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			current_level INTEGER NOT NULL DEFAULT 1,
			total_score INTEGER NOT NULL DEFAULT 0,
			max_wpm REAL NOT NULL DEFAULT 0,
			last_login TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS user_analysis (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			tier TEXT NOT NULL,
			weak_keys TEXT NOT NULL,
			weak_fingers TEXT NOT NULL,
			slow_bigrams TEXT NOT NULL,
			accuracy_avg REAL NOT NULL,
			wpm_avg REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			total_words INTEGER NOT NULL DEFAULT 0,
			total_characters INTEGER NOT NULL DEFAULT 0,
			total_errors INTEGER NOT NULL DEFAULT 0,
			total_time_seconds REAL NOT NULL DEFAULT 0,
			current_score INTEGER NOT NULL DEFAULT 0,
			highest_streak INTEGER NOT NULL DEFAULT 0,
			current_level INTEGER NOT NULL DEFAULT 1,
			unlocked_levels TEXT NOT NULL DEFAULT '[1]'
		);`,
		`CREATE TABLE IF NOT EXISTS keystrokes (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			key_pressed TEXT NOT NULL,
			expected_key TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			latency_us INTEGER,
			word_index INTEGER NOT NULL,
			character_index INTEGER NOT NULL,
			context TEXT NOT NULL,
			hand_used TEXT NOT NULL,
			finger_used TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_keystrokes_session ON keystrokes(session_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_created_at ON user_sessions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func closeRows(rows *sql.Rows) {
	// Best-effort rows close.
	_ = rows.Close()
}
