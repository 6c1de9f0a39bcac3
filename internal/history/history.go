// Package history persists scoring runs in SQLite so content quality can
// be tracked over time: whole-tree batch runs, per-page results, and the
// rolling run the watcher records into.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	root       TEXT NOT NULL DEFAULT '',
	files      INTEGER NOT NULL DEFAULT 0,
	average    REAL NOT NULL DEFAULT 0,
	lowest     REAL NOT NULL DEFAULT 0,
	highest    REAL NOT NULL DEFAULT 0,
	stubs      INTEGER NOT NULL DEFAULT 0,
	hubs       INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS page_scores (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path       TEXT NOT NULL,
	format     TEXT NOT NULL DEFAULT '',
	overall    REAL NOT NULL DEFAULT 0,
	word_count INTEGER NOT NULL DEFAULT 0,
	is_stub    INTEGER NOT NULL DEFAULT 0,
	is_hub     INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL DEFAULT '',
	criteria   TEXT NOT NULL DEFAULT '[]',
	scored_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (run_id, path)
);

CREATE INDEX IF NOT EXISTS idx_page_scores_path ON page_scores(path);
`

// DB wraps a sql.DB with history-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
