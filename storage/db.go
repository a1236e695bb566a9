// Package storage persists the log corpus, saved findings and exported
// transcripts.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"logchat/config"
)

// DB is the SQLite database shared by LogStore and FindingsStore.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	config.DebugLog.Debugf("[Storage] Opened database %s", path)
	return d, nil
}

func (d *DB) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS logs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		ts INTEGER NOT NULL,
		level TEXT NOT NULL,
		daemon TEXT NOT NULL,
		message TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs(ts, seq);
	CREATE INDEX IF NOT EXISTS idx_logs_daemon ON logs(daemon);

	CREATE TABLE IF NOT EXISTS findings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`

	_, err := d.db.Exec(schema)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}
