// Package storage implements the authoritative relational store: agents,
// workspaces, conversations, messages, snippets, plus a relational
// fts_messages mirror used as the fallback search backend when the
// primary full-text index (internal/ftsindex) is unavailable.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openSQLiteDB opens (creating if absent) the SQLite database at path
// with the pure-Go modernc.org/sqlite driver, and applies the pragmas
// required for a single-writer, many-reader embedded workload. This
// database is authoritative, not a foreign artifact opened defensively.
func openSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -64000",
		"PRAGMA mmap_size = 268435456",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: pragma %q: %w", p, err)
		}
	}
	return db, nil
}
