package storage

import (
	"database/sql"
	"fmt"
)

// migration is one ordered, idempotent schema step, wrapped in its own
// transaction, following jalfarocode-engram/internal/store/store.go's
// manual CREATE TABLE IF NOT EXISTS migration style (chosen over
// golang-migrate/migrate/v4: see DESIGN.md).
type migration struct {
	version int
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS meta (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS agents (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				slug         TEXT NOT NULL UNIQUE,
				display_name TEXT NOT NULL,
				kind         TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS workspaces (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				path         TEXT NOT NULL UNIQUE,
				display_name TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS conversations (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				agent_id     INTEGER NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
				external_id  TEXT NOT NULL,
				title        TEXT,
				workspace_id INTEGER REFERENCES workspaces(id) ON DELETE SET NULL,
				source_path  TEXT NOT NULL,
				source_mtime INTEGER NOT NULL DEFAULT 0,
				started_at   INTEGER,
				ended_at     INTEGER,
				metadata     TEXT,
				UNIQUE(agent_id, external_id)
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
				idx             INTEGER NOT NULL,
				role            TEXT NOT NULL,
				author          TEXT,
				created_at      INTEGER,
				content         TEXT NOT NULL,
				UNIQUE(conversation_id, idx)
			)`,
			`CREATE TABLE IF NOT EXISTS snippets (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				message_id  INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
				file_path   TEXT NOT NULL,
				start_line  INTEGER NOT NULL,
				end_line    INTEGER NOT NULL,
				language    TEXT,
				text        TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_conversations_agent_started
				ON conversations(agent_id, started_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_conversation_idx
				ON messages(conversation_id, idx)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_created_at
				ON messages(created_at)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS fts_messages USING fts5(
				content,
				title,
				agent_slug,
				workspace,
				message_id UNINDEXED,
				conversation_id UNINDEXED,
				created_at UNINDEXED,
				tokenize = 'porter'
			)`,
		},
	},
}

// Migrate applies every migration newer than the recorded schema_version,
// each inside its own transaction, in order.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("storage: bootstrap meta table: %w", err)
	}

	current := schemaVersion(db)
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("storage: migration %d: %w", m.version, err)
		}
	}
	return nil
}

func schemaVersion(db *sql.DB) int {
	var raw string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&raw)
	if err != nil {
		return 0
	}
	var v int
	fmt.Sscanf(raw, "%d", &v)
	return v
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", m.version),
	); err != nil {
		return err
	}
	return tx.Commit()
}
