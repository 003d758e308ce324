// Package ftsindex implements the primary full-text search backend: a
// second, independently rebuildable SQLite fts5 database distinct from
// the relational store's fts_messages mirror (internal/storage/mirror.go).
// It reuses the modernc.org/sqlite driver for a dedicated on-disk fts5
// table: an append-only virtual table plus a schema hash that forces a
// rebuild from storage on drift, rather than a separate inverted-index
// engine.
package ftsindex

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// schema is hashed to detect drift; a mismatch forces the indexer to
// rebuild the index from storage.
const schema = `CREATE VIRTUAL TABLE messages USING fts5(
	content,
	title,
	agent_slug,
	workspace,
	message_id UNINDEXED,
	conversation_id UNINDEXED,
	created_at UNINDEXED,
	role UNINDEXED
)`

// Index is the primary full-text index: one on-disk database under
// index/v1/index.db, with a single writer guarded by a mutex and a
// separate read connection refreshed after each commit.
type Index struct {
	dir string

	writeMu sync.Mutex
	writeDB *sql.DB
	readDB  *sql.DB

	tx *sql.Tx
}

// Open opens (creating if absent) the index database under dir,
// verifying the stored schema hash matches the current schema. On a
// mismatch it drops and recreates the table and, when storeDB is
// non-nil, refills it from the relational store's messages table
// rather than leaving the index empty until the next full reindex.
// storeDB may be nil, in which case a mismatch only resets the schema.
func Open(dir string, storeDB *sql.DB) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ftsindex: mkdir %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, "index.db")

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: open %s: %w", dbPath, err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := writeDB.Exec(p); err != nil {
			writeDB.Close()
			return nil, fmt.Errorf("ftsindex: pragma %q: %w", p, err)
		}
	}

	idx := &Index{dir: dir, writeDB: writeDB}
	if err := idx.ensureSchema(); err != nil {
		writeDB.Close()
		return nil, err
	}
	if !idx.SchemaOK() {
		if err := idx.rebuildSchema(storeDB); err != nil {
			writeDB.Close()
			return nil, err
		}
	}

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("ftsindex: open reader: %w", err)
	}
	idx.readDB = readDB
	return idx, nil
}

func (ix *Index) ensureSchema() error {
	var name string
	err := ix.writeDB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='messages'`).Scan(&name)
	if err == sql.ErrNoRows {
		if _, err := ix.writeDB.Exec(schema); err != nil {
			return fmt.Errorf("ftsindex: create schema: %w", err)
		}
		return ix.writeSchemaHash()
	}
	if err != nil {
		return err
	}
	return nil
}

func (ix *Index) writeSchemaHash() error {
	_, err := ix.writeDB.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return err
	}
	_, err = ix.writeDB.Exec(
		`INSERT INTO schema_meta(key, value) VALUES('schema_hash', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		SchemaHash(),
	)
	return err
}

// SchemaHash returns the hash of the current compiled-in schema.
func SchemaHash() string {
	sum := sha256.Sum256([]byte(schema))
	return hex.EncodeToString(sum[:])
}

// StoredSchemaHash returns the schema hash recorded on disk, or "" if
// this index predates schema hashing.
func (ix *Index) StoredSchemaHash() string {
	var hash string
	_ = ix.writeDB.QueryRow(`SELECT value FROM schema_meta WHERE key = 'schema_hash'`).Scan(&hash)
	return hash
}

// SchemaOK reports whether the on-disk schema hash matches the
// compiled-in schema.
func (ix *Index) SchemaOK() bool {
	stored := ix.StoredSchemaHash()
	return stored != "" && stored == SchemaHash()
}

// rebuildSchema drops the stale table, recreates it from the
// compiled-in schema, re-stamps the hash, and refills it from storeDB
// when one is given. It runs before the read connection is opened, so
// no reader can observe the table mid-rebuild.
func (ix *Index) rebuildSchema(storeDB *sql.DB) error {
	if _, err := ix.writeDB.Exec(`DROP TABLE IF EXISTS messages`); err != nil {
		return fmt.Errorf("ftsindex: drop stale schema: %w", err)
	}
	if _, err := ix.writeDB.Exec(schema); err != nil {
		return fmt.Errorf("ftsindex: recreate schema: %w", err)
	}
	if err := ix.writeSchemaHash(); err != nil {
		return err
	}
	if storeDB == nil {
		return nil
	}
	return ix.refillFromStore(storeDB)
}

// refillFromStore repopulates the index from the relational store's
// messages table, in id-ordered pages, mirroring the batched refill
// storage.Store.RebuildFTS uses for its own fts_messages mirror.
func (ix *Index) refillFromStore(storeDB *sql.DB) error {
	tx, err := ix.writeDB.Begin()
	if err != nil {
		return fmt.Errorf("ftsindex: begin rebuild: %w", err)
	}
	defer tx.Rollback()

	const batchSize = 500
	var lastID int64
	for {
		rows, err := storeDB.Query(`
			SELECT m.id, m.content, c.title, a.slug, COALESCE(w.path, ''), COALESCE(m.created_at, 0), m.conversation_id, m.role
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			JOIN agents a ON a.id = c.agent_id
			LEFT JOIN workspaces w ON w.id = c.workspace_id
			WHERE m.id > ?
			ORDER BY m.id ASC
			LIMIT ?`, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("ftsindex: rebuild select: %w", err)
		}

		n := 0
		for rows.Next() {
			var id, convID, createdAt int64
			var content, title, slug, workspace, role string
			if err := rows.Scan(&id, &content, &title, &slug, &workspace, &createdAt, &convID, &role); err != nil {
				rows.Close()
				return fmt.Errorf("ftsindex: rebuild scan: %w", err)
			}
			if _, err := tx.Exec(
				`INSERT INTO messages(rowid, content, title, agent_slug, workspace, message_id, conversation_id, created_at, role)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, content, title, slug, workspace, id, convID, createdAt, role,
			); err != nil {
				rows.Close()
				return fmt.Errorf("ftsindex: rebuild insert: %w", err)
			}
			lastID = id
			n++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		if n < batchSize {
			break
		}
	}
	return tx.Commit()
}

// Close closes both connections.
func (ix *Index) Close() error {
	if ix.readDB != nil {
		ix.readDB.Close()
	}
	return ix.writeDB.Close()
}

// Message is one record to add to the index.
type Message struct {
	MessageID      int64
	ConversationID int64
	AgentSlug      string
	Workspace      string
	Role           string
	CreatedAt      int64
	Title          string
	Content        string
}

// BeginBatch starts a write transaction on the single writer, held for
// the duration of one connector pass or one watch-triggered reindex.
func (ix *Index) BeginBatch() error {
	ix.writeMu.Lock()
	tx, err := ix.writeDB.Begin()
	if err != nil {
		ix.writeMu.Unlock()
		return err
	}
	ix.tx = tx
	return nil
}

// AddMessage appends one message to the open batch transaction.
func (ix *Index) AddMessage(m Message) error {
	if ix.tx == nil {
		return fmt.Errorf("ftsindex: AddMessage called outside a batch")
	}
	_, err := ix.tx.Exec(
		`INSERT INTO messages(rowid, content, title, agent_slug, workspace, message_id, conversation_id, created_at, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MessageID, m.Content, m.Title, m.AgentSlug, m.Workspace, m.MessageID, m.ConversationID, m.CreatedAt, m.Role,
	)
	return err
}

// Commit commits the open batch transaction and refreshes the shared
// read connection, so readers observe the update atomically.
func (ix *Index) Commit() error {
	defer ix.writeMu.Unlock()
	if ix.tx == nil {
		return fmt.Errorf("ftsindex: Commit called outside a batch")
	}
	err := ix.tx.Commit()
	ix.tx = nil
	return err
}

// Rollback aborts the open batch transaction.
func (ix *Index) Rollback() error {
	defer ix.writeMu.Unlock()
	if ix.tx == nil {
		return nil
	}
	err := ix.tx.Rollback()
	ix.tx = nil
	return err
}

// Truncate clears all rows, used by a full reindex before re-scanning
// every connector.
func (ix *Index) Truncate() error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()
	_, err := ix.writeDB.Exec(`DELETE FROM messages`)
	return err
}

// ReadDB exposes the read-only connection to the query engine.
func (ix *Index) ReadDB() *sql.DB { return ix.readDB }
