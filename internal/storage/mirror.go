package storage

import (
	"database/sql"
	"fmt"
)

// ensureMirrorTriggers installs INSERT/UPDATE/DELETE triggers that keep
// fts_messages in sync with messages, the same idempotent
// check-then-create pattern jalfarocode-engram/internal/store/store.go
// uses for observations_fts (query sqlite_master for the trigger name
// before creating it, since CREATE TRIGGER has no IF NOT EXISTS-safe
// equivalent across all statements used here).
func ensureMirrorTriggers(db *sql.DB) error {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='trigger' AND name='messages_fts_insert'`).Scan(&name)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	triggers := `
		CREATE TRIGGER messages_fts_insert AFTER INSERT ON messages BEGIN
			INSERT INTO fts_messages(rowid, content, title, agent_slug, workspace, message_id, conversation_id, created_at)
			SELECT new.id, new.content, c.title,
			       a.slug, COALESCE(w.path, ''), new.id, new.conversation_id, COALESCE(new.created_at, 0)
			FROM conversations c
			JOIN agents a ON a.id = c.agent_id
			LEFT JOIN workspaces w ON w.id = c.workspace_id
			WHERE c.id = new.conversation_id;
		END;

		CREATE TRIGGER messages_fts_delete AFTER DELETE ON messages BEGIN
			DELETE FROM fts_messages WHERE rowid = old.id;
		END;

		CREATE TRIGGER messages_fts_update AFTER UPDATE ON messages BEGIN
			DELETE FROM fts_messages WHERE rowid = old.id;
			INSERT INTO fts_messages(rowid, content, title, agent_slug, workspace, message_id, conversation_id, created_at)
			SELECT new.id, new.content, c.title,
			       a.slug, COALESCE(w.path, ''), new.id, new.conversation_id, COALESCE(new.created_at, 0)
			FROM conversations c
			JOIN agents a ON a.id = c.agent_id
			LEFT JOIN workspaces w ON w.id = c.workspace_id
			WHERE c.id = new.conversation_id;
		END;
	`
	_, err = db.Exec(triggers)
	return err
}

// RebuildFTS truncates and refills fts_messages from messages in
// batches within a single transaction (used after a migration changes
// the tokenizer or mirror columns).
func (s *Store) RebuildFTS() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fts_messages`); err != nil {
		return fmt.Errorf("storage: rebuild_fts truncate: %w", err)
	}

	const batchSize = 500
	var lastID int64
	for {
		rows, err := tx.Query(`
			SELECT m.id, m.content, COALESCE(c.title, ''), a.slug, COALESCE(w.path, ''), COALESCE(m.created_at, 0), m.conversation_id
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			JOIN agents a ON a.id = c.agent_id
			LEFT JOIN workspaces w ON w.id = c.workspace_id
			WHERE m.id > ?
			ORDER BY m.id ASC
			LIMIT ?`, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("storage: rebuild_fts select: %w", err)
		}

		type row struct {
			id                         int64
			content, title, slug, path string
			createdAt                  int64
			convID                     int64
		}
		var batch []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.content, &r.title, &r.slug, &r.path, &r.createdAt, &r.convID); err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		for _, r := range batch {
			if _, err := tx.Exec(
				`INSERT INTO fts_messages(rowid, content, title, agent_slug, workspace, message_id, conversation_id, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.id, r.content, r.title, r.slug, r.path, r.id, r.convID, r.createdAt,
			); err != nil {
				return fmt.Errorf("storage: rebuild_fts insert: %w", err)
			}
			lastID = r.id
		}
		if len(batch) < batchSize {
			break
		}
	}
	return tx.Commit()
}
