package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
)

// Store wraps the authoritative relational database, one exported
// method per operation, following jalfarocode-engram/internal/store/
// store.go's Store-wrapping-*sql.DB shape.
type Store struct {
	db *sql.DB
}

// Open opens path, applies pragmas, runs pending migrations, and
// ensures the fts_messages mirror triggers exist.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureMirrorTriggers(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ensure mirror triggers: %w", err)
	}
	return &Store{db: db}, nil
}

// openDB opens path through openSQLiteDB, which applies the pragmas.
func openDB(path string) (*sql.DB, error) {
	return openSQLiteDB(path)
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying connection for packages that need direct
// read access (the query engine's relational FTS fallback).
func (s *Store) DB() *sql.DB { return s.db }

// EnsureAgent is an idempotent upsert: ensure_agent(slug, name, kind) →
// AgentId.
func (s *Store) EnsureAgent(slug, displayName, kind string) (int64, error) {
	_, err := s.db.Exec(
		`INSERT INTO agents(slug, display_name, kind) VALUES (?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET display_name = excluded.display_name, kind = excluded.kind`,
		slug, displayName, kind,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: ensure_agent %s: %w", slug, err)
	}
	var id int64
	if err := s.db.QueryRow(`SELECT id FROM agents WHERE slug = ?`, slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: ensure_agent %s: reselect: %w", slug, err)
	}
	return id, nil
}

// EnsureWorkspace is an idempotent upsert: ensure_workspace(path,
// display) → WorkspaceId. An empty path is not persisted; callers pass
// 0 and treat it as "no workspace".
func (s *Store) EnsureWorkspace(path, displayName string) (int64, error) {
	path = CanonicalWorkspacePath(path)
	if path == "" {
		return 0, nil
	}
	_, err := s.db.Exec(
		`INSERT INTO workspaces(path, display_name) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET display_name = COALESCE(NULLIF(excluded.display_name, ''), workspaces.display_name)`,
		path, displayName,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: ensure_workspace %s: %w", path, err)
	}
	var id int64
	if err := s.db.QueryRow(`SELECT id FROM workspaces WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: ensure_workspace %s: reselect: %w", path, err)
	}
	return id, nil
}

// InsertResult reports what insert_conversation_tree produced.
type InsertResult struct {
	ConversationID int64
	MessageIDs     []int64
}

// InsertConversationTree implements insert_conversation_tree(nc) →
// (ConversationId, MessageIds): one transaction; a conflict on
// (agent, external_id) updates title/metadata/end-time and appends only
// messages whose idx is greater than the conversation's current max
// (append-only, deduplicated within a conversation); snippets attach to
// newly inserted messages only. Any error rolls the whole transaction
// back.
func (s *Store) InsertConversationTree(nc model.NormalizedConversation) (InsertResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return InsertResult{}, err
	}
	defer tx.Rollback()

	agentID, err := s.ensureAgentTx(tx, nc.AgentSlug)
	if err != nil {
		return InsertResult{}, err
	}
	var workspaceID sql.NullInt64
	if nc.Workspace != "" {
		wid, err := s.ensureWorkspaceTx(tx, nc.Workspace)
		if err != nil {
			return InsertResult{}, err
		}
		workspaceID = sql.NullInt64{Int64: wid, Valid: true}
	}

	var sourceMtime int64
	if nc.SourceMtime != nil {
		sourceMtime = *nc.SourceMtime
	} else if nc.EndedAt != nil {
		sourceMtime = *nc.EndedAt
	}

	_, err = tx.Exec(
		`INSERT INTO conversations(agent_id, external_id, title, workspace_id, source_path, source_mtime, started_at, ended_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(agent_id, external_id) DO UPDATE SET
			title = excluded.title,
			workspace_id = COALESCE(excluded.workspace_id, conversations.workspace_id),
			source_mtime = MAX(conversations.source_mtime, excluded.source_mtime),
			ended_at = excluded.ended_at,
			metadata = excluded.metadata`,
		agentID, nc.ExternalID, nullString(nc.Title), workspaceID, nc.SourcePath, sourceMtime,
		nullInt64(nc.StartedAt), nullInt64(nc.EndedAt), nullRaw(nc.Metadata),
	)
	if err != nil {
		return InsertResult{}, fmt.Errorf("storage: insert_conversation_tree upsert: %w", err)
	}

	// LastInsertId is stale when the upsert took its UPDATE branch, so the
	// id is always reselected by (agent_id, external_id).
	var conversationID int64
	if err := tx.QueryRow(
		`SELECT id FROM conversations WHERE agent_id = ? AND external_id = ?`,
		agentID, nc.ExternalID,
	).Scan(&conversationID); err != nil {
		return InsertResult{}, fmt.Errorf("storage: insert_conversation_tree reselect: %w", err)
	}

	var currentMax sql.NullInt64
	if err := tx.QueryRow(
		`SELECT MAX(idx) FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&currentMax); err != nil {
		return InsertResult{}, err
	}
	floor := -1
	if currentMax.Valid {
		floor = int(currentMax.Int64)
	}

	var messageIDs []int64
	for i := range nc.Messages {
		msg := nc.Messages[i]
		if msg.Idx <= floor {
			continue
		}
		if !msg.Role.Valid() {
			msg.Role = model.RoleTool
		}
		res, err := tx.Exec(
			`INSERT INTO messages(conversation_id, idx, role, author, created_at, content)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			conversationID, msg.Idx, string(msg.Role), nullString(msg.Author), nullInt64(msg.CreatedAt), msg.Content,
		)
		if err != nil {
			return InsertResult{}, fmt.Errorf("storage: insert message idx=%d: %w", msg.Idx, err)
		}
		msgID, err := res.LastInsertId()
		if err != nil {
			return InsertResult{}, err
		}
		messageIDs = append(messageIDs, msgID)

		for _, sn := range msg.Snippets {
			if _, err := tx.Exec(
				`INSERT INTO snippets(message_id, file_path, start_line, end_line, language, text)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				msgID, sn.FilePath, sn.StartLine, sn.EndLine, nullString(sn.Language), sn.Text,
			); err != nil {
				return InsertResult{}, fmt.Errorf("storage: insert snippet: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ConversationID: conversationID, MessageIDs: messageIDs}, nil
}

// MaxSourceMtime implements max_source_mtime(agent_slug) → Option<i64>,
// used by the watch cursor and the incremental indexer as the "since"
// cutoff compared against each artifact's filesystem mtime
// (connector.FileModifiedSince).
func (s *Store) MaxSourceMtime(agentSlug string) (*int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(c.source_mtime) FROM conversations c
		 JOIN agents a ON a.id = c.agent_id
		 WHERE a.slug = ?`, agentSlug,
	).Scan(&max)
	if err != nil {
		return nil, err
	}
	if !max.Valid || max.Int64 == 0 {
		return nil, nil
	}
	v := max.Int64
	return &v, nil
}

// GetConversation implements get_conversation(agent_slug, external_id),
// used by cmd/inspect.go to print one normalized conversation as JSON.
func (s *Store) GetConversation(agentSlug, externalID string) (*model.Conversation, []model.Message, error) {
	var conv model.Conversation
	var title, workspacePath sql.NullString
	var startedAt, endedAt sql.NullInt64
	err := s.db.QueryRow(
		`SELECT c.id, a.slug, c.external_id, c.title, w.path, c.source_path, c.started_at, c.ended_at
		 FROM conversations c
		 JOIN agents a ON a.id = c.agent_id
		 LEFT JOIN workspaces w ON w.id = c.workspace_id
		 WHERE a.slug = ? AND c.external_id = ?`,
		agentSlug, externalID,
	).Scan(&conv.ID, &conv.AgentSlug, &conv.ExternalID, &title, &workspacePath, &conv.SourcePath, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storage: get conversation: %w", err)
	}
	if title.Valid {
		conv.Title = title.String
	}
	if workspacePath.Valid {
		conv.Workspace = workspacePath.String
	}
	if startedAt.Valid {
		v := startedAt.Int64
		conv.StartedAt = &v
	}
	if endedAt.Valid {
		v := endedAt.Int64
		conv.EndedAt = &v
	}

	rows, err := s.db.Query(
		`SELECT id, conversation_id, idx, role, author, created_at, content
		 FROM messages WHERE conversation_id = ? ORDER BY idx ASC`, conv.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var author sql.NullString
		var createdAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Idx, &m.Role, &author, &createdAt, &m.Content); err != nil {
			return nil, nil, fmt.Errorf("storage: scan message: %w", err)
		}
		if author.Valid {
			m.Author = author.String
		}
		if createdAt.Valid {
			v := createdAt.Int64
			m.CreatedAt = &v
		}
		messages = append(messages, m)
	}
	return &conv, messages, rows.Err()
}

func (s *Store) ensureAgentTx(tx *sql.Tx, slug string) (int64, error) {
	displayName, kind := agentDefaults(slug)
	if _, err := tx.Exec(
		`INSERT INTO agents(slug, display_name, kind) VALUES (?, ?, ?)
		 ON CONFLICT(slug) DO NOTHING`,
		slug, displayName, kind,
	); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM agents WHERE slug = ?`, slug).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ensureWorkspaceTx(tx *sql.Tx, path string) (int64, error) {
	path = CanonicalWorkspacePath(path)
	if _, err := tx.Exec(
		`INSERT INTO workspaces(path, display_name) VALUES (?, ?)
		 ON CONFLICT(path) DO NOTHING`,
		path, filepath.Base(path),
	); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM workspaces WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// agentDefaults supplies the display name and kind for the six core
// agent slugs plus Aider; an unrecognized slug still gets a row using
// the slug itself as its display name, since adding an agent is purely
// additive.
func agentDefaults(slug string) (displayName, kind string) {
	switch slug {
	case "codex":
		return "Codex", "cli"
	case "claude_code":
		return "Claude Code", "cli"
	case "gemini_cli":
		return "Gemini CLI", "cli"
	case "cline":
		return "Cline", "editor-extension"
	case "opencode":
		return "OpenCode", "cli"
	case "amp":
		return "Amp", "editor-extension"
	case "aider":
		return "Aider", "cli"
	default:
		return slug, "cli"
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullRaw(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
