package connector

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

// OpenCode reads project-local .opencode/*.db files (plus a configured
// global database) with modernc.org/sqlite, through a read-only,
// query-only connection; it never writes to the agent's own database.
type OpenCode struct {
	resolver   *pathresolver.Resolver
	projectDir string
}

func NewOpenCode(r *pathresolver.Resolver, projectDir string) *OpenCode {
	return &OpenCode{resolver: r, projectDir: projectDir}
}

func (o *OpenCode) Slug() string { return "opencode" }

func (o *OpenCode) Detect() DetectionResult {
	roots := o.resolver.OpenCode(o.projectDir)
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (o *OpenCode) OwnsPath(path string) bool {
	return strings.HasSuffix(path, ".db") && strings.Contains(path, ".opencode")
}

func (o *OpenCode) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := o.resolver.OpenCode(o.projectDir)
	var out []model.NormalizedConversation

	for _, dir := range roots.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if ctx.Cancelled() {
				return out, fmt.Errorf("opencode scan cancelled")
			}
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
				continue
			}
			dbPath := filepath.Join(dir, entry.Name())
			convs, err := o.scanDB(dbPath, dir, ctx.Since)
			if err != nil {
				logging.Warn("opencode: %s: %v", dbPath, err)
				continue
			}
			out = append(out, convs...)
		}
	}
	return out, nil
}

func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=0", path)
	return sql.Open("sqlite", dsn)
}

func (o *OpenCode) scanDB(dbPath, projectDir string, since *int64) ([]model.NormalizedConversation, error) {
	db, err := openReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	sinceVal := int64(0)
	if since != nil {
		sinceVal = *since
	}

	rows, err := db.Query(`SELECT id, title, updated_at, created_at FROM session WHERE updated_at > ? ORDER BY updated_at ASC`, sinceVal)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []model.NormalizedConversation
	for rows.Next() {
		var id, title string
		var updatedAt, createdAt int64
		if err := rows.Scan(&id, &title, &updatedAt, &createdAt); err != nil {
			logging.Warn("opencode: scan row: %v", err)
			continue
		}
		msgs, err := o.loadMessages(db, id)
		if err != nil {
			logging.Warn("opencode: load messages for %s: %v", id, err)
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		conv := model.NormalizedConversation{
			AgentSlug:   o.Slug(),
			ExternalID:  id,
			Title:       title,
			Workspace:   filepath.Dir(projectDir),
			SourcePath:  dbPath,
			StartedAt:   &createdAt,
			EndedAt:     &updatedAt,
			SourceMtime: &updatedAt,
			Messages:    msgs,
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (o *OpenCode) loadMessages(db *sql.DB, sessionID string) ([]model.NormalizedMessage, error) {
	rows, err := db.Query(`SELECT idx, role, content, created_at FROM message WHERE session_id = ? ORDER BY idx ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.NormalizedMessage
	for rows.Next() {
		var idx int
		var roleStr, contentRaw string
		var createdAt int64
		if err := rows.Scan(&idx, &roleStr, &contentRaw, &createdAt); err != nil {
			continue
		}
		role, ok := openCodeRole(roleStr)
		if !ok {
			continue
		}
		content := contentRaw
		if json.Valid([]byte(contentRaw)) {
			if extracted := ExtractText(json.RawMessage(contentRaw)); extracted != "" {
				content = extracted
			}
		}
		if content == "" {
			continue
		}
		msgs = append(msgs, model.NormalizedMessage{
			Idx:       idx,
			Role:      role,
			Content:   content,
			CreatedAt: &createdAt,
		})
	}
	return msgs, rows.Err()
}

func openCodeRole(role string) (model.Role, bool) {
	switch role {
	case "user":
		return model.RoleUser, true
	case "assistant":
		return model.RoleAgent, true
	case "tool":
		return model.RoleTool, true
	case "system":
		return model.RoleSystem, true
	default:
		return model.RoleTool, true
	}
}
