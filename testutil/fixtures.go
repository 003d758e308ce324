package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// WriteCodexRollout writes a Codex-style JSONL rollout file with one
// user_message and one assistant_message event, following
// original_source/src/connectors/codex.rs's event shape.
func WriteCodexRollout(t *testing.T, dir, sessionID string, startMs int64) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("rollout-%s.jsonl", sessionID))
	lines := []map[string]any{
		{"timestamp": startMs, "type": "user_message", "session_id": sessionID, "cwd": dir, "text": "how do I fix this test"},
		{"timestamp": startMs + 1000, "type": "assistant_message", "session_id": sessionID, "cwd": dir, "text": "run go test ./..."},
	}
	writeJSONLFixture(t, path, lines)
	return path
}

// WriteClaudeCodeSession writes a Claude Code style JSONL session file.
func WriteClaudeCodeSession(t *testing.T, dir, sessionID string, startMs int64) string {
	t.Helper()
	path := filepath.Join(dir, sessionID+".jsonl")
	lines := []map[string]any{
		{"uuid": sessionID, "cwd": dir, "timestamp": startMs, "message": map[string]any{"role": "user", "content": "explain this stack trace"}},
		{"uuid": sessionID, "cwd": dir, "timestamp": startMs + 1000, "message": map[string]any{"role": "assistant", "content": "the panic is a nil map write"}},
	}
	writeJSONLFixture(t, path, lines)
	return path
}

// WriteGeminiChat writes a Gemini CLI style chat JSON document.
func WriteGeminiChat(t *testing.T, dir, chatID string, startMs int64) string {
	t.Helper()
	path := filepath.Join(dir, "chat-"+chatID+".json")
	doc := map[string]any{
		"id": chatID,
		"messages": []map[string]any{
			{"role": "user", "timestamp": startMs, "text": "summarize this diff"},
			{"role": "model", "timestamp": startMs + 1000, "text": "the diff renames a struct field"},
		},
	}
	WriteFixtureFile(t, path, mustMarshal(t, doc))
	return path
}

// WriteClineTask writes a Cline-style task directory with
// ui_messages.json, api_conversation_history.json, and
// task_metadata.json.
func WriteClineTask(t *testing.T, tasksDir, taskID string, startMs int64) string {
	t.Helper()
	taskDir := filepath.Join(tasksDir, taskID)

	ui := []map[string]any{
		{"ts": startMs, "type": "say", "text": "investigate the flaky test"},
	}
	api := []map[string]any{
		{"role": "user", "ts": startMs, "content": "investigate the flaky test"},
		{"role": "assistant", "ts": startMs + 1000, "content": "the test races on a shared map"},
	}
	meta := map[string]any{"title": "Flaky test investigation", "cwd": taskDir}

	WriteFixtureFile(t, filepath.Join(taskDir, "ui_messages.json"), mustMarshal(t, ui))
	WriteFixtureFile(t, filepath.Join(taskDir, "api_conversation_history.json"), mustMarshal(t, api))
	WriteFixtureFile(t, filepath.Join(taskDir, "task_metadata.json"), mustMarshal(t, meta))
	return taskDir
}

// WriteAmpThread writes an Amp-style thread JSON document.
func WriteAmpThread(t *testing.T, dir, threadID string, startMs int64) string {
	t.Helper()
	path := filepath.Join(dir, "thread-"+threadID+".json")
	doc := map[string]any{
		"id": threadID,
		"messages": []map[string]any{
			{"role": "user", "timestamp": startMs, "content": "add a retry to the http client"},
			{"role": "assistant", "timestamp": startMs + 1000, "content": "wrapped the client in a backoff retrier"},
		},
	}
	WriteFixtureFile(t, path, mustMarshal(t, doc))
	return path
}

// WriteAiderHistory writes an Aider-style .aider.chat.history.md
// transcript with alternating user/assistant turns.
func WriteAiderHistory(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, ".aider.chat.history.md")
	content := "# aider chat started\n\n> add error handling to the parser\n\nI added a wrapped error on the failing branch.\n"
	WriteFixtureFile(t, path, []byte(content))
	return path
}

// CreateOpenCodeDB creates a project-local .opencode/session.db SQLite
// fixture with one session and two messages, matching the schema
// internal/connector/opencode.go queries.
func CreateOpenCodeDB(t *testing.T, opencodeDir, sessionID string, startMs int64) string {
	t.Helper()
	if err := os.MkdirAll(opencodeDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dbPath := filepath.Join(opencodeDir, "session.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open opencode fixture db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE session (id TEXT PRIMARY KEY, title TEXT, created_at INTEGER, updated_at INTEGER)`,
		`CREATE TABLE message (id TEXT PRIMARY KEY, session_id TEXT, idx INTEGER, role TEXT, content TEXT, created_at INTEGER)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create opencode fixture schema: %v", err)
		}
	}

	if _, err := db.Exec(`INSERT INTO session(id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sessionID, "Refactor session", startMs, startMs+1000); err != nil {
		t.Fatalf("insert opencode session: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO message(id, session_id, idx, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID+"-0", sessionID, 0, "user", "rename the Store type", startMs); err != nil {
		t.Fatalf("insert opencode message: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO message(id, session_id, idx, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID+"-1", sessionID, 1, "assistant", "renamed Store to Repository across the package", startMs+1000); err != nil {
		t.Fatalf("insert opencode message: %v", err)
	}
	return dbPath
}

// WriteFixtureFile writes raw bytes to an absolute path, creating parent
// directories as needed. Unlike WriteFixture, path is not rooted under
// testdata/, since connector fixtures live under a synthesized home
// directory tree.
func WriteFixtureFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for fixture %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}

func writeJSONLFixture(t *testing.T, path string, lines []map[string]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for fixture %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			t.Fatalf("encode fixture line: %v", err)
		}
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}
