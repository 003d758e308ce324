package testutil

import (
	"path/filepath"
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/storage"
)

// OpenStore opens a storage.Store over a fresh SQLite file inside a
// temp directory, closed automatically when the test completes.
func OpenStore(t *testing.T) *storage.Store {
	t.Helper()
	dir := CreateTempDir(t)
	st, err := storage.Open(filepath.Join(dir, "cass.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// OpenIndex opens an ftsindex.Index over a fresh directory, closed
// automatically when the test completes.
func OpenIndex(t *testing.T) *ftsindex.Index {
	t.Helper()
	dir := CreateTempDir(t)
	ix, err := ftsindex.Open(dir, nil)
	if err != nil {
		t.Fatalf("open test index: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

// NormalizedConversation builds a minimal two-message normalized
// conversation for connector and storage tests.
func NormalizedConversation(agentSlug, externalID string, startMs int64) model.NormalizedConversation {
	started := startMs
	ended := startMs + 1000
	return model.NormalizedConversation{
		AgentSlug:  agentSlug,
		ExternalID: externalID,
		Title:      "Test conversation",
		Workspace:  "/tmp/project",
		SourcePath: "/tmp/project/" + externalID,
		StartedAt:  &started,
		EndedAt:    &ended,
		Messages: []model.NormalizedMessage{
			{Idx: 0, Role: model.RoleUser, Content: "fix the bug", CreatedAt: &started},
			{Idx: 1, Role: model.RoleAgent, Content: "patched the off-by-one", CreatedAt: &ended},
		},
	}
}
