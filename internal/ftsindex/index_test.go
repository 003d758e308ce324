package ftsindex

import "testing"

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	dir := t.TempDir()
	ix, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestOpenWritesSchemaHash(t *testing.T) {
	ix := openTestIndex(t)
	if !ix.SchemaOK() {
		t.Fatal("SchemaOK() = false immediately after Open()")
	}
	if ix.StoredSchemaHash() != SchemaHash() {
		t.Fatalf("StoredSchemaHash() = %q, want %q", ix.StoredSchemaHash(), SchemaHash())
	}
}

func TestSchemaOKFalseOnHashMismatch(t *testing.T) {
	ix := openTestIndex(t)
	if _, err := ix.writeDB.Exec(
		`INSERT INTO schema_meta(key, value) VALUES('schema_hash', 'stale') ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	); err != nil {
		t.Fatalf("corrupt schema hash: %v", err)
	}
	if ix.SchemaOK() {
		t.Fatal("SchemaOK() = true after corrupting the stored hash")
	}
}

func TestBeginBatchAddMessageCommitIsSearchable(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	if err := ix.AddMessage(Message{
		MessageID: 1, ConversationID: 1, AgentSlug: "codex", Workspace: "/tmp/project",
		Role: "user", CreatedAt: 1700000000000, Title: "debug panic", Content: "why does this panic on nil input",
	}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	hits, err := ix.Search("panic", Standard, QueryFilters{}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if hits[0].MessageID != 1 {
		t.Fatalf("hits[0].MessageID = %d, want 1", hits[0].MessageID)
	}
}

func TestRollbackDiscardsBatch(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	if err := ix.AddMessage(Message{MessageID: 2, ConversationID: 1, Content: "should not persist"}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if err := ix.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	hits, err := ix.Search("persist", Standard, QueryFilters{}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Search() returned %d hits after rollback, want 0", len(hits))
	}
}

func TestAddMessageOutsideBatchErrors(t *testing.T) {
	ix := openTestIndex(t)
	if err := ix.AddMessage(Message{MessageID: 3}); err == nil {
		t.Fatal("AddMessage() outside a batch returned nil error, want an error")
	}
}

func TestTruncateClearsAllRows(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	if err := ix.AddMessage(Message{MessageID: 4, ConversationID: 1, Content: "ephemeral content"}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := ix.Truncate(); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	hits, err := ix.Search("ephemeral", Standard, QueryFilters{}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Search() returned %d hits after Truncate(), want 0", len(hits))
	}
}
