package watcher

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pathshala-dev/coding-agent-session-search/internal/connector"
	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
)

type fakeConnector struct {
	slug string
}

func (f *fakeConnector) Slug() string                     { return f.slug }
func (f *fakeConnector) Detect() connector.DetectionResult { return connector.DetectionResult{} }
func (f *fakeConnector) OwnsPath(path string) bool {
	return filepath.Base(path) == f.slug+".jsonl"
}
func (f *fakeConnector) Scan(ctx connector.ScanContext) ([]model.NormalizedConversation, error) {
	return nil, nil
}

func TestFindOwnerRoutesByOwnsPath(t *testing.T) {
	dir := t.TempDir()
	codex := &fakeConnector{slug: "codex"}
	cline := &fakeConnector{slug: "cline"}

	w, err := New(nil, []connector.Connector{codex, cline}, filepath.Join(dir, "watch_state.json"), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if owner := w.findOwner("/home/dev/.codex/sessions/codex.jsonl"); owner != codex {
		t.Fatalf("findOwner(codex path) = %v, want codex connector", owner)
	}
	if owner := w.findOwner("/home/dev/cline.jsonl"); owner != cline {
		t.Fatalf("findOwner(cline path) = %v, want cline connector", owner)
	}
	if owner := w.findOwner("/home/dev/unrelated.txt"); owner != nil {
		t.Fatalf("findOwner(unrelated path) = %v, want nil", owner)
	}
}

func TestNewLoadsExistingState(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "watch_state.json")

	seed := &State{Cursors: map[string]int64{"codex": 123}}
	if err := seed.Save(statePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	w, err := New(&indexer.Indexer{}, nil, statePath, time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := w.state.Since("codex"); got == nil || *got != 123 {
		t.Fatalf("w.state.Since(codex) = %v, want 123", got)
	}
}
