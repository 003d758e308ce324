package indexer_test

import (
	"context"
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/connector"
	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/testutil"
)

type fakeConnector struct {
	slug  string
	convs []model.NormalizedConversation
	calls int
}

func (f *fakeConnector) Slug() string                        { return f.slug }
func (f *fakeConnector) Detect() connector.DetectionResult    { return connector.DetectionResult{Detected: true} }
func (f *fakeConnector) OwnsPath(path string) bool            { return false }
func (f *fakeConnector) Scan(ctx connector.ScanContext) ([]model.NormalizedConversation, error) {
	f.calls++
	return f.convs, nil
}

func newFakeConv(agentSlug, externalID string, startMs int64) model.NormalizedConversation {
	ended := startMs + 1000
	return model.NormalizedConversation{
		AgentSlug: agentSlug, ExternalID: externalID, SourcePath: "/tmp/" + externalID,
		StartedAt: &startMs, EndedAt: &ended,
		Messages: []model.NormalizedMessage{
			{Idx: 0, Role: model.RoleUser, Content: "investigate the crash", CreatedAt: &startMs},
			{Idx: 1, Role: model.RoleAgent, Content: "added a nil check", CreatedAt: &ended},
		},
	}
}

func TestRunWritesConversationsAndReportsProgress(t *testing.T) {
	st := testutil.OpenStore(t)
	ix := testutil.OpenIndex(t)
	fc := &fakeConnector{slug: "codex", convs: []model.NormalizedConversation{newFakeConv("codex", "ext-1", 1700000000000)}}

	indexerUnderTest := indexer.New(st, ix, []connector.Connector{fc})
	var progresses []indexer.Progress
	for p := range indexerUnderTest.Run(context.Background(), indexer.Incremental) {
		progresses = append(progresses, p)
	}
	if len(progresses) != 1 {
		t.Fatalf("got %d progress events, want 1", len(progresses))
	}
	if progresses[0].Err != nil {
		t.Fatalf("progress error = %v", progresses[0].Err)
	}

	conv, messages, err := st.GetConversation("codex", "ext-1")
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if conv == nil {
		t.Fatal("GetConversation() = nil, want the written conversation")
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
}

func TestRunFullModeTruncatesIndexFirst(t *testing.T) {
	st := testutil.OpenStore(t)
	ix := testutil.OpenIndex(t)
	fc := &fakeConnector{slug: "codex", convs: []model.NormalizedConversation{newFakeConv("codex", "ext-1", 1700000000000)}}

	indexerUnderTest := indexer.New(st, ix, []connector.Connector{fc})
	for range indexerUnderTest.Run(context.Background(), indexer.Incremental) {
	}

	// A second, Full pass should not error even though the index was
	// already populated by the first pass.
	for p := range indexerUnderTest.Run(context.Background(), indexer.Full) {
		if p.Err != nil {
			t.Fatalf("progress error on full pass = %v", p.Err)
		}
	}
}

func TestRunNoConnectorsClosesImmediately(t *testing.T) {
	st := testutil.OpenStore(t)
	ix := testutil.OpenIndex(t)
	indexerUnderTest := indexer.New(st, ix, nil)

	count := 0
	for range indexerUnderTest.Run(context.Background(), indexer.Incremental) {
		count++
	}
	if count != 0 {
		t.Fatalf("got %d progress events with no connectors, want 0", count)
	}
}

func TestReindexOneReturnsWrittenCount(t *testing.T) {
	st := testutil.OpenStore(t)
	ix := testutil.OpenIndex(t)
	fc := &fakeConnector{slug: "codex", convs: []model.NormalizedConversation{
		newFakeConv("codex", "ext-1", 1700000000000),
		newFakeConv("codex", "ext-2", 1700000005000),
	}}
	indexerUnderTest := indexer.New(st, ix, []connector.Connector{fc})

	written, err := indexerUnderTest.ReindexOne(context.Background(), fc, nil)
	if err != nil {
		t.Fatalf("ReindexOne() error = %v", err)
	}
	if written != 2 {
		t.Fatalf("ReindexOne() = %d, want 2", written)
	}
}
