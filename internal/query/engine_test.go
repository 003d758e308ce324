package query

import (
	"strings"
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/testutil"
)

func TestSearchUsesPrimaryIndexWhenSchemaOK(t *testing.T) {
	st := testutil.OpenStore(t)
	ix := testutil.OpenIndex(t)

	nc := testutil.NormalizedConversation("codex", "ext-1", 1700000000000)
	nc.Messages[0].Content = "investigate the flaky retry test"
	res, err := st.InsertConversationTree(nc)
	if err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}
	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	if err := ix.AddMessage(ftsindex.Message{
		MessageID:      res.MessageIDs[0],
		ConversationID: res.ConversationID,
		AgentSlug:      nc.AgentSlug,
		Workspace:      nc.Workspace,
		Role:           string(nc.Messages[0].Role),
		CreatedAt:      *nc.Messages[0].CreatedAt,
		Title:          nc.Title,
		Content:        nc.Messages[0].Content,
	}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	engine := NewEngine(ix, st)
	resp, err := engine.Search(Request{Query: "flaky retry"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Fallback {
		t.Fatal("Search() used the mirror fallback, want the primary index")
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(resp.Hits))
	}
}

func TestSearchFallsBackWhenIndexUnavailable(t *testing.T) {
	st := testutil.OpenStore(t)

	nc := testutil.NormalizedConversation("codex", "ext-1", 1700000000000)
	nc.Messages[0].Content = "investigate the flaky retry test"
	if _, err := st.InsertConversationTree(nc); err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}

	engine := NewEngine(nil, st)
	resp, err := engine.Search(Request{Query: "flaky retry"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !resp.Fallback {
		t.Fatal("Search() with nil index did not report Fallback = true")
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(resp.Hits))
	}
}

func TestSearchGroupsHitsByConversation(t *testing.T) {
	st := testutil.OpenStore(t)

	startA := int64(1700000000000)
	startB := int64(1700000005000)
	ncA := model.NormalizedConversation{
		AgentSlug: "codex", ExternalID: "conv-a", SourcePath: "/tmp/a", StartedAt: &startA, EndedAt: &startA,
		Messages: []model.NormalizedMessage{
			{Idx: 0, Role: model.RoleUser, Content: "fix the retry loop", CreatedAt: &startA},
			{Idx: 1, Role: model.RoleAgent, Content: "the retry loop now backs off", CreatedAt: &startA},
		},
	}
	ncB := model.NormalizedConversation{
		AgentSlug: "codex", ExternalID: "conv-b", SourcePath: "/tmp/b", StartedAt: &startB, EndedAt: &startB,
		Messages: []model.NormalizedMessage{
			{Idx: 0, Role: model.RoleUser, Content: "unrelated retry discussion", CreatedAt: &startB},
		},
	}
	if _, err := st.InsertConversationTree(ncA); err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}
	if _, err := st.InsertConversationTree(ncB); err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}

	engine := NewEngine(nil, st)
	resp, err := engine.Search(Request{Query: "retry", PageSize: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2 conversations despite conv-a having 2 matching messages", resp.Total)
	}
}

func TestSearchCachesSecondIdenticalRequest(t *testing.T) {
	st := testutil.OpenStore(t)
	nc := testutil.NormalizedConversation("codex", "ext-1", 1700000000000)
	nc.Messages[0].Content = "cached search result"
	if _, err := st.InsertConversationTree(nc); err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}

	engine := NewEngine(nil, st)
	req := Request{Query: "cached"}
	resp1, err := engine.Search(req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp1.FromCache {
		t.Fatal("first Search() reported FromCache = true")
	}
	resp2, err := engine.Search(req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !resp2.FromCache {
		t.Fatal("second identical Search() did not report FromCache = true")
	}
}

func TestNotifyInvalidatesCache(t *testing.T) {
	st := testutil.OpenStore(t)
	nc := testutil.NormalizedConversation("codex", "ext-1", 1700000000000)
	nc.Messages[0].Content = "result before invalidation"
	if _, err := st.InsertConversationTree(nc); err != nil {
		t.Fatalf("InsertConversationTree() error = %v", err)
	}

	engine := NewEngine(nil, st)
	req := Request{Query: "invalidation"}
	if _, err := engine.Search(req); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	engine.Notify()
	resp, err := engine.Search(req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.FromCache {
		t.Fatal("Search() after Notify() still reported FromCache = true")
	}
}

func TestBuildSnippetHighlightsQueryTerms(t *testing.T) {
	snippet := buildSnippet("the retry loop now backs off exponentially", "retry loop")
	if !strings.Contains(snippet, "**retry**") || !strings.Contains(snippet, "**loop**") {
		t.Fatalf("buildSnippet() = %q, want bold-wrapped query terms", snippet)
	}
}

func TestWildcardExpandCapsAtFiveTerms(t *testing.T) {
	expr, ok := wildcardExpand("one two three four five six seven")
	if !ok {
		t.Fatal("wildcardExpand() ok = false, want true")
	}
	terms := strings.Split(expr, " OR ")
	if len(terms) != 5 {
		t.Fatalf("wildcardExpand() produced %d terms, want 5 (capped)", len(terms))
	}
}
