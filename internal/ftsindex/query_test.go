package ftsindex

import "testing"

func TestBuildMatchExprStandardQuotesEachTerm(t *testing.T) {
	got := BuildMatchExpr("fix flaky test", Standard)
	want := `"fix" "flaky" "test"`
	if got != want {
		t.Fatalf("BuildMatchExpr(standard) = %q, want %q", got, want)
	}
}

func TestBuildMatchExprPrefixAppendsWildcard(t *testing.T) {
	got := BuildMatchExpr("rena", Prefix)
	want := `"rena"*`
	if got != want {
		t.Fatalf("BuildMatchExpr(prefix) = %q, want %q", got, want)
	}
}

func TestBuildMatchExprBooleanPreservesOperators(t *testing.T) {
	got := BuildMatchExpr("codex AND (bug OR regression)", Boolean)
	want := `"codex" AND ("bug" OR "regression")`
	if got != want {
		t.Fatalf("BuildMatchExpr(boolean) = %q, want %q", got, want)
	}
}

func TestBuildMatchExprEmptyQueryIsEmpty(t *testing.T) {
	if got := BuildMatchExpr("   ", Standard); got != "" {
		t.Fatalf("BuildMatchExpr(blank) = %q, want empty", got)
	}
}

func TestBuildMatchExprStandardStripsQuotesBeforeRequoting(t *testing.T) {
	got := BuildMatchExpr(`"already quoted"`, Standard)
	want := `"already quoted"`
	if got != want {
		t.Fatalf("BuildMatchExpr(pre-quoted) = %q, want %q", got, want)
	}
}

func TestSearchFiltersByAgentAndWorkspace(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	msgs := []Message{
		{MessageID: 1, ConversationID: 1, AgentSlug: "codex", Workspace: "/tmp/a", CreatedAt: 1, Content: "refactor the parser"},
		{MessageID: 2, ConversationID: 2, AgentSlug: "claude_code", Workspace: "/tmp/b", CreatedAt: 2, Content: "refactor the lexer"},
	}
	for _, m := range msgs {
		if err := ix.AddMessage(m); err != nil {
			t.Fatalf("AddMessage() error = %v", err)
		}
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	hits, err := ix.Search("refactor", Standard, QueryFilters{Agents: []string{"codex"}}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].AgentSlug != "codex" {
		t.Fatalf("Search(agent filter) = %+v, want one codex hit", hits)
	}

	hits, err = ix.Search("refactor", Standard, QueryFilters{Workspaces: []string{"/tmp/b"}}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Workspace != "/tmp/b" {
		t.Fatalf("Search(workspace filter) = %+v, want one /tmp/b hit", hits)
	}
}

func TestSearchCreatedRangeFilters(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.BeginBatch(); err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	for _, ts := range []int64{100, 200, 300} {
		if err := ix.AddMessage(Message{MessageID: ts, ConversationID: 1, CreatedAt: ts, Content: "checkpoint build"}); err != nil {
			t.Fatalf("AddMessage() error = %v", err)
		}
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	from, to := int64(150), int64(250)
	hits, err := ix.Search("checkpoint", Standard, QueryFilters{CreatedFrom: &from, CreatedTo: &to}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].MessageID != 200 {
		t.Fatalf("Search(range filter) = %+v, want one hit with MessageID 200", hits)
	}
}
