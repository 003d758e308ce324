package connector

import (
	"path/filepath"
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
	"github.com/pathshala-dev/coding-agent-session-search/testutil"
)

func TestClaudeCodeScanUsesUUIDAsExternalID(t *testing.T) {
	home := testutil.CreateTempDir(t)
	projectsDir := filepath.Join(home, ".claude", "projects", "myproj")
	testutil.WriteClaudeCodeSession(t, projectsDir, "sess-uuid-1", 1700000000000)

	r := pathresolver.NewForTest(home, nil)
	c := NewClaudeCode(r)

	convs, err := c.Scan(ScanContext{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("Scan() returned %d conversations, want 1", len(convs))
	}
	conv := convs[0]
	if conv.ExternalID != "sess-uuid-1" {
		t.Fatalf("ExternalID = %q, want sess-uuid-1", conv.ExternalID)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Content != "explain this stack trace" {
		t.Fatalf("Messages[0].Content = %q", conv.Messages[0].Content)
	}
}

func TestClaudeRoleMapping(t *testing.T) {
	cases := map[string]struct {
		role string
		ok   bool
	}{
		"user":      {"user", true},
		"assistant": {"agent", true},
		"tool":      {"tool", true},
		"narrator":  {"tool", true},
		"":          {"", false},
	}
	for input, want := range cases {
		role, ok := claudeRole(input)
		if ok != want.ok || string(role) != want.role {
			t.Errorf("claudeRole(%q) = (%q, %v), want (%q, %v)", input, role, ok, want.role, want.ok)
		}
	}
}
