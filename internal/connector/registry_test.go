package connector

import (
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

func TestBuildFiltersAndOrdersBySlug(t *testing.T) {
	r := pathresolver.NewForTest("/home/dev", nil)
	got := Build(r, []string{"amp", "codex"}, "/home/dev/project")

	if len(got) != 2 {
		t.Fatalf("Build() returned %d connectors, want 2", len(got))
	}
	// Build must preserve the registry's stable order (codex before amp),
	// not the order slugs were requested in.
	if got[0].Slug() != "codex" || got[1].Slug() != "amp" {
		t.Fatalf("Build() order = [%q %q], want [codex amp]", got[0].Slug(), got[1].Slug())
	}
}

func TestBuildUnknownSlugIsIgnored(t *testing.T) {
	r := pathresolver.NewForTest("/home/dev", nil)
	got := Build(r, []string{"codex", "no_such_agent"}, "/home/dev/project")
	if len(got) != 1 {
		t.Fatalf("Build() returned %d connectors, want 1", len(got))
	}
}

func TestBuildEmptySlugsReturnsEmpty(t *testing.T) {
	r := pathresolver.NewForTest("/home/dev", nil)
	got := Build(r, nil, "/home/dev/project")
	if len(got) != 0 {
		t.Fatalf("Build(nil slugs) returned %d connectors, want 0", len(got))
	}
}
