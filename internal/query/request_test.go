package query

import (
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
)

func TestNormalizedDefaultsPageSizeAndMode(t *testing.T) {
	r := Request{}.normalized()
	if r.PageSize != 20 {
		t.Fatalf("PageSize = %d, want 20", r.PageSize)
	}
	if r.MatchMode != ftsindex.Standard {
		t.Fatalf("MatchMode = %q, want %q", r.MatchMode, ftsindex.Standard)
	}
}

func TestNormalizedPreservesExplicitValues(t *testing.T) {
	r := Request{PageSize: 5, MatchMode: ftsindex.Prefix}.normalized()
	if r.PageSize != 5 {
		t.Fatalf("PageSize = %d, want 5", r.PageSize)
	}
	if r.MatchMode != ftsindex.Prefix {
		t.Fatalf("MatchMode = %q, want %q", r.MatchMode, ftsindex.Prefix)
	}
}
