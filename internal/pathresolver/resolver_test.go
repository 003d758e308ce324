package pathresolver

import (
	"path/filepath"
	"testing"
)

func TestCodexDefaultHome(t *testing.T) {
	r := NewForTest("/home/dev", nil)
	roots := r.Codex()
	want := filepath.Join("/home/dev", ".codex", "sessions")
	if len(roots.Dirs) != 1 || roots.Dirs[0] != want {
		t.Fatalf("Codex() dirs = %v, want [%s]", roots.Dirs, want)
	}
}

func TestCodexHomeOverride(t *testing.T) {
	env := map[string]string{"CODEX_HOME": "/custom/codex"}
	r := NewForTest("/home/dev", func(k string) string { return env[k] })
	roots := r.Codex()
	want := filepath.Join("/custom/codex", "sessions")
	if roots.Dirs[0] != want {
		t.Fatalf("Codex() with override = %v, want [%s]", roots.Dirs, want)
	}
}

func TestClaudeCode(t *testing.T) {
	r := NewForTest("/home/dev", nil)
	roots := r.ClaudeCode()
	want := filepath.Join("/home/dev", ".claude", "projects")
	if roots.Dirs[0] != want {
		t.Fatalf("ClaudeCode() = %v, want [%s]", roots.Dirs, want)
	}
}

func TestClineTwoCandidates(t *testing.T) {
	r := NewForTest("/home/dev", nil)
	roots := r.Cline()
	if len(roots.Dirs) != 2 {
		t.Fatalf("Cline() dirs = %v, want 2 candidates", roots.Dirs)
	}
}

func TestRootsExistsFalseForMissing(t *testing.T) {
	roots := Roots{Dirs: []string{"/definitely/does/not/exist/xyz"}}
	if roots.Exists() {
		t.Fatal("Exists() = true for a nonexistent directory")
	}
}
