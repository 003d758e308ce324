// Package pathresolver computes each agent's artifact roots from
// environment variables and OS-specific data-directory conventions. No
// I/O beyond existence checks; no mutation.
package pathresolver

import (
	"os"
	"path/filepath"
	"runtime"
)

// Roots is the set of directories to walk and files to open for one
// agent's artifacts.
type Roots struct {
	Dirs  []string
	Files []string
}

// Exists reports whether any configured root is present on disk.
func (r Roots) Exists() bool {
	for _, d := range r.Dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return true
		}
	}
	for _, f := range r.Files {
		if _, err := os.Stat(f); err == nil {
			return true
		}
	}
	return false
}

// Resolver resolves per-agent roots.
type Resolver struct {
	home string
	env  func(string) string
}

// New creates a Resolver using the real environment and home directory.
func New() (*Resolver, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Resolver{home: home, env: os.Getenv}, nil
}

// NewForTest creates a Resolver with an injected home directory and
// environment lookup, for connector and resolver tests.
func NewForTest(home string, env func(string) string) *Resolver {
	if env == nil {
		env = func(string) string { return "" }
	}
	return &Resolver{home: home, env: env}
}

// Codex returns $CODEX_HOME/sessions (default $HOME/.codex/sessions).
func (r *Resolver) Codex() Roots {
	codexHome := r.env("CODEX_HOME")
	if codexHome == "" {
		codexHome = filepath.Join(r.home, ".codex")
	}
	return Roots{Dirs: []string{filepath.Join(codexHome, "sessions")}}
}

// ClaudeCode returns ~/.claude/projects.
func (r *Resolver) ClaudeCode() Roots {
	return Roots{Dirs: []string{filepath.Join(r.home, ".claude", "projects")}}
}

// GeminiCLI returns ~/.gemini/tmp.
func (r *Resolver) GeminiCLI() Roots {
	return Roots{Dirs: []string{filepath.Join(r.home, ".gemini", "tmp")}}
}

// Cline returns the editor's globalStorage directory for the Cline
// extension, checking both the Linux config path and the macOS
// Application Support path.
func (r *Resolver) Cline() Roots {
	const ext = "saoudrizwan.claude-dev"
	candidates := []string{
		filepath.Join(r.home, ".config", "Code", "User", "globalStorage", ext),
		filepath.Join(r.home, "Library", "Application Support", "Code", "User", "globalStorage", ext),
	}
	return Roots{Dirs: candidates}
}

// OpenCode returns the project-local .opencode directory (resolved
// relative to cwd by the caller) plus any configured global database
// directory.
func (r *Resolver) OpenCode(projectDir string) Roots {
	dirs := []string{filepath.Join(projectDir, ".opencode")}
	if global := r.env("OPENCODE_DATA_DIR"); global != "" {
		dirs = append(dirs, global)
	} else {
		dirs = append(dirs, filepath.Join(r.home, ".local", "share", "opencode"))
	}
	return Roots{Dirs: dirs}
}

// Amp returns the editor's globalStorage directory for the Amp
// extension plus its local-share cache, branching on GOOS for
// platform-specific data directories.
func (r *Resolver) Amp() Roots {
	dirs := []string{filepath.Join(r.home, ".local", "share", "amp")}
	switch runtime.GOOS {
	case "windows":
		if appData := r.env("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "amp"))
		}
	default:
		dirs = append(dirs,
			filepath.Join(r.home, ".config", "Code", "User", "globalStorage", "sourcegraph.amp"),
			filepath.Join(r.home, "Library", "Application Support", "Code", "User", "globalStorage", "sourcegraph.amp"),
		)
	}
	return Roots{Dirs: dirs}
}

// Aider resolves the supplemental Aider connector's search roots: the
// current working directory plus an optional override, matching
// original_source/src/connectors/aider.rs's CASS_AIDER_DATA_ROOT.
func (r *Resolver) Aider(cwd string) Roots {
	dirs := []string{cwd}
	if override := r.env("CASS_AIDER_DATA_ROOT"); override != "" {
		dirs = append(dirs, override)
	}
	return Roots{Dirs: dirs}
}
