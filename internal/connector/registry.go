package connector

import "github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"

// Build returns one Connector per requested slug, in a stable order,
// skipping unknown slugs. projectDir scopes the OpenCode connector to
// the project it is run from, resolving paths relative to the current
// working directory when no explicit target is given.
func Build(r *pathresolver.Resolver, slugs []string, projectDir string) []Connector {
	all := map[string]Connector{
		"codex":       NewCodex(r),
		"claude_code": NewClaudeCode(r),
		"gemini_cli":  NewGeminiCLI(r),
		"cline":       NewCline(r),
		"opencode":    NewOpenCode(r, projectDir),
		"amp":         NewAmp(r),
		"aider":       NewAider(r),
	}
	order := []string{"codex", "claude_code", "gemini_cli", "cline", "opencode", "amp", "aider"}

	want := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		want[s] = true
	}

	var out []Connector
	for _, slug := range order {
		if !want[slug] {
			continue
		}
		if c, ok := all[slug]; ok {
			out = append(out, c)
		}
	}
	return out
}
