package connector

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

// Aider is a supplemental connector, not named in the core agent table,
// ported from original_source/src/connectors/aider.rs. It parses
// .aider.chat.history.md, a plain-markdown transcript where "> "-prefixed
// lines are the user's turns and the text after a user turn belongs to
// the assistant, with no explicit message boundaries or timestamps. Text
// before the first user turn is kept as a system message.
type Aider struct {
	resolver *pathresolver.Resolver
}

func NewAider(r *pathresolver.Resolver) *Aider { return &Aider{resolver: r} }

func (a *Aider) Slug() string { return "aider" }

const aiderFileName = ".aider.chat.history.md"

func (a *Aider) Detect() DetectionResult {
	cwd, _ := os.Getwd()
	roots := a.resolver.Aider(cwd)
	files := findAiderChatFiles(roots.Dirs)
	evidence := []string{"aider connector active"}
	if len(files) > 0 {
		evidence = append(evidence, fmt.Sprintf("found %s", files[0]))
	}
	return DetectionResult{Detected: true, Evidence: evidence}
}

func (a *Aider) OwnsPath(path string) bool {
	return filepath.Base(path) == aiderFileName
}

// findAiderChatFiles walks roots up to depth 5, matching the original's
// WalkDir(max_depth=5) shallow scan.
func findAiderChatFiles(roots []string) []string {
	const maxDepth = 5
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
				if depth > maxDepth {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == aiderFileName {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}

func (a *Aider) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	cwd, _ := os.Getwd()
	roots := a.resolver.Aider(cwd)
	files := findAiderChatFiles(roots.Dirs)

	var out []model.NormalizedConversation
	for _, path := range files {
		if ctx.Cancelled() {
			return out, fmt.Errorf("aider scan cancelled")
		}
		if !FileModifiedSince(path, ctx.Since) {
			continue
		}
		conv, ok := a.parseChatHistory(path)
		if ok {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (a *Aider) parseChatHistory(path string) (model.NormalizedConversation, bool) {
	f, err := os.Open(path)
	if err != nil {
		logging.Warn("aider: cannot open %s: %v", path, err)
		return model.NormalizedConversation{}, false
	}
	defer f.Close()

	var messages []model.NormalizedMessage
	currentRole := model.RoleSystem
	var buf strings.Builder
	idx := 0

	flush := func(role model.Role) {
		content := strings.TrimSpace(buf.String())
		if content == "" {
			return
		}
		messages = append(messages, model.NormalizedMessage{
			Idx:     idx,
			Role:    role,
			Author:  string(role),
			Content: content,
		})
		idx++
		buf.Reset()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "> ") {
			if currentRole != model.RoleUser {
				flush(currentRole)
			}
			currentRole = model.RoleUser
			buf.WriteString(strings.TrimSpace(strings.TrimPrefix(trimmed, ">")))
			buf.WriteByte('\n')
			continue
		}
		if currentRole == model.RoleUser && trimmed != "" && !strings.HasPrefix(line, ">") {
			flush(model.RoleUser)
			currentRole = model.RoleAgent
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush(currentRole)
	if err := scanner.Err(); err != nil {
		logging.Warn("aider: read error in %s: %v", path, err)
	}
	if len(messages) == 0 {
		return model.NormalizedConversation{}, false
	}

	startedAt := StatMtime(path)

	conv := model.NormalizedConversation{
		AgentSlug:   a.Slug(),
		ExternalID:  filepath.Base(path),
		Title:       fmt.Sprintf("Aider Chat: %s", path),
		Workspace:   filepath.Dir(path),
		SourcePath:  path,
		StartedAt:   startedAt,
		EndedAt:     startedAt,
		SourceMtime: startedAt,
		Messages:    messages,
	}
	return conv, true
}
