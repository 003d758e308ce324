package connector

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

// Amp reads the Sourcegraph Amp extension's per-thread JSON caches, from
// both the editor's globalStorage and ~/.local/share/amp (or
// %APPDATA%\amp on Windows). A thread file that never reached a final
// state carries "partial": true, recorded in the conversation metadata.
type Amp struct {
	resolver *pathresolver.Resolver
}

func NewAmp(r *pathresolver.Resolver) *Amp { return &Amp{resolver: r} }

func (a *Amp) Slug() string { return "amp" }

func (a *Amp) Detect() DetectionResult {
	roots := a.resolver.Amp()
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (a *Amp) OwnsPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") && strings.Contains(base, "thread")
}

type ampMessage struct {
	Role      string          `json:"role"`
	Timestamp json.RawMessage `json:"timestamp"`
	Text      string          `json:"text"`
	Content   json.RawMessage `json:"content"`
}

type ampThread struct {
	ID        string       `json:"id"`
	ThreadID  string       `json:"threadId"`
	Workspace string       `json:"workspace"`
	Partial   bool         `json:"partial"`
	Messages  []ampMessage `json:"messages"`
}

func (a *Amp) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := a.resolver.Amp()
	var out []model.NormalizedConversation

	for _, root := range roots.Dirs {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Cancelled() {
				return fmt.Errorf("amp scan cancelled")
			}
			if err != nil {
				return nil
			}
			if d.IsDir() || !a.OwnsPath(path) {
				return nil
			}
			if !FileModifiedSince(path, ctx.Since) {
				return nil
			}
			conv, ok := a.scanFile(path)
			if ok {
				out = append(out, conv)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (a *Amp) scanFile(path string) (model.NormalizedConversation, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("amp: cannot read %s: %v", path, err)
		return model.NormalizedConversation{}, false
	}
	var thread ampThread
	if err := json.Unmarshal(data, &thread); err != nil {
		logging.ParseWarning(path, 0, err)
		return model.NormalizedConversation{}, false
	}

	externalID := thread.ThreadID
	if externalID == "" {
		externalID = thread.ID
	}
	if externalID == "" {
		externalID = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	conv := model.NormalizedConversation{
		AgentSlug:   a.Slug(),
		SourcePath:  path,
		ExternalID:  externalID,
		Workspace:   thread.Workspace,
		SourceMtime: StatMtime(path),
	}
	if thread.Partial {
		conv.Metadata = json.RawMessage(`{"partial":true}`)
	}

	idx := 0
	for _, m := range thread.Messages {
		role, ok := ampRole(m.Role)
		content := m.Text
		if content == "" && len(m.Content) > 0 {
			content = ExtractText(m.Content)
		}
		if !ok || content == "" {
			continue
		}
		msg := model.NormalizedMessage{Idx: idx, Role: role, Content: content}
		if ts, hasTS := ParseTimestamp(m.Timestamp); hasTS {
			msg.CreatedAt = &ts
			if conv.StartedAt == nil || ts < *conv.StartedAt {
				conv.StartedAt = &ts
			}
			if conv.EndedAt == nil || ts > *conv.EndedAt {
				conv.EndedAt = &ts
			}
		}
		conv.Messages = append(conv.Messages, msg)
		idx++
	}
	if len(conv.Messages) == 0 {
		return conv, false
	}
	if info, err := os.Stat(path); err == nil && conv.StartedAt == nil {
		mtime := info.ModTime().UnixMilli()
		conv.StartedAt = &mtime
		conv.EndedAt = &mtime
	}
	conv.Title = firstLine(conv.Messages[0].Content)
	sortMessagesStable(conv.Messages)
	return conv, true
}

func ampRole(role string) (model.Role, bool) {
	switch role {
	case "user":
		return model.RoleUser, true
	case "assistant", "agent":
		return model.RoleAgent, true
	case "system":
		return model.RoleSystem, true
	case "":
		return "", false
	default:
		return model.RoleTool, true
	}
}
