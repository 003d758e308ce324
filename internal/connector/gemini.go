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

// GeminiCLI reads ~/.gemini/tmp/<project-hash>/{chat,checkpoint}-*.json,
// two whole-file JSON documents per project directory rather than a
// JSONL stream; role is inferred from each recorded event's kind since
// Gemini's checkpoint format has no explicit role field.
type GeminiCLI struct {
	resolver *pathresolver.Resolver
}

func NewGeminiCLI(r *pathresolver.Resolver) *GeminiCLI { return &GeminiCLI{resolver: r} }

func (g *GeminiCLI) Slug() string { return "gemini_cli" }

func (g *GeminiCLI) Detect() DetectionResult {
	roots := g.resolver.GeminiCLI()
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (g *GeminiCLI) OwnsPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") &&
		(strings.HasPrefix(base, "chat-") || strings.HasPrefix(base, "checkpoint-"))
}

type geminiEvent struct {
	Kind      string          `json:"kind"`
	Role      string          `json:"role"`
	Timestamp json.RawMessage `json:"timestamp"`
	Text      string          `json:"text"`
	Content   json.RawMessage `json:"content"`
}

type geminiDoc struct {
	ID     string        `json:"id"`
	Events []geminiEvent `json:"events"`
	// Some checkpoint files store a flat "messages" array instead.
	Messages []geminiEvent `json:"messages"`
}

func (g *GeminiCLI) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := g.resolver.GeminiCLI()
	var out []model.NormalizedConversation

	for _, root := range roots.Dirs {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		// Group by project-hash directory: chat-*.json and
		// checkpoint-*.json in the same directory describe one
		// conversation each, keyed by directory + file stem.
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Cancelled() {
				return fmt.Errorf("gemini_cli scan cancelled")
			}
			if err != nil {
				return nil
			}
			if d.IsDir() || !g.OwnsPath(path) {
				return nil
			}
			if !FileModifiedSince(path, ctx.Since) {
				return nil
			}
			conv, ok := g.scanFile(root, path)
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

func (g *GeminiCLI) scanFile(root, path string) (model.NormalizedConversation, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("gemini_cli: cannot read %s: %v", path, err)
		return model.NormalizedConversation{}, false
	}

	var doc geminiDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.ParseWarning(path, 0, err)
		return model.NormalizedConversation{}, false
	}
	events := doc.Events
	if len(events) == 0 {
		events = doc.Messages
	}

	projectDir := filepath.Dir(path)
	stem := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "chat-"), ".json")
	stem = strings.TrimSuffix(strings.TrimPrefix(stem, "checkpoint-"), ".json")
	externalID := doc.ID
	if externalID == "" {
		externalID = filepath.Base(projectDir) + "/" + stem
	}

	info, statErr := os.Stat(path)

	conv := model.NormalizedConversation{
		AgentSlug:  g.Slug(),
		SourcePath: path,
		ExternalID: externalID,
	}
	if statErr == nil {
		mtime := info.ModTime().UnixMilli()
		conv.SourceMtime = &mtime
	}

	idx := 0
	for _, ev := range events {
		role, ok := geminiRole(ev)
		content := ev.Text
		if content == "" && len(ev.Content) > 0 {
			content = ExtractText(ev.Content)
		}
		if !ok || content == "" {
			continue
		}
		msg := model.NormalizedMessage{Idx: idx, Role: role, Content: content}
		if ts, hasTS := ParseTimestamp(ev.Timestamp); hasTS {
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
	if conv.StartedAt == nil && statErr == nil {
		mtime := info.ModTime().UnixMilli()
		conv.StartedAt = &mtime
		conv.EndedAt = &mtime
	}
	conv.Title = firstLine(conv.Messages[0].Content)
	sortMessagesStable(conv.Messages)
	return conv, true
}

func geminiRole(ev geminiEvent) (model.Role, bool) {
	if ev.Role != "" {
		switch ev.Role {
		case "user":
			return model.RoleUser, true
		case "model", "assistant":
			return model.RoleAgent, true
		default:
			return model.RoleTool, true
		}
	}
	switch ev.Kind {
	case "user_prompt", "user_input":
		return model.RoleUser, true
	case "model_response", "assistant_response":
		return model.RoleAgent, true
	case "tool_call", "tool_result", "function_call", "function_response":
		return model.RoleTool, true
	case "system_prompt":
		return model.RoleSystem, true
	}
	return "", false
}
