package connector

import (
	"bufio"
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

// ClaudeCode reads ~/.claude/projects/**/*.jsonl transcripts, one JSON
// object per line, mirroring Codex's line-oriented scan but with Claude
// Code's own event shape and role vocabulary.
type ClaudeCode struct {
	resolver *pathresolver.Resolver
}

func NewClaudeCode(r *pathresolver.Resolver) *ClaudeCode { return &ClaudeCode{resolver: r} }

func (c *ClaudeCode) Slug() string { return "claude_code" }

func (c *ClaudeCode) Detect() DetectionResult {
	roots := c.resolver.ClaudeCode()
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (c *ClaudeCode) OwnsPath(path string) bool {
	return strings.HasSuffix(path, ".jsonl")
}

type claudeEvent struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	UUID      string          `json:"uuid"`
	Timestamp json.RawMessage `json:"timestamp"`
	CWD       string          `json:"cwd"`
	Message   json.RawMessage `json:"message"`
}

type claudeMessageEnvelope struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

func (c *ClaudeCode) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := c.resolver.ClaudeCode()
	var out []model.NormalizedConversation

	for _, root := range roots.Dirs {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Cancelled() {
				return fmt.Errorf("claude_code scan cancelled")
			}
			if err != nil {
				return nil
			}
			if d.IsDir() || !c.OwnsPath(path) {
				return nil
			}
			if !FileModifiedSince(path, ctx.Since) {
				return nil
			}
			conv, ok := c.scanFile(root, path)
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

func (c *ClaudeCode) scanFile(root, path string) (model.NormalizedConversation, bool) {
	f, err := os.Open(path)
	if err != nil {
		logging.Warn("claude_code: cannot open %s: %v", path, err)
		return model.NormalizedConversation{}, false
	}
	defer f.Close()

	projectDir := filepath.Dir(path)
	conv := model.NormalizedConversation{
		AgentSlug:   c.Slug(),
		SourcePath:  path,
		ExternalID:  strings.TrimSuffix(filepath.Base(path), ".jsonl"),
		Workspace:   filepath.Dir(projectDir),
		SourceMtime: StatMtime(path),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	idx := 0
	lineNo := 0
	anchored := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev claudeEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			logging.ParseWarning(path, int64(lineNo), err)
			continue
		}
		if ev.UUID != "" && !anchored {
			// The first event carrying a session id anchors external_id
			// to Claude's own identifier when present.
			conv.ExternalID = ev.UUID
			anchored = true
		}
		if ev.CWD != "" {
			conv.Workspace = ev.CWD
		}

		roleStr, content := claudeRoleAndContent(ev)
		role, ok := claudeRole(roleStr)
		if !ok || content == "" {
			continue
		}
		ts, hasTS := ParseTimestamp(ev.Timestamp)
		msg := model.NormalizedMessage{
			Idx:     idx,
			Role:    role,
			Content: content,
		}
		if hasTS {
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
	if err := scanner.Err(); err != nil {
		logging.Warn("claude_code: read error in %s: %v", path, err)
	}
	if len(conv.Messages) == 0 {
		return conv, false
	}
	if conv.Title == "" {
		conv.Title = firstLine(conv.Messages[0].Content)
	}
	sortMessagesStable(conv.Messages)
	return conv, true
}

func claudeRoleAndContent(ev claudeEvent) (string, string) {
	if len(ev.Message) > 0 {
		var env claudeMessageEnvelope
		if err := json.Unmarshal(ev.Message, &env); err == nil && env.Role != "" {
			return env.Role, ExtractText(env.Content)
		}
	}
	return ev.Role, ExtractText(ev.Message)
}

func claudeRole(role string) (model.Role, bool) {
	switch role {
	case "user":
		return model.RoleUser, true
	case "assistant":
		return model.RoleAgent, true
	case "tool":
		return model.RoleTool, true
	case "":
		return "", false
	default:
		return model.RoleTool, true
	}
}
