package connector

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

// Codex reads $CODEX_HOME/sessions/YYYY/MM/DD/rollout-*.jsonl transcripts,
// one JSON object per line, walked with filepath.WalkDir.
type Codex struct {
	resolver *pathresolver.Resolver
}

func NewCodex(r *pathresolver.Resolver) *Codex { return &Codex{resolver: r} }

func (c *Codex) Slug() string { return "codex" }

func (c *Codex) Detect() DetectionResult {
	roots := c.resolver.Codex()
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (c *Codex) OwnsPath(path string) bool {
	return strings.HasSuffix(path, ".jsonl") && strings.Contains(filepath.Base(path), "rollout-")
}

type codexEvent struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	CWD       string          `json:"cwd"`
	Payload   json.RawMessage `json:"payload"`
	Text      string          `json:"text"`
}

func (c *Codex) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := c.resolver.Codex()
	var out []model.NormalizedConversation

	for _, root := range roots.Dirs {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Cancelled() {
				return fmt.Errorf("codex scan cancelled")
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
			conv, ok := c.scanFile(path)
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

func (c *Codex) scanFile(path string) (model.NormalizedConversation, bool) {
	f, err := os.Open(path)
	if err != nil {
		logging.Warn("codex: cannot open %s: %v", path, err)
		return model.NormalizedConversation{}, false
	}
	defer f.Close()

	conv := model.NormalizedConversation{
		AgentSlug:   c.Slug(),
		SourcePath:  path,
		ExternalID:  path,
		SourceMtime: StatMtime(path),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	idx := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev codexEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			logging.ParseWarning(path, int64(lineNo), err)
			continue
		}
		ts, hasTS := ParseTimestamp(ev.Timestamp)

		if ev.SessionID != "" && conv.ExternalID == path {
			conv.ExternalID = ev.SessionID
		}
		if ev.CWD != "" && conv.Workspace == "" {
			conv.Workspace = ev.CWD
		}

		role, ok := codexRole(ev.Type)
		if !ok {
			continue
		}
		content := ev.Text
		if content == "" && len(ev.Payload) > 0 {
			content = ExtractText(ev.Payload)
		}
		if content == "" {
			continue
		}
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
		logging.Warn("codex: read error in %s: %v", path, err)
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

func codexRole(eventType string) (model.Role, bool) {
	switch eventType {
	case "user_message":
		return model.RoleUser, true
	case "assistant_message":
		return model.RoleAgent, true
	default:
		if strings.HasPrefix(eventType, "tool_") {
			return model.RoleTool, true
		}
	}
	return "", false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// sortMessagesStable resequences idx by (CreatedAt, original idx), the
// ordering discipline the codex, claude_code, gemini_cli, cline, and amp
// connectors apply before emitting a conversation.
func sortMessagesStable(msgs []model.NormalizedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, tj := msgs[i].CreatedAt, msgs[j].CreatedAt
		if ti == nil || tj == nil {
			return msgs[i].Idx < msgs[j].Idx
		}
		if *ti != *tj {
			return *ti < *tj
		}
		return msgs[i].Idx < msgs[j].Idx
	})
	for i := range msgs {
		msgs[i].Idx = i
	}
}
