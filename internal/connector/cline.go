package connector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
)

// Cline reads the VS Code extension's per-task directories, each holding
// task_metadata.json, ui_messages.json, and api_conversation_history.json.
// It merges the UI and API message lists at the same index rather than
// preferring one file wholesale, since the two sometimes disagree on
// which turns they recorded.
type Cline struct {
	resolver *pathresolver.Resolver
}

func NewCline(r *pathresolver.Resolver) *Cline { return &Cline{resolver: r} }

func (c *Cline) Slug() string { return "cline" }

func (c *Cline) Detect() DetectionResult {
	roots := c.resolver.Cline()
	if !roots.Exists() {
		return NotFound()
	}
	return DetectionResult{Detected: true, Evidence: roots.Dirs}
}

func (c *Cline) OwnsPath(path string) bool {
	base := filepath.Base(path)
	return base == "ui_messages.json" || base == "api_conversation_history.json" || base == "task_metadata.json"
}

type clineRawItem struct {
	Role      string          `json:"role"`
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	CreatedAt json.RawMessage `json:"created_at"`
	TS        json.RawMessage `json:"ts"`
	Content   json.RawMessage `json:"content"`
	Text      string          `json:"text"`
	Message   string          `json:"message"`
}

type clineMetadata struct {
	Title     string `json:"title"`
	RootPath  string `json:"rootPath"`
	CWD       string `json:"cwd"`
	Workspace string `json:"workspace"`
}

func (c *Cline) Scan(ctx ScanContext) ([]model.NormalizedConversation, error) {
	roots := c.resolver.Cline()
	var out []model.NormalizedConversation

	for _, root := range roots.Dirs {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if ctx.Cancelled() {
				return out, fmt.Errorf("cline scan cancelled")
			}
			if !entry.IsDir() {
				continue
			}
			taskDir := filepath.Join(root, entry.Name())
			conv, ok := c.scanTask(entry.Name(), taskDir, ctx.Since)
			if ok {
				out = append(out, conv)
			}
		}
	}
	return out, nil
}

func (c *Cline) scanTask(taskID, taskDir string, since *int64) (model.NormalizedConversation, bool) {
	uiPath := filepath.Join(taskDir, "ui_messages.json")
	apiPath := filepath.Join(taskDir, "api_conversation_history.json")
	metaPath := filepath.Join(taskDir, "task_metadata.json")

	touched := FileModifiedSince(uiPath, since) || FileModifiedSince(apiPath, since)
	if !touched {
		return model.NormalizedConversation{}, false
	}

	uiItems := readClineList(uiPath)
	apiItems := readClineList(apiPath)

	n := len(uiItems)
	if len(apiItems) > n {
		n = len(apiItems)
	}

	var messages []model.NormalizedMessage
	for i := 0; i < n; i++ {
		var chosen *clineRawItem
		var sourceOrder int
		if i < len(apiItems) {
			chosen = &apiItems[i]
			sourceOrder = i
		} else if i < len(uiItems) {
			chosen = &uiItems[i]
			sourceOrder = i
		}
		if chosen == nil {
			continue
		}
		role, ok := clineRole(chosen)
		content := clineContent(chosen)
		if !ok || content == "" {
			continue
		}
		msg := model.NormalizedMessage{Idx: sourceOrder, Role: role, Content: content}
		if ts, hasTS := clineTimestamp(chosen); hasTS {
			msg.CreatedAt = &ts
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return model.NormalizedConversation{}, false
	}
	sortMessagesStable(messages)

	sourcePath := uiPath
	if _, err := os.Stat(uiPath); err != nil {
		sourcePath = apiPath
	}

	conv := model.NormalizedConversation{
		AgentSlug:   c.Slug(),
		ExternalID:  taskID,
		SourcePath:  sourcePath,
		Messages:    messages,
		StartedAt:   messages[0].CreatedAt,
		EndedAt:     messages[len(messages)-1].CreatedAt,
		SourceMtime: latestMtime(uiPath, apiPath),
	}

	if data, err := os.ReadFile(metaPath); err == nil {
		var meta clineMetadata
		if err := json.Unmarshal(data, &meta); err == nil {
			conv.Title = meta.Title
			switch {
			case meta.RootPath != "":
				conv.Workspace = meta.RootPath
			case meta.CWD != "":
				conv.Workspace = meta.CWD
			case meta.Workspace != "":
				conv.Workspace = meta.Workspace
			}
		}
	}
	if conv.Title == "" {
		conv.Title = firstLine(conv.Messages[0].Content)
	}
	return conv, true
}

func readClineList(path string) []clineRawItem {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var items []clineRawItem
	if err := json.Unmarshal(data, &items); err != nil {
		logging.ParseWarning(path, 0, err)
		return nil
	}
	return items
}

func clineRole(item *clineRawItem) (model.Role, bool) {
	r := item.Role
	if r == "" {
		r = item.Type
	}
	switch strings.ToLower(r) {
	case "user":
		return model.RoleUser, true
	case "assistant", "agent":
		return model.RoleAgent, true
	case "system":
		return model.RoleSystem, true
	case "":
		return model.RoleAgent, true
	default:
		return model.RoleTool, true
	}
}

func clineContent(item *clineRawItem) string {
	if item.Text != "" {
		return item.Text
	}
	if item.Message != "" {
		return item.Message
	}
	if len(item.Content) > 0 {
		return ExtractText(item.Content)
	}
	return ""
}

func clineTimestamp(item *clineRawItem) (int64, bool) {
	if ts, ok := ParseTimestamp(item.Timestamp); ok {
		return ts, true
	}
	if ts, ok := ParseTimestamp(item.CreatedAt); ok {
		return ts, true
	}
	return ParseTimestamp(item.TS)
}

// latestMtime returns the newest modification time among the given
// paths, since a Cline task is split across ui_messages.json and
// api_conversation_history.json and either can be the one last written.
func latestMtime(paths ...string) *int64 {
	var latest *int64
	for _, p := range paths {
		ms := StatMtime(p)
		if ms == nil {
			continue
		}
		if latest == nil || *ms > *latest {
			latest = ms
		}
	}
	return latest
}
