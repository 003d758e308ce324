// Package model defines the normalized record types shared by every
// connector, the storage layer, and the query client. The model is
// input-only to storage (connectors produce it) and read-only out of
// storage (the query client returns projected views).
package model

import "encoding/json"

// Role is a closed variant. Unknown source roles must be collapsed to
// RoleTool by the connector, with the original label preserved in Extra.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleTool, RoleSystem:
		return true
	}
	return false
}

// Kind describes how an agent tool is packaged.
type Kind string

const (
	KindCLI       Kind = "cli"
	KindExtension Kind = "editor-extension"
	KindHybrid    Kind = "hybrid"
)

// Agent is a supported coding-assistant tool. Slugs are unique and
// immutable; adding an agent is additive.
type Agent struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Kind        Kind   `json:"kind"`
}

// Workspace is a project root path, unique by canonical absolute path.
type Workspace struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

// Snippet is an optional code/file reference attached to a message.
type Snippet struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Language  string `json:"language,omitempty"`
	Text      string `json:"text"`
}

// NormalizedMessage is a single turn in a conversation, as produced by a
// connector before it has been assigned a database identity.
type NormalizedMessage struct {
	Idx       int             `json:"idx"`
	Role      Role            `json:"role"`
	Author    string          `json:"author,omitempty"`
	CreatedAt *int64          `json:"created_at,omitempty"` // epoch milliseconds UTC
	Content   string          `json:"content"`
	Extra     json.RawMessage `json:"extra,omitempty"`
	Snippets  []Snippet       `json:"snippets,omitempty"`
}

// NormalizedConversation is a single thread/task/session within an agent,
// as produced by a connector scan. (agent, ExternalID) is the
// deduplication key enforced by storage.
type NormalizedConversation struct {
	AgentSlug   string          `json:"agent_slug"`
	ExternalID  string          `json:"external_id"`
	Title       string          `json:"title,omitempty"`
	Workspace   string          `json:"workspace,omitempty"` // canonical absolute path, or empty
	SourcePath  string          `json:"source_path"`
	SourceMtime *int64          `json:"source_mtime,omitempty"` // artifact file mtime, epoch ms; drives incremental skip
	StartedAt   *int64          `json:"started_at,omitempty"`
	EndedAt     *int64          `json:"ended_at,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Messages    []NormalizedMessage `json:"messages"`
}

// Conversation is the persisted, identity-bearing view of a conversation,
// as returned by the query client and storage's read paths.
type Conversation struct {
	ID         int64  `json:"id"`
	AgentSlug  string `json:"agent_slug"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title,omitempty"`
	Workspace  string `json:"workspace,omitempty"`
	SourcePath string `json:"source_path"`
	StartedAt  *int64 `json:"started_at,omitempty"`
	EndedAt    *int64 `json:"ended_at,omitempty"`
}

// Message is the persisted, identity-bearing view of a message.
type Message struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	Idx            int    `json:"idx"`
	Role           Role   `json:"role"`
	Author         string `json:"author,omitempty"`
	CreatedAt      *int64 `json:"created_at,omitempty"`
	Content        string `json:"content"`
}
