// Package connector defines the contract every agent-specific connector
// implements, plus the small set of helpers (timestamp parsing, mtime
// filtering, content extraction) shared across connectors.
package connector

import (
	"context"
	"os"

	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
)

// DetectionResult reports whether a connector's artifacts were found on
// this machine, and why, for diagnostic surfacing (e.g. a future doctor
// command).
type DetectionResult struct {
	Detected bool
	Evidence []string
}

// NotFound is the zero DetectionResult.
func NotFound() DetectionResult { return DetectionResult{} }

// ScanContext carries the incremental cursor and cancellation token into
// a connector scan.
type ScanContext struct {
	Ctx   context.Context
	Since *int64 // epoch milliseconds; nil means full scan
}

// Cancelled reports whether the scan should stop for cooperative
// cancellation.
func (sc ScanContext) Cancelled() bool {
	if sc.Ctx == nil {
		return false
	}
	select {
	case <-sc.Ctx.Done():
		return true
	default:
		return false
	}
}

// Connector is the contract every agent-specific artifact reader
// implements. Connectors are idempotent and side-effect-free outside
// storage: scan only reads artifacts and returns normalized records: it
// never writes to storage or the full-text index itself.
type Connector interface {
	// Slug is the agent slug this connector owns.
	Slug() string
	// Detect reports whether this connector's artifacts exist on this
	// machine.
	Detect() DetectionResult
	// Scan walks this connector's roots and returns every conversation
	// touched since ctx.Since (or all conversations, if nil).
	Scan(ctx ScanContext) ([]model.NormalizedConversation, error)
	// OwnsPath reports whether path is an artifact this connector reads,
	// used by the watcher to route filesystem events.
	OwnsPath(path string) bool
}

// FileModifiedSince reports whether path's modification time is after
// since (or since is nil, meaning "always"). Connectors use this to skip
// files whose modification time is older than the last scan.
func FileModifiedSince(path string, since *int64) bool {
	if since == nil {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().UnixMilli() > *since
}

// StatMtime stats path and returns its modification time as epoch
// milliseconds, or nil if the file cannot be stat'd. Every file connector
// sets NormalizedConversation.SourceMtime from this, not from the last
// event timestamp, so MaxSourceMtime tracks the same clock
// FileModifiedSince compares against on the next incremental pass.
func StatMtime(path string) *int64 {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	ms := info.ModTime().UnixMilli()
	return &ms
}
