// Package apperr defines the error taxonomy shared across connectors,
// storage, the full-text index, and the indexer/watcher orchestration:
// one struct per error kind.
package apperr

import "fmt"

// IOError represents an unreadable root, unreadable artifact, or write
// failure. Per-artifact IO errors are logged and the artifact skipped;
// connector-level IO errors fail the connector pass but not the indexer.
type IOError struct {
	Path string
	Op   string // "open", "read", "write", "walk"
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError represents a malformed record in a JSONL/JSON artifact. A
// malformed single JSONL line must never fail the whole file.
type ParseError struct {
	File   string
	Offset int64 // byte offset or line number, whichever the caller tracks
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s:%d: %v", e.File, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaMismatchError means the full-text index's schema hash differs
// from the current build; it forces a rebuild from storage.
type SchemaMismatchError struct {
	Dir      string
	Expected string
	Found    string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s: expected %s, found %s", e.Dir, e.Expected, e.Found)
}

// ConflictError represents a uniqueness conflict resolved by the
// append-only rule (conversation upsert) or by skipping already-present
// rows (message idx collision). It is not propagated as a failure; it
// exists so callers can log what was skipped.
type ConflictError struct {
	Kind string // "conversation", "message_idx"
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("database conflict [%s]: %s already present", e.Kind, e.Key)
}

// FatalError represents unrecoverable storage corruption or
// out-of-space. It propagates to the indexer, which exits non-zero.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
