package apperr

import (
	"errors"
	"testing"
)

func TestIOErrorUnwrap(t *testing.T) {
	inner := errors.New("permission denied")
	err := &IOError{Path: "/tmp/x", Op: "read", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is did not find wrapped inner error")
	}
	if err.Error() == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{File: "rollout.jsonl", Offset: 42, Err: errors.New("unexpected EOF")}
	want := "parse error rollout.jsonl:42: unexpected EOF"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSchemaMismatchError(t *testing.T) {
	err := &SchemaMismatchError{Dir: "/data", Expected: "abc", Found: "def"}
	if err.Error() == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{Kind: "message_idx", Key: "conv-1:3"}
	want := `database conflict [message_idx]: conv-1:3 already present`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFatalErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &FatalError{Reason: "write", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is did not find wrapped inner error")
	}
}
