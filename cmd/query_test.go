package cmd

import (
	"testing"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
)

func TestParseMatchModeDefaultsToStandard(t *testing.T) {
	mode, err := parseMatchMode("")
	if err != nil {
		t.Fatalf("parseMatchMode(\"\") error = %v", err)
	}
	if mode != ftsindex.Standard {
		t.Fatalf("parseMatchMode(\"\") = %q, want standard", mode)
	}
}

func TestParseMatchModeCaseInsensitive(t *testing.T) {
	mode, err := parseMatchMode("PREFIX")
	if err != nil {
		t.Fatalf("parseMatchMode(PREFIX) error = %v", err)
	}
	if mode != ftsindex.Prefix {
		t.Fatalf("parseMatchMode(PREFIX) = %q, want prefix", mode)
	}
}

func TestParseMatchModeUnknownErrors(t *testing.T) {
	if _, err := parseMatchMode("fuzzy"); err == nil {
		t.Fatal("parseMatchMode(fuzzy) error = nil, want an error")
	}
}

func TestParseTimeFlagEmptyIsNil(t *testing.T) {
	ms, err := parseTimeFlag("")
	if err != nil {
		t.Fatalf("parseTimeFlag(\"\") error = %v", err)
	}
	if ms != nil {
		t.Fatalf("parseTimeFlag(\"\") = %v, want nil", ms)
	}
}

func TestParseTimeFlagParsesRFC3339(t *testing.T) {
	ms, err := parseTimeFlag("2023-11-14T22:13:20Z")
	if err != nil {
		t.Fatalf("parseTimeFlag() error = %v", err)
	}
	if ms == nil || *ms != 1700000000000 {
		t.Fatalf("parseTimeFlag() = %v, want 1700000000000", ms)
	}
}

func TestParseTimeFlagRejectsGarbage(t *testing.T) {
	if _, err := parseTimeFlag("not-a-timestamp"); err == nil {
		t.Fatal("parseTimeFlag(garbage) error = nil, want an error")
	}
}

func TestFormatTimeNilIsUnknown(t *testing.T) {
	if got := formatTime(nil); got != "unknown time" {
		t.Fatalf("formatTime(nil) = %q, want \"unknown time\"", got)
	}
}
