package uiutil

import (
	"bytes"
	"os"
	"testing"
)

func TestIsTerminalFalseForNonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Fatal("IsTerminal(bytes.Buffer) = true, want false")
	}
}

func TestIsTerminalFalseForRegularFile(t *testing.T) {
	f, err := os.CreateTemp("", "uiutil-test-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if IsTerminal(f) {
		t.Fatal("IsTerminal(regular file) = true, want false")
	}
}

func TestPrintSuccessNoPanic(t *testing.T) {
	PrintSuccess("indexed 3 conversations")
}

func TestPrintProgressNoPanic(t *testing.T) {
	PrintProgress("codex", 2, 5)
	PrintProgress("codex", 5, 5)
}
