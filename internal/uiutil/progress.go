// Package uiutil holds the small set of lipgloss styles and progress
// helpers shared by cmd/index.go, cmd/watch.go, and cmd/query.go. This
// is plain output formatting for the exposed commands, not an
// interactive TUI.
package uiutil

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// PrintSuccess prints a success line, styled only when stdout is a
// terminal.
func PrintSuccess(message string) {
	if IsTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error line to stderr, styled only when stderr is
// a terminal.
func PrintError(message string) {
	if IsTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintWarning prints a warning line to stderr.
func PrintWarning(message string) {
	if IsTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}

// PrintProgress reports (agent, files_done, files_total) from an
// indexer pass.
func PrintProgress(agent string, done, total int) {
	line := fmt.Sprintf("[%s] %d/%d files", agent, done, total)
	if IsTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "\r%s %s", InfoStyle.Render("⋯"), line)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	} else {
		fmt.Fprintln(os.Stderr, line)
	}
}
