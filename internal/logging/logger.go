// Package logging provides the process-wide leveled logger used by every
// command and package: a package-level level, a SetVerbose toggle, and
// Error/Warn/Info/Debug helpers.
package logging

import (
	"log"
	"os"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var (
	level  = LevelInfo
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel sets the global log level.
func SetLevel(l Level) { level = l }

// SetVerbose enables verbose (debug) logging, wired to the --verbose
// flag in cmd/root.go.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelInfo)
	}
}

func Error(format string, args ...interface{}) {
	if level >= LevelError {
		logger.Printf("[ERROR] "+format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if level >= LevelWarn {
		logger.Printf("[WARN] "+format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if level >= LevelInfo {
		logger.Printf("[INFO] "+format, args...)
	}
}

func Debug(format string, args ...interface{}) {
	if level >= LevelDebug {
		logger.Printf("[DEBUG] "+format, args...)
	}
}

// ParseWarning logs a structured warning for a skipped malformed record,
// carrying the file and an offset (byte offset or line number) so the
// operator can find the bad record without re-running with higher
// verbosity. A malformed single JSONL line never fails the whole file.
func ParseWarning(file string, offset int64, err error) {
	Warn("parse: %s:%d: %v", file, offset, err)
}
