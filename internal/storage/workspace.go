package storage

import (
	"path/filepath"
	"strings"
)

// CanonicalWorkspacePath normalizes a connector-supplied workspace path
// to an absolute, cleaned, trailing-slash-free form, so that the same
// project opened via different connectors (or a trailing slash added by
// one source but not another) resolves to one workspaces row.
func CanonicalWorkspacePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.Clean(abs)
	return strings.TrimSuffix(abs, string(filepath.Separator))
}
