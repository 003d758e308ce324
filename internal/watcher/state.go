package watcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// State is the persistent watch cursor: the last source modification
// time successfully reindexed for each agent slug.
type State struct {
	Cursors map[string]int64 `json:"cursors"`
}

// LoadState reads watch_state.json, returning an empty State if the
// file does not exist yet (first run).
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Cursors: map[string]int64{}}, nil
		}
		return nil, fmt.Errorf("watcher: read state %s: %w", path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("watcher: parse state %s: %w", path, err)
	}
	if st.Cursors == nil {
		st.Cursors = map[string]int64{}
	}
	return &st, nil
}

// Save writes State atomically: marshal to a uuid-suffixed sibling temp
// file, then os.Rename over the destination, so the watcher can crash
// mid-write without corrupting a concurrently-running instance's read
// of the same file.
func (st *State) Save(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("watcher: marshal state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("watcher: mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".watch_state.%s.tmp", uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("watcher: write temp state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("watcher: rename state: %w", err)
	}
	return nil
}

// Bump advances the cursor for slug only if newMtime is greater than
// the currently recorded cursor, guaranteeing monotonicity even if
// reindex passes complete out of order.
func (st *State) Bump(slug string, newMtime int64) {
	if newMtime > st.Cursors[slug] {
		st.Cursors[slug] = newMtime
	}
}

// Since returns the cursor for slug, or nil if never set (full scan).
func (st *State) Since(slug string) *int64 {
	v, ok := st.Cursors[slug]
	if !ok {
		return nil
	}
	return &v
}
