// Package watcher detects changes under the union of connector roots
// and triggers a targeted, debounced reindex, built on
// github.com/fsnotify/fsnotify.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pathshala-dev/coding-agent-session-search/internal/connector"
	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
)

// Watcher routes filesystem events to the owning connector, coalesces
// bursts over a debounce window, and triggers a targeted incremental
// reindex per dirty connector, advancing the persistent cursor only on
// success.
type Watcher struct {
	indexer    *indexer.Indexer
	connectors []connector.Connector
	statePath  string
	debounce   time.Duration

	mu    sync.Mutex
	state *State
}

// New builds a Watcher. statePath is the watch_state.json path;
// debounce is the quiescence window (≈300ms by default).
func New(ix *indexer.Indexer, connectors []connector.Connector, statePath string, debounce time.Duration) (*Watcher, error) {
	state, err := LoadState(statePath)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		indexer:    ix,
		connectors: connectors,
		statePath:  statePath,
		debounce:   debounce,
		state:      state,
	}, nil
}

// Run blocks until ctx is cancelled, watching every connector's
// detected roots. Any in-flight reindex triggered before cancellation
// is allowed to complete before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, c := range w.connectors {
		det := c.Detect()
		for _, root := range det.Evidence {
			addWatchesRecursive(fsw, root)
		}
	}

	var wg sync.WaitGroup
	timers := map[string]*time.Timer{}
	var timersMu sync.Mutex

	trigger := func(c connector.Connector) {
		timersMu.Lock()
		if t, ok := timers[c.Slug()]; ok {
			t.Stop()
		}
		timers[c.Slug()] = time.AfterFunc(w.debounce, func() {
			wg.Add(1)
			defer wg.Done()
			w.reindex(ctx, c)
		})
		timersMu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			timersMu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			timersMu.Unlock()
			wg.Wait()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			owner := w.findOwner(ev.Name)
			if owner == nil {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				addWatchesRecursive(fsw, ev.Name)
			}
			trigger(owner)
		case err, ok := <-fsw.Errors:
			if !ok {
				continue
			}
			logging.Warn("watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) findOwner(path string) connector.Connector {
	for _, c := range w.connectors {
		if c.OwnsPath(path) {
			return c
		}
	}
	return nil
}

// reindex runs a single targeted incremental scan for one connector and
// bumps its cursor only once both storage and the full-text index have
// committed successfully.
func (w *Watcher) reindex(ctx context.Context, c connector.Connector) {
	w.mu.Lock()
	since := w.state.Since(c.Slug())
	w.mu.Unlock()

	n, err := w.indexer.ReindexOne(ctx, c, since)
	if err != nil {
		logging.Warn("watcher: reindex %s: %v", c.Slug(), err)
		return
	}

	cursor, err := w.indexer.Store.MaxSourceMtime(c.Slug())
	if err != nil {
		logging.Warn("watcher: read source mtime for %s: %v", c.Slug(), err)
		return
	}
	w.mu.Lock()
	if cursor != nil {
		w.state.Bump(c.Slug(), *cursor)
	}
	err = w.state.Save(w.statePath)
	w.mu.Unlock()
	if err != nil {
		logging.Warn("watcher: save cursor for %s: %v", c.Slug(), err)
		return
	}
	logging.Info("watcher: reindexed %s (%d conversations)", c.Slug(), n)
}

// addWatchesRecursive adds fsw watches on root and every subdirectory,
// since fsnotify does not recurse on its own.
func addWatchesRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = fsw.Add(path)
		}
		return nil
	})
}
