// Package indexer drives a pass across every enabled connector, writing
// through storage.Store then ftsindex.Index in that order so a crash
// between the two only loses the index mirror, never committed storage.
// One goroutine per connector reports progress on a shared channel.
package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pathshala-dev/coding-agent-session-search/internal/connector"
	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/model"
	"github.com/pathshala-dev/coding-agent-session-search/internal/storage"
)

// Mode selects Full (truncate and rescan everything) or Incremental
// (since-cursor per connector).
type Mode int

const (
	Incremental Mode = iota
	Full
)

// Progress is reported as (agent, files_done, files_total); file-based
// connectors report per-conversation granularity since they don't expose
// a separate file count.
type Progress struct {
	Agent string
	Done  int
	Total int
	Err   error
}

// Indexer owns the storage and full-text index handles and a thread
// pool sized min(4, len(connectors)).
type Indexer struct {
	Store      *storage.Store
	Index      *ftsindex.Index
	Connectors []connector.Connector
}

// New builds an Indexer over the given connectors.
func New(store *storage.Store, index *ftsindex.Index, connectors []connector.Connector) *Indexer {
	return &Indexer{Store: store, Index: index, Connectors: connectors}
}

// Run executes one pass in the given mode, reporting progress on the
// returned channel (closed when the pass completes). The caller must
// drain it.
func (ix *Indexer) Run(ctx context.Context, mode Mode) <-chan Progress {
	out := make(chan Progress, len(ix.Connectors))

	if mode == Full {
		if err := ix.Index.Truncate(); err != nil {
			logging.Error("indexer: truncate index: %v", err)
		}
	}

	poolSize := len(ix.Connectors)
	if poolSize > 4 {
		poolSize = 4
	}
	if poolSize == 0 {
		close(out)
		return out
	}

	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for _, c := range ix.Connectors {
		wg.Add(1)
		sem <- struct{}{}
		go func(c connector.Connector) {
			defer wg.Done()
			defer func() { <-sem }()
			ix.runConnector(ctx, c, mode, out)
		}(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// ReindexOne runs a single targeted incremental scan of one connector,
// for the watcher's debounced per-connector reindex. It returns the
// number of conversations written, and an error if any conversation
// failed to write.
func (ix *Indexer) ReindexOne(ctx context.Context, c connector.Connector, since *int64) (int, error) {
	convs, err := c.Scan(connector.ScanContext{Ctx: ctx, Since: since})
	if err != nil {
		return 0, fmt.Errorf("scan: %w", err)
	}
	written := 0
	failed := 0
	for _, conv := range convs {
		if err := ix.writeConversation(conv); err != nil {
			logging.Warn("indexer: %s: write conversation %s: %v", c.Slug(), conv.ExternalID, err)
			failed++
			continue
		}
		written++
	}
	if failed > 0 {
		return written, fmt.Errorf("%d of %d conversations failed to write", failed, len(convs))
	}
	return written, nil
}

func (ix *Indexer) runConnector(ctx context.Context, c connector.Connector, mode Mode, out chan<- Progress) {
	var since *int64
	if mode == Incremental {
		max, err := ix.Store.MaxSourceMtime(c.Slug())
		if err != nil {
			out <- Progress{Agent: c.Slug(), Err: fmt.Errorf("max_source_mtime: %w", err)}
			return
		}
		since = max
	}

	convs, err := c.Scan(connector.ScanContext{Ctx: ctx, Since: since})
	if err != nil {
		out <- Progress{Agent: c.Slug(), Err: fmt.Errorf("scan: %w", err)}
		return
	}

	total := len(convs)
	done := 0
	for _, conv := range convs {
		if err := ix.writeConversation(conv); err != nil {
			logging.Warn("indexer: %s: write conversation %s: %v", c.Slug(), conv.ExternalID, err)
			continue
		}
		done++
		out <- Progress{Agent: c.Slug(), Done: done, Total: total}
	}
}

// writeConversation persists one conversation through storage, then
// mirrors its newly-inserted messages into the primary full-text index,
// committing the index batch for this conversation.
func (ix *Indexer) writeConversation(conv model.NormalizedConversation) error {
	result, err := ix.Store.InsertConversationTree(conv)
	if err != nil {
		return err
	}
	if len(result.MessageIDs) == 0 {
		return nil
	}

	if err := ix.Index.BeginBatch(); err != nil {
		return fmt.Errorf("ftsindex begin batch: %w", err)
	}

	newMessages := conv.Messages[len(conv.Messages)-len(result.MessageIDs):]
	for i, msg := range newMessages {
		var createdAt int64
		if msg.CreatedAt != nil {
			createdAt = *msg.CreatedAt
		}
		err := ix.Index.AddMessage(ftsindex.Message{
			MessageID:      result.MessageIDs[i],
			ConversationID: result.ConversationID,
			AgentSlug:      conv.AgentSlug,
			Workspace:      conv.Workspace,
			Role:           string(msg.Role),
			CreatedAt:      createdAt,
			Title:          conv.Title,
			Content:        msg.Content,
		})
		if err != nil {
			ix.Index.Rollback()
			return fmt.Errorf("ftsindex add message: %w", err)
		}
	}
	return ix.Index.Commit()
}
