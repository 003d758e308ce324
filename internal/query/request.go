// Package query implements the search client: composing a text
// subquery and term/range filters against the primary full-text index,
// falling back to the relational FTS mirror when the primary index is
// unavailable, grouping hits by conversation, and caching results.
package query

import "github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"

// Filters narrows a search to specific agents, workspaces, and a
// created_at range.
type Filters struct {
	Agents      []string
	Workspaces  []string
	CreatedFrom *int64
	CreatedTo   *int64
}

// Request is one search request.
type Request struct {
	Query     string
	Filters   Filters
	PageSize  int
	Offset    int
	MatchMode ftsindex.MatchMode
}

// normalized returns a copy with defaults applied, used both to execute
// the request and to build its cache key.
func (r Request) normalized() Request {
	if r.PageSize <= 0 {
		r.PageSize = 20
	}
	if r.MatchMode == "" {
		r.MatchMode = ftsindex.Standard
	}
	return r
}
