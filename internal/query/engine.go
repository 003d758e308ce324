package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/storage"
)

// Engine executes Requests against the primary full-text index,
// falling back to the relational FTS mirror, grouping by conversation,
// and caching results.
type Engine struct {
	index *ftsindex.Index
	store *storage.Store
	cache *resultCache
}

// NewEngine builds an Engine. index may be nil (e.g. failed to open),
// in which case every query falls back to the relational mirror.
func NewEngine(index *ftsindex.Index, store *storage.Store) *Engine {
	return &Engine{index: index, store: store, cache: newResultCache(256)}
}

// Notify invalidates the result cache; call after any storage or
// full-text index commit.
func (e *Engine) Notify() {
	e.cache.invalidate()
}

// Search executes req, returning grouped, ranked hits.
func (e *Engine) Search(req Request) (Response, error) {
	req = req.normalized()
	key := cacheKey(req)
	if cached, ok := e.cache.get(key); ok {
		cached.FromCache = true
		return cached, nil
	}

	resp, err := e.search(req)
	if err != nil {
		return Response{}, err
	}
	e.cache.put(key, resp)
	return resp, nil
}

func (e *Engine) search(req Request) (Response, error) {
	filters := ftsindex.QueryFilters{
		Agents:      req.Filters.Agents,
		Workspaces:  req.Filters.Workspaces,
		CreatedFrom: req.Filters.CreatedFrom,
		CreatedTo:   req.Filters.CreatedTo,
	}

	if e.index != nil && e.index.SchemaOK() {
		hits, err := e.index.Search(req.Query, req.MatchMode, filters, rawFetchLimit(req))
		if err == nil {
			if req.MatchMode == ftsindex.Prefix && len(hits) == 0 {
				if expanded, ok := wildcardExpand(req.Query); ok {
					hits, err = e.index.Search(expanded, ftsindex.Boolean, filters, rawFetchLimit(req))
				}
			}
			if err == nil {
				return e.paginate(toQueryHits(hits, req.Query), req, false), nil
			}
		}
	}

	// Fallback to the relational fts_messages mirror, transparently
	// reported via Response.Fallback.
	hits, err := e.searchMirror(req, filters)
	if err != nil {
		return Response{}, fmt.Errorf("query: mirror fallback: %w", err)
	}
	return e.paginate(hits, req, true), nil
}

func rawFetchLimit(req Request) int {
	// Over-fetch raw hits before conversation grouping, since several
	// messages in one conversation may each match.
	return (req.Offset + req.PageSize) * 5
}

func toQueryHits(hits []ftsindex.Hit, queryText string) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		ts := h.CreatedAt
		out = append(out, Hit{
			ConversationID: h.ConversationID,
			MessageID:      h.MessageID,
			AgentSlug:      h.AgentSlug,
			Workspace:      h.Workspace,
			Title:          h.Title,
			Snippet:        buildSnippet(h.Content, queryText),
			Score:          h.Score,
			CreatedAt:      &ts,
			SourcePath:     "",
		})
	}
	return out
}

// searchMirror queries storage's fts_messages virtual table directly,
// used when the primary index cannot be opened or its schema hash
// mismatches.
func (e *Engine) searchMirror(req Request, filters ftsindex.QueryFilters) ([]Hit, error) {
	matchExpr := ftsindex.BuildMatchExpr(req.Query, req.MatchMode)
	if matchExpr == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT fts.message_id, fts.conversation_id, fts.agent_slug, fts.workspace, fts.created_at, COALESCE(fts.title, ''), fts.content,
		c.source_path, bm25(fts_messages, 1.0, 3.0, 0, 0, 0, 0) AS score
		FROM fts_messages fts
		JOIN conversations c ON c.id = fts.conversation_id
		WHERE fts_messages MATCH ?`)
	args := []any{matchExpr}

	if len(filters.Agents) > 0 {
		sb.WriteString(" AND fts.agent_slug IN (" + placeholdersN(len(filters.Agents)) + ")")
		for _, a := range filters.Agents {
			args = append(args, a)
		}
	}
	if len(filters.Workspaces) > 0 {
		sb.WriteString(" AND fts.workspace IN (" + placeholdersN(len(filters.Workspaces)) + ")")
		for _, w := range filters.Workspaces {
			args = append(args, w)
		}
	}
	if filters.CreatedFrom != nil {
		sb.WriteString(" AND fts.created_at >= ?")
		args = append(args, *filters.CreatedFrom)
	}
	if filters.CreatedTo != nil {
		sb.WriteString(" AND fts.created_at <= ?")
		args = append(args, *filters.CreatedTo)
	}
	sb.WriteString(" ORDER BY score ASC, fts.created_at DESC LIMIT ?")
	args = append(args, (req.Offset+req.PageSize)*5)

	rows, err := e.store.DB().Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var createdAt int64
		var sourcePath string
		var content string
		if err := rows.Scan(&h.MessageID, &h.ConversationID, &h.AgentSlug, &h.Workspace, &createdAt, &h.Title, &content, &sourcePath, &h.Score); err != nil {
			return nil, err
		}
		h.Score = -h.Score
		h.CreatedAt = &createdAt
		h.SourcePath = sourcePath
		h.Snippet = buildSnippet(content, req.Query)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func placeholdersN(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

// paginate groups raw hits by conversation (best-scoring message wins),
// sorts by score desc then created_at desc, and applies page_size/offset
// over the conversation groups.
func (e *Engine) paginate(hits []Hit, req Request, fallback bool) Response {
	best := map[int64]Hit{}
	for _, h := range hits {
		cur, ok := best[h.ConversationID]
		if !ok || h.Score > cur.Score {
			best[h.ConversationID] = h
		}
	}
	grouped := make([]Hit, 0, len(best))
	for _, h := range best {
		grouped = append(grouped, h)
	}
	sort.Slice(grouped, func(i, j int) bool {
		if grouped[i].Score != grouped[j].Score {
			return grouped[i].Score > grouped[j].Score
		}
		ti, tj := grouped[i].CreatedAt, grouped[j].CreatedAt
		if ti == nil || tj == nil {
			return false
		}
		return *ti > *tj
	})

	total := len(grouped)
	start := req.Offset
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}
	return Response{Hits: grouped[start:end], Total: total, Fallback: fallback}
}

// buildSnippet extracts a window of content around the first matched
// term and brackets every occurrence of a query term, case-insensitive.
func buildSnippet(content, queryText string) string {
	const window = 160
	terms := strings.Fields(strings.ToLower(queryText))
	lower := strings.ToLower(content)

	pos := -1
	for _, t := range terms {
		t = strings.Trim(t, `"*`)
		if t == "" {
			continue
		}
		if i := strings.Index(lower, t); i >= 0 && (pos == -1 || i < pos) {
			pos = i
		}
	}
	start := 0
	if pos > window/2 {
		start = pos - window/2
	}
	end := start + window
	if end > len(content) {
		end = len(content)
	}
	if start > len(content) {
		start = 0
		end = len(content)
		if end > window {
			end = window
		}
	}
	snippet := content[start:end]
	for _, t := range terms {
		t = strings.Trim(t, `"*`)
		if t == "" {
			continue
		}
		snippet = highlightTerm(snippet, t)
	}
	return snippet
}

func highlightTerm(text, term string) string {
	lower := strings.ToLower(text)
	termLower := strings.ToLower(term)
	var sb strings.Builder
	i := 0
	for {
		idx := strings.Index(lower[i:], termLower)
		if idx < 0 {
			sb.WriteString(text[i:])
			break
		}
		start := i + idx
		sb.WriteString(text[i:start])
		sb.WriteString("**")
		sb.WriteString(text[start : start+len(term)])
		sb.WriteString("**")
		i = start + len(term)
	}
	return sb.String()
}

// wildcardExpand builds a bounded OR-of-wildcards fallback query for
// Prefix mode zero-match recovery.
func wildcardExpand(queryText string) (string, bool) {
	terms := strings.Fields(queryText)
	if len(terms) == 0 {
		return "", false
	}
	const maxTerms = 5
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Trim(t, `"*`)
		if t == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`"%s"*`, t))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " OR "), true
}
