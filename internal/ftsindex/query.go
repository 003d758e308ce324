package ftsindex

import (
	"fmt"
	"strings"
)

// MatchMode selects how the raw query text is turned into an FTS5 MATCH
// expression.
type MatchMode string

const (
	Standard MatchMode = "standard"
	Prefix   MatchMode = "prefix"
	Boolean  MatchMode = "boolean"
)

// sanitizeTerm quotes a single token so FTS5 never trips over operator
// characters inside user input, the same defense
// jalfarocode-engram/internal/store/store.go's sanitizeFTS applies
// before composing a MATCH query.
func sanitizeTerm(term string) string {
	term = strings.Trim(term, `"`)
	term = strings.TrimSpace(term)
	return term
}

// BuildMatchExpr turns free text into an FTS5 MATCH expression for the
// requested mode:
//   - Standard: every term quoted and AND-ed together.
//   - Prefix: every term quoted with a trailing "*" for prefix matching.
//   - Boolean: passed through mostly as-is (the caller already wrote
//     AND/OR/NOT), only individual bareword terms get quoted to avoid
//     FTS5 syntax errors on punctuation.
func BuildMatchExpr(query string, mode MatchMode) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	switch mode {
	case Prefix:
		terms := strings.Fields(query)
		for i, t := range terms {
			terms[i] = fmt.Sprintf(`"%s"*`, sanitizeTerm(t))
		}
		return strings.Join(terms, " ")
	case Boolean:
		return sanitizeBooleanExpr(query)
	default: // Standard
		terms := strings.Fields(query)
		for i, t := range terms {
			terms[i] = fmt.Sprintf(`"%s"`, sanitizeTerm(t))
		}
		return strings.Join(terms, " ")
	}
}

var booleanOperators = map[string]bool{"AND": true, "OR": true, "NOT": true}

// sanitizeBooleanExpr quotes barewords while passing AND/OR/NOT and
// parenthesization through untouched, so a caller can write
// `codex AND (bug OR regression)`.
func sanitizeBooleanExpr(expr string) string {
	tokens := strings.Fields(expr)
	for i, t := range tokens {
		core := strings.TrimLeft(t, "(")
		open := t[:len(t)-len(core)]
		word := strings.TrimRight(core, ")")
		closing := core[len(word):]
		if word == "" || booleanOperators[strings.ToUpper(word)] {
			continue
		}
		tokens[i] = open + fmt.Sprintf(`"%s"`, sanitizeTerm(word)) + closing
	}
	return strings.Join(tokens, " ")
}

// QueryFilters are the term and range filters composed alongside the
// text subquery.
type QueryFilters struct {
	Agents      []string
	Workspaces  []string
	CreatedFrom *int64
	CreatedTo   *int64
}

// Hit is one raw row returned by a primary-index search, before
// conversation grouping.
type Hit struct {
	MessageID      int64
	ConversationID int64
	AgentSlug      string
	Workspace      string
	CreatedAt      int64
	Title          string
	Content        string
	Score          float64
}

// Search runs a weighted text query (title weight 3.0, content weight
// 1.0) plus term/range filters against the primary index, ordered by
// score descending then created_at descending.
func (ix *Index) Search(queryText string, mode MatchMode, filters QueryFilters, limit int) ([]Hit, error) {
	matchExpr := BuildMatchExpr(queryText, mode)
	if matchExpr == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT message_id, conversation_id, agent_slug, workspace, created_at, title, content,
		bm25(messages, 1.0, 3.0, 0, 0, 0, 0) AS score
		FROM messages WHERE messages MATCH ?`)
	args := []any{matchExpr}

	if len(filters.Agents) > 0 {
		sb.WriteString(" AND agent_slug IN (" + placeholders(len(filters.Agents)) + ")")
		for _, a := range filters.Agents {
			args = append(args, a)
		}
	}
	if len(filters.Workspaces) > 0 {
		sb.WriteString(" AND workspace IN (" + placeholders(len(filters.Workspaces)) + ")")
		for _, w := range filters.Workspaces {
			args = append(args, w)
		}
	}
	if filters.CreatedFrom != nil {
		sb.WriteString(" AND created_at >= ?")
		args = append(args, *filters.CreatedFrom)
	}
	if filters.CreatedTo != nil {
		sb.WriteString(" AND created_at <= ?")
		args = append(args, *filters.CreatedTo)
	}
	sb.WriteString(" ORDER BY score ASC, created_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := ix.readDB.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.MessageID, &h.ConversationID, &h.AgentSlug, &h.Workspace, &h.CreatedAt, &h.Title, &h.Content, &h.Score); err != nil {
			return nil, err
		}
		// bm25() returns lower-is-better; invert so callers can treat
		// higher Score as more relevant.
		h.Score = -h.Score
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}
