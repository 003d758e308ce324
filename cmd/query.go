package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/query"
	"github.com/pathshala-dev/coding-agent-session-search/internal/uiutil"
)

var (
	queryAgents     []string
	queryWorkspaces []string
	querySince      string
	queryUntil      string
	queryMode       string
	queryPageSize   int
	queryOffset     int
)

var (
	hitTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	hitMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	hitSnippetStyle = lipgloss.NewStyle().
			Padding(0, 2)
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search indexed sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mode, err := parseMatchMode(queryMode)
		if err != nil {
			return err
		}
		from, err := parseTimeFlag(querySince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		to, err := parseTimeFlag(queryUntil)
		if err != nil {
			return fmt.Errorf("--until: %w", err)
		}

		req := query.Request{
			Query: args[0],
			Filters: query.Filters{
				Agents:      queryAgents,
				Workspaces:  queryWorkspaces,
				CreatedFrom: from,
				CreatedTo:   to,
			},
			PageSize:  queryPageSize,
			Offset:    queryOffset,
			MatchMode: mode,
		}

		resp, err := a.engine.Search(req)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if resp.Fallback {
			uiutil.PrintWarning("full-text index unavailable; served from the relational mirror")
		}
		if len(resp.Hits) == 0 {
			fmt.Println("no matches")
			return nil
		}

		for _, h := range resp.Hits {
			title := h.Title
			if title == "" {
				title = h.AgentSlug + " conversation"
			}
			fmt.Println(hitTitleStyle.Render(title))
			meta := fmt.Sprintf("%s · %s", h.AgentSlug, formatTime(h.CreatedAt))
			if h.Workspace != "" {
				meta += " · " + h.Workspace
			}
			fmt.Println(hitMetaStyle.Render(meta))
			fmt.Println(hitSnippetStyle.Render(h.Snippet))
			fmt.Println()
		}
		fmt.Printf("%d of %d conversations shown\n", len(resp.Hits), resp.Total)
		return nil
	},
}

func parseMatchMode(s string) (ftsindex.MatchMode, error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return ftsindex.Standard, nil
	case "prefix":
		return ftsindex.Prefix, nil
	case "boolean":
		return ftsindex.Boolean, nil
	default:
		return "", fmt.Errorf("unknown --mode %q (want standard, prefix, or boolean)", s)
	}
}

func parseTimeFlag(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("expected RFC3339 timestamp: %w", err)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

func formatTime(ms *int64) string {
	if ms == nil {
		return "unknown time"
	}
	return time.UnixMilli(*ms).Format(time.RFC3339)
}

func init() {
	queryCmd.Flags().StringSliceVar(&queryAgents, "agent", nil, "Restrict to these agent slugs (repeatable)")
	queryCmd.Flags().StringSliceVar(&queryWorkspaces, "workspace", nil, "Restrict to these workspace paths (repeatable)")
	queryCmd.Flags().StringVar(&querySince, "since", "", "Only messages created at or after this RFC3339 timestamp")
	queryCmd.Flags().StringVar(&queryUntil, "until", "", "Only messages created at or before this RFC3339 timestamp")
	queryCmd.Flags().StringVar(&queryMode, "mode", "standard", "Match mode: standard, prefix, or boolean")
	queryCmd.Flags().IntVar(&queryPageSize, "page-size", 20, "Conversations per page")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "Conversations to skip")
	rootCmd.AddCommand(queryCmd)
}
