// Package cmd wires the cobra command tree: index, watch, query, and
// inspect, sharing persistent --data-dir/--config/--verbose flags.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pathshala-dev/coding-agent-session-search/internal/config"
	"github.com/pathshala-dev/coding-agent-session-search/internal/connector"
	"github.com/pathshala-dev/coding-agent-session-search/internal/ftsindex"
	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/pathresolver"
	"github.com/pathshala-dev/coding-agent-session-search/internal/query"
	"github.com/pathshala-dev/coding-agent-session-search/internal/storage"
)

var (
	verbose    bool
	dataDir    string
	configPath string

	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cass",
	Short: "Search chat sessions across coding assistants",
	Long: `cass indexes chat sessions left on disk by coding assistants
(Codex, Claude Code, Gemini CLI, Cline, OpenCode, Amp, Aider) into a
local database and full-text index, and lets you search across all of
them from one place.

Quick Start:
  cass index                 # scan every detected agent, incrementally
  cass watch                 # index and keep watching for changes
  cass query "fix the bug"   # search indexed sessions
  cass inspect codex 018f... # print one conversation as JSON`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetVerbose(verbose)
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			loaded.DataDir = dataDir
		}
		if home, err := os.UserHomeDir(); err == nil && loaded.DataDir != "" {
			loaded.DataDir = expandHome(loaded.DataDir, home)
		}
		cfg = loaded
		return nil
	},
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) >= 2 && path[:2] == "~/" {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory (default: config file's data_dir, or ~/.cass)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// app bundles the storage, full-text index, and connector set every
// subcommand needs, closed together over cobra's RunE lifetime.
type app struct {
	store      *storage.Store
	index      *ftsindex.Index
	engine     *query.Engine
	indexer    *indexer.Indexer
	connectors []connector.Connector
}

func openApp() (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	st, err := storage.Open(filepath.Join(cfg.DataDir, "cass.db"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ix, err := ftsindex.Open(cfg.DataDir, st.DB())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open full-text index: %w", err)
	}

	resolver, err := pathresolver.New()
	if err != nil {
		st.Close()
		ix.Close()
		return nil, fmt.Errorf("resolve agent paths: %w", err)
	}

	cwd, _ := os.Getwd()
	connectors := connector.Build(resolver, cfg.Agents, cwd)

	return &app{
		store:      st,
		index:      ix,
		engine:     query.NewEngine(ix, st),
		indexer:    indexer.New(st, ix, connectors),
		connectors: connectors,
	}, nil
}

func (a *app) Close() {
	a.index.Close()
	a.store.Close()
}
