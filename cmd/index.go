package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/uiutil"
)

var fullReindex bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan every detected agent and index its sessions",
	Long: `Scans the roots of every configured agent connector, writing new
or changed conversations through storage and mirroring them into the
full-text index. Runs incrementally by default, using each connector's
persisted max source mtime; --full truncates the full-text index and
rescans every connector from scratch, re-upserting into storage (which
is append-only and never truncated).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(a.connectors) == 0 {
			uiutil.PrintWarning("no agents configured; nothing to index")
			return nil
		}

		mode := indexer.Incremental
		if fullReindex {
			mode = indexer.Full
		}

		var firstErr error
		for p := range a.indexer.Run(ctx, mode) {
			if p.Err != nil {
				uiutil.PrintWarning(fmt.Sprintf("%s: %v", p.Agent, p.Err))
				if firstErr == nil {
					firstErr = p.Err
				}
				continue
			}
			uiutil.PrintProgress(p.Agent, p.Done, p.Total)
		}
		a.engine.Notify()

		uiutil.PrintSuccess(fmt.Sprintf("index complete (%d agents scanned)", len(a.connectors)))
		return firstErr
	},
}

func init() {
	indexCmd.Flags().BoolVar(&fullReindex, "full", false, "Truncate the full-text index and rescan every connector from scratch, re-upserting into storage")
	rootCmd.AddCommand(indexCmd)
}
