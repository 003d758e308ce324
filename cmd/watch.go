package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathshala-dev/coding-agent-session-search/internal/indexer"
	"github.com/pathshala-dev/coding-agent-session-search/internal/logging"
	"github.com/pathshala-dev/coding-agent-session-search/internal/uiutil"
	"github.com/pathshala-dev/coding-agent-session-search/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index once, then watch every agent's roots for changes",
	Long: `Runs an incremental index pass, then watches every detected
agent's roots and triggers a debounced, targeted reindex of whichever
connector owns a changed path. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(a.connectors) == 0 {
			uiutil.PrintWarning("no agents configured; nothing to watch")
			return nil
		}

		for p := range a.indexer.Run(ctx, indexer.Incremental) {
			if p.Err != nil {
				uiutil.PrintWarning(fmt.Sprintf("%s: %v", p.Agent, p.Err))
				continue
			}
			uiutil.PrintProgress(p.Agent, p.Done, p.Total)
		}
		a.engine.Notify()

		statePath := filepath.Join(cfg.DataDir, "watch_state.json")
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond

		w, err := watcher.New(a.indexer, a.connectors, statePath, debounce)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}

		uiutil.PrintSuccess(fmt.Sprintf("watching %d agents for changes (ctrl-c to stop)", len(a.connectors)))
		logging.Info("watch: debounce=%s state=%s", debounce, statePath)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
