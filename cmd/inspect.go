package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <agent-slug> <external-id>",
	Short: "Print one indexed conversation as JSON",
	Long: `Looks up a single conversation by (agent slug, external id) and
prints it, with its messages, as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentSlug, externalID := args[0], args[1]

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		conv, messages, err := a.store.GetConversation(agentSlug, externalID)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if conv == nil {
			return fmt.Errorf("no conversation found for agent %q external id %q", agentSlug, externalID)
		}

		out := struct {
			Conversation any `json:"conversation"`
			Messages     any `json:"messages"`
		}{Conversation: conv, Messages: messages}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
