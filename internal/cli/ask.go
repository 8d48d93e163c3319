package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

func init() {
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send one prompt to the configured provider and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  ask,
}

func ask(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := buildCompletionClient(cfg, newLogger(cfg.Logging))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := client.Complete(ctx, strings.Join(args, " "))
	switch out.Kind {
	case types.OutcomeCompleted:
		fmt.Fprintln(cmd.OutOrStdout(), out.Text)
		return nil
	case types.OutcomeTimedOut:
		return fmt.Errorf("provider did not answer within %s", cfg.Relay.MaxWait)
	default:
		return fmt.Errorf("provider error: %s", out.Detail)
	}
}
