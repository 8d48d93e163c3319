package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youmna-rabie/chat-relay/internal/config"
)

var (
	configPath  string
	envFilePath string
)

var rootCmd = &cobra.Command{
	Use:          "relay",
	Short:        "chat webhook to AI completion relay",
	Long:         "relay answers chat platform webhooks with AI completions and delivers each reply back to the chat.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", ".env", "path to dotenv file (ignored when missing)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFilePath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
