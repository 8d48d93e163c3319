package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/youmna-rabie/chat-relay/internal/channel"
	"github.com/youmna-rabie/chat-relay/internal/completion"
	"github.com/youmna-rabie/chat-relay/internal/config"
	"github.com/youmna-rabie/chat-relay/internal/notify"
	"github.com/youmna-rabie/chat-relay/internal/prompt"
	"github.com/youmna-rabie/chat-relay/internal/relay"
	"github.com/youmna-rabie/chat-relay/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay HTTP server",
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)

	client, err := buildCompletionClient(cfg, logger)
	if err != nil {
		return err
	}

	if !cfg.Webhook.DeliveryEnabled() {
		logger.Warn("webhook url not set, replies will not be delivered")
	}
	notifier := notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout, logger)

	rl := relay.New(client, notifier, logger)
	srv := server.NewServer(cfg, channel.NewJivoChannel("jivo"), rl, logger)
	httpSrv := srv.HTTPServer()

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", httpSrv.Addr,
			"provider", cfg.Provider.Kind,
			"max_wait", cfg.Relay.MaxWait,
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Relay.MaxWait+cfg.Webhook.Timeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildCompletionClient creates the configured provider client. A prompt
// file, when configured, supplies the system instructions and may pin the
// model.
func buildCompletionClient(cfg *config.Config, logger *slog.Logger) (completion.Client, error) {
	provider := cfg.Provider
	opts := completion.Options{
		Budget: completion.Budget{
			MaxWait:      cfg.Relay.MaxWait,
			PollInterval: cfg.Relay.PollInterval,
		},
		EmptyReply: cfg.Relay.EmptyReply,
		MaxTokens:  provider.MaxTokens,
		Logger:     logger,
	}

	if provider.Instructions != "" {
		p, err := prompt.Load(provider.Instructions)
		if err != nil {
			return nil, fmt.Errorf("loading instructions: %w", err)
		}
		opts.Instructions = p.Text
		if p.Model != "" {
			provider.Model = p.Model
		}
		logger.Info("instructions loaded", "name", p.Name, "path", p.Path, "model", provider.Model)
	}

	client, err := completion.New(provider, opts)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}
	return client, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

