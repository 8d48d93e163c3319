package completion

import (
	"fmt"
	"log/slog"

	"github.com/youmna-rabie/chat-relay/internal/config"
)

// Options carries settings shared by every completion client.
type Options struct {
	Budget       Budget
	EmptyReply   string
	Instructions string
	MaxTokens    int
	Logger       *slog.Logger
}

// New builds the Client selected by cfg.Kind.
func New(cfg config.ProviderConfig, opts Options) (Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch cfg.Kind {
	case config.ProviderOpenAI:
		return NewOpenAIChatClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, opts), nil
	case config.ProviderOpenAIAssistant:
		api := NewAssistantsAPI(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		}, cfg.AssistantID)
		return NewPollingClient(api, opts.Budget, opts.EmptyReply, opts.Logger), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, opts), nil
	case config.ProviderEcho:
		return &EchoClient{Logger: opts.Logger}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Kind)
	}
}
