package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

const (
	defaultAnthropicModel     = string(anthropic.ModelClaudeSonnet4_5)
	defaultAnthropicMaxTokens = 1024
)

// AnthropicConfig holds Anthropic connection settings.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicClient answers prompts with a single Messages API call.
type AnthropicClient struct {
	client       anthropic.Client
	model        string
	instructions string
	maxTokens    int64
	budget       Budget
	emptyReply   string
	logger       *slog.Logger
}

// NewAnthropicClient creates a direct completion client.
func NewAnthropicClient(cfg AnthropicConfig, opts Options) *AnthropicClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:       anthropic.NewClient(reqOpts...),
		model:        model,
		instructions: opts.Instructions,
		maxTokens:    maxTokens,
		budget:       opts.Budget,
		emptyReply:   opts.EmptyReply,
		logger:       opts.Logger,
	}
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) types.Outcome {
	return Await(ctx, c.budget.MaxWait, func(waitCtx context.Context) types.Outcome {
		callCtx, cancel := detach(waitCtx)
		defer cancel()

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		if c.instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: c.instructions}}
		}

		start := time.Now()
		resp, err := c.client.Messages.New(callCtx, params)
		if err != nil {
			return types.ProviderError(fmt.Sprintf("anthropic messages: %v", err))
		}

		c.logger.Debug("anthropic message finished",
			"model", c.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"stop_reason", resp.StopReason,
		)

		var text string
		for _, block := range resp.Content {
			if block.Type == "text" && block.Text != "" {
				text = block.Text
				break
			}
		}
		return types.Completed(replyOrPlaceholder(text, c.emptyReply))
	})
}
