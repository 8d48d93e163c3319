package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds connection settings shared by the OpenAI clients.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func newOpenAI(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(opts...)
}

// OpenAIChatClient answers prompts with a single chat completion call.
type OpenAIChatClient struct {
	client       openai.Client
	model        string
	instructions string
	maxTokens    int64
	budget       Budget
	emptyReply   string
	logger       *slog.Logger
}

// NewOpenAIChatClient creates a direct completion client.
func NewOpenAIChatClient(cfg OpenAIConfig, opts Options) *OpenAIChatClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIChatClient{
		client:       newOpenAI(cfg),
		model:        model,
		instructions: opts.Instructions,
		maxTokens:    int64(opts.MaxTokens),
		budget:       opts.Budget,
		emptyReply:   opts.EmptyReply,
		logger:       opts.Logger,
	}
}

// Complete implements Client.
func (c *OpenAIChatClient) Complete(ctx context.Context, prompt string) types.Outcome {
	return Await(ctx, c.budget.MaxWait, func(waitCtx context.Context) types.Outcome {
		callCtx, cancel := detach(waitCtx)
		defer cancel()

		messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
		if c.instructions != "" {
			messages = append(messages, openai.SystemMessage(c.instructions))
		}
		messages = append(messages, openai.UserMessage(prompt))

		params := openai.ChatCompletionNewParams{
			Model:    c.model,
			Messages: messages,
		}
		if c.maxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(c.maxTokens)
		}

		start := time.Now()
		resp, err := c.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			return types.ProviderError(fmt.Sprintf("openai chat completion: %v", err))
		}

		c.logger.Debug("chat completion finished",
			"model", c.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"choices", len(resp.Choices),
		)

		var text string
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Message.Content
		}
		return types.Completed(replyOrPlaceholder(text, c.emptyReply))
	})
}

// AssistantsAPI implements RunAPI over OpenAI assistant threads and runs.
type AssistantsAPI struct {
	client      openai.Client
	assistantID string
}

// NewAssistantsAPI creates a RunAPI bound to one assistant.
func NewAssistantsAPI(cfg OpenAIConfig, assistantID string) *AssistantsAPI {
	return &AssistantsAPI{
		client:      newOpenAI(cfg),
		assistantID: assistantID,
	}
}

// CreateRun starts a new thread holding prompt and runs the assistant on it.
func (a *AssistantsAPI) CreateRun(ctx context.Context, prompt string) (RunHandle, error) {
	run, err := a.client.Beta.Threads.NewAndRun(ctx, openai.BetaThreadNewAndRunParams{
		AssistantID: a.assistantID,
		Thread: openai.BetaThreadNewAndRunParamsThread{
			Messages: []openai.BetaThreadNewAndRunParamsThreadMessage{{
				Role: "user",
				Content: openai.BetaThreadNewAndRunParamsThreadMessageContentUnion{
					OfString: openai.String(prompt),
				},
			}},
		},
	})
	if err != nil {
		return RunHandle{}, fmt.Errorf("openai create thread and run: %w", err)
	}
	return RunHandle{ThreadID: run.ThreadID, RunID: run.ID}, nil
}

// RunStatus fetches the run and maps its status.
func (a *AssistantsAPI) RunStatus(ctx context.Context, h RunHandle) (RunStatus, error) {
	run, err := a.client.Beta.Threads.Runs.Get(ctx, h.ThreadID, h.RunID)
	if err != nil {
		return RunStatus{}, fmt.Errorf("openai get run: %w", err)
	}

	switch run.Status {
	case openai.RunStatusCompleted:
		return RunStatus{State: RunSucceeded}, nil
	case openai.RunStatusQueued, openai.RunStatusInProgress:
		return RunStatus{State: RunPending}, nil
	}

	detail := fmt.Sprintf("run %s ended with status %s", run.ID, run.Status)
	if run.LastError.Message != "" {
		detail += ": " + run.LastError.Message
	}
	return RunStatus{State: RunFailed, Detail: detail}, nil
}

// RunReply returns the first text fragment of the newest assistant message
// produced by the run.
func (a *AssistantsAPI) RunReply(ctx context.Context, h RunHandle) (string, error) {
	page, err := a.client.Beta.Threads.Messages.List(ctx, h.ThreadID, openai.BetaThreadMessageListParams{
		RunID: openai.String(h.RunID),
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return "", fmt.Errorf("openai list messages: %w", err)
	}

	for _, msg := range page.Data {
		if string(msg.Role) != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}
	return "", nil
}
