package completion

import (
	"context"
	"log/slog"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

// EchoClient is a Client that answers every prompt with the prompt itself.
// Useful for local development and wiring checks.
type EchoClient struct {
	Logger *slog.Logger
}

// Complete logs the prompt and echoes it back.
func (e *EchoClient) Complete(_ context.Context, prompt string) types.Outcome {
	e.Logger.Info("echo completion", "prompt_len", len(prompt))
	return types.Completed("Echo: " + prompt)
}
