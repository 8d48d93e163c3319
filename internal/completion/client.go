package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

// providerCallCeiling caps a provider call that outlives its Await deadline.
const providerCallCeiling = 2 * time.Minute

// Client produces a completion outcome for a single prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) types.Outcome
}

// Budget bounds the wait for a completion.
type Budget struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

// Await runs fn on its own goroutine and waits up to maxWait for the outcome.
//
// The context passed to fn is done once the deadline passes so pollers can
// stop, but it never cancels requests already in flight: fn must issue
// provider calls through detach. A result produced after the deadline is
// written to a buffered channel owned by this call and dropped.
func Await(ctx context.Context, maxWait time.Duration, fn func(ctx context.Context) types.Outcome) types.Outcome {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxWait)
	defer cancel()

	result := make(chan types.Outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				result <- types.ProviderError(fmt.Sprintf("completion panicked: %v", rec))
			}
		}()
		result <- fn(waitCtx)
	}()

	select {
	case out := <-result:
		return out
	case <-waitCtx.Done():
		return types.TimedOut()
	case <-ctx.Done():
		return types.TimedOut()
	}
}

// detach derives a context for provider calls that ignores the wait deadline
// but keeps request values and a hard ceiling.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), providerCallCeiling)
}

// replyOrPlaceholder substitutes placeholder for an empty provider reply.
func replyOrPlaceholder(text, placeholder string) string {
	if text == "" {
		return placeholder
	}
	return text
}
