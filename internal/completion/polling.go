package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

// RunState is the provider-reported state of an asynchronous run, reduced to
// what the poller acts on.
type RunState string

const (
	RunPending   RunState = "pending"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// RunHandle identifies a provider-side run.
type RunHandle struct {
	ThreadID string
	RunID    string
}

// RunStatus is one poll observation.
type RunStatus struct {
	State  RunState
	Detail string
}

// RunAPI is a create-then-poll completion provider.
type RunAPI interface {
	CreateRun(ctx context.Context, prompt string) (RunHandle, error)
	RunStatus(ctx context.Context, h RunHandle) (RunStatus, error)
	// RunReply returns the first text fragment produced by the run, or "".
	RunReply(ctx context.Context, h RunHandle) (string, error)
}

// PollingClient creates a run and polls it at a fixed interval until it
// completes, fails, or the budget runs out. Runs left behind on timeout are
// not cancelled.
type PollingClient struct {
	api        RunAPI
	budget     Budget
	emptyReply string
	logger     *slog.Logger
}

// NewPollingClient creates a PollingClient over api.
func NewPollingClient(api RunAPI, budget Budget, emptyReply string, logger *slog.Logger) *PollingClient {
	return &PollingClient{
		api:        api,
		budget:     budget,
		emptyReply: emptyReply,
		logger:     logger,
	}
}

// Complete implements Client.
func (p *PollingClient) Complete(ctx context.Context, prompt string) types.Outcome {
	return Await(ctx, p.budget.MaxWait, func(waitCtx context.Context) types.Outcome {
		return p.poll(waitCtx, prompt)
	})
}

func (p *PollingClient) poll(waitCtx context.Context, prompt string) types.Outcome {
	callCtx, cancel := detach(waitCtx)
	defer cancel()

	h, err := p.api.CreateRun(callCtx, prompt)
	if err != nil {
		return types.ProviderError(fmt.Sprintf("creating run: %v", err))
	}
	p.logger.Debug("run created", "thread_id", h.ThreadID, "run_id", h.RunID)

	for polls := 1; ; polls++ {
		st, err := p.api.RunStatus(callCtx, h)
		if err != nil {
			return types.ProviderError(fmt.Sprintf("polling run %s: %v", h.RunID, err))
		}

		switch st.State {
		case RunSucceeded:
			text, err := p.api.RunReply(callCtx, h)
			if err != nil {
				return types.ProviderError(fmt.Sprintf("reading run %s reply: %v", h.RunID, err))
			}
			p.logger.Debug("run completed", "run_id", h.RunID, "polls", polls)
			return types.Completed(replyOrPlaceholder(text, p.emptyReply))
		case RunPending:
		default:
			return types.ProviderError(st.Detail)
		}

		// Nobody reads the result once the deadline has passed, so stop polling.
		select {
		case <-waitCtx.Done():
			p.logger.Debug("run abandoned", "run_id", h.RunID, "polls", polls)
			return types.TimedOut()
		case <-time.After(p.budget.PollInterval):
		}
	}
}
