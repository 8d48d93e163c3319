// Package relay turns one inbound chat event into one HTTP response,
// passing through validation, a bounded completion wait and an outbound
// delivery of the reply.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/youmna-rabie/chat-relay/internal/completion"
	"github.com/youmna-rabie/chat-relay/internal/event"
	"github.com/youmna-rabie/chat-relay/internal/notify"
	"github.com/youmna-rabie/chat-relay/internal/types"
)

// State is a step of the relay pipeline.
type State string

const (
	StateReceived           State = "received"
	StateValidating         State = "validating"
	StateAwaitingCompletion State = "awaiting_completion"
	StateNotifying          State = "notifying"
	StateResponded          State = "responded"
)

// Error codes carried in error responses.
const (
	CodeInvalidRequest = "invalid_request"
	CodeTimeout        = "timeout"
	CodeServerError    = "server_error"
)

// ErrorBody is the error object of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the response decided for one inbound request.
type Result struct {
	Status  int
	Message string
	Error   *ErrorBody
	// States lists the pipeline states visited, ending in StateResponded.
	States []State
}

// Body returns the JSON response body.
func (r Result) Body() any {
	if r.Error != nil {
		return map[string]ErrorBody{"error": *r.Error}
	}
	return map[string]string{"message": r.Message}
}

// InvalidRequest builds the response for a request rejected before its
// payload could be validated, such as an unreadable body.
func InvalidRequest(err error) Result {
	return Result{
		Status: http.StatusBadRequest,
		Error:  &ErrorBody{Code: CodeInvalidRequest, Message: err.Error()},
		States: []State{StateReceived, StateValidating, StateResponded},
	}
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the inbound request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Relay orchestrates completion and delivery for inbound chat events.
// It holds no per-request state and is safe for concurrent use.
type Relay struct {
	completion completion.Client
	notifier   notify.Notifier
	logger     *slog.Logger
}

// New creates a Relay.
func New(completionClient completion.Client, notifier notify.Notifier, logger *slog.Logger) *Relay {
	return &Relay{
		completion: completionClient,
		notifier:   notifier,
		logger:     logger,
	}
}

// Handle runs the pipeline for one raw payload. It always returns a Result;
// delivery failures are logged and never change it.
func (r *Relay) Handle(ctx context.Context, payload map[string]any) Result {
	states := []State{StateReceived, StateValidating}
	logger := r.requestLogger(ctx)

	evt, err := event.Parse(payload)
	if err != nil {
		logger.InfoContext(ctx, "rejected inbound event", "error", err)
		res := InvalidRequest(err)
		if errors.Is(err, event.ErrInvalidRequest) {
			res.Error.Message = "message text, chat_id and a CLIENT_MESSAGE event are required"
		}
		return res
	}

	states = append(states, StateAwaitingCompletion)
	start := time.Now()
	out := r.completion.Complete(ctx, evt.Text)
	logger.InfoContext(ctx, "completion finished",
		"chat_id", evt.ChatID,
		"outcome", out.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var res Result
	switch out.Kind {
	case types.OutcomeCompleted:
		states = append(states, StateNotifying)
		r.deliver(ctx, logger, evt, out.Text)
		res = Result{Status: http.StatusOK, Message: out.Text}
	case types.OutcomeTimedOut:
		res = Result{
			Status: http.StatusGatewayTimeout,
			Error:  &ErrorBody{Code: CodeTimeout, Message: "completion provider did not answer in time"},
		}
	default:
		// Unknown kinds count as provider errors; the detail is never empty.
		detail := types.ProviderError(out.Detail).Detail
		logger.ErrorContext(ctx, "completion provider error",
			"chat_id", evt.ChatID,
			"outcome", out.Kind,
			"detail", detail,
		)
		res = Result{
			Status: http.StatusInternalServerError,
			Error:  &ErrorBody{Code: CodeServerError, Message: detail},
		}
	}

	res.States = append(states, StateResponded)
	return res
}

// deliver sends the reply once. The inbound caller going away does not
// abort delivery; the notifier's own timeout bounds it.
func (r *Relay) deliver(ctx context.Context, logger *slog.Logger, evt types.InboundEvent, text string) {
	msg := types.NewOutboundMessage(evt, text)
	if err := r.notifier.Notify(context.WithoutCancel(ctx), msg); err != nil {
		logger.WarnContext(ctx, "reply delivery failed",
			"chat_id", evt.ChatID,
			"delivery_id", msg.DeliveryID,
			"error", err,
		)
		return
	}
	logger.InfoContext(ctx, "reply delivered", "chat_id", evt.ChatID, "delivery_id", msg.DeliveryID)
}

func (r *Relay) requestLogger(ctx context.Context) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return r.logger.With("request_id", id)
	}
	return r.logger
}
