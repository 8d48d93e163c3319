package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

const (
	eventBotMessage = "BOT_MESSAGE"
	messageTypeText = "TEXT"
)

// ErrDeliveryFailure wraps every failed webhook delivery.
var ErrDeliveryFailure = errors.New("delivery failure")

// Notifier delivers bot replies to the chat platform.
type Notifier interface {
	Notify(ctx context.Context, msg types.OutboundMessage) error
}

// WebhookNotifier posts replies to the chat platform's bot webhook. Each
// call makes exactly one attempt; there is no retry.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier. An empty url disables
// delivery: Notify then returns nil without sending anything.
func NewWebhookNotifier(url string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// botMessage is the wire format expected by the chat platform.
type botMessage struct {
	ID       string         `json:"id"`
	Event    string         `json:"event"`
	ClientID string         `json:"client_id"`
	ChatID   string         `json:"chat_id"`
	Message  messagePayload `json:"message"`
}

type messagePayload struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

func newBotMessage(msg types.OutboundMessage) botMessage {
	id := msg.DeliveryID
	if id == uuid.Nil {
		id = uuid.New()
	}
	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	return botMessage{
		ID:       id.String(),
		Event:    eventBotMessage,
		ClientID: msg.ClientID,
		ChatID:   msg.ChatID,
		Message: messagePayload{
			Type:      messageTypeText,
			Text:      msg.Text,
			Timestamp: sentAt.Unix(),
		},
	}
}

// Notify sends msg to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg types.OutboundMessage) error {
	if n.url == "" {
		n.logger.Debug("webhook delivery disabled", "chat_id", msg.ChatID)
		return nil
	}

	body, err := json.Marshal(newBotMessage(msg))
	if err != nil {
		return fmt.Errorf("%w: encoding message: %w", ErrDeliveryFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrDeliveryFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting to webhook: %w", ErrDeliveryFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: webhook returned status %d", ErrDeliveryFailure, resp.StatusCode)
	}

	n.logger.Debug("webhook delivered",
		"chat_id", msg.ChatID,
		"delivery_id", msg.DeliveryID,
		"status", resp.StatusCode,
	)
	return nil
}
