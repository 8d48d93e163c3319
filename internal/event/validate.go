package event

import (
	"errors"
	"fmt"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

// ErrInvalidRequest is returned for payloads that cannot be relayed.
var ErrInvalidRequest = errors.New("invalid request")

// Parse extracts an InboundEvent from a raw chat platform payload.
//
// Message text is taken from message.text, then a top-level text field,
// then message itself when it is a string. Any missing text, missing chat_id
// or an event other than CLIENT_MESSAGE yields ErrInvalidRequest.
func Parse(payload map[string]any) (types.InboundEvent, error) {
	evt := types.InboundEvent{
		Kind:     parseKind(payload),
		ChatID:   stringField(payload, "chat_id"),
		ClientID: stringField(payload, "client_id"),
		Text:     messageText(payload),
	}

	switch {
	case evt.Text == "":
		return types.InboundEvent{}, fmt.Errorf("%w: message text is empty", ErrInvalidRequest)
	case evt.ChatID == "":
		return types.InboundEvent{}, fmt.Errorf("%w: chat_id is empty", ErrInvalidRequest)
	case evt.Kind != types.EventKindClientMessage:
		return types.InboundEvent{}, fmt.Errorf("%w: unsupported event", ErrInvalidRequest)
	}
	return evt, nil
}

func parseKind(payload map[string]any) types.EventKind {
	if stringField(payload, "event") == string(types.EventKindClientMessage) {
		return types.EventKindClientMessage
	}
	return types.EventKindOther
}

func messageText(payload map[string]any) string {
	if msg, ok := payload["message"].(map[string]any); ok {
		if text := stringField(msg, "text"); text != "" {
			return text
		}
	}
	if text := stringField(payload, "text"); text != "" {
		return text
	}
	if text, ok := payload["message"].(string); ok {
		return text
	}
	return ""
}

// stringField returns payload[key] when it holds a string, or "".
func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
