package types

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies an inbound chat platform event.
type EventKind string

const (
	EventKindClientMessage EventKind = "CLIENT_MESSAGE"
	EventKindOther         EventKind = "OTHER"
)

// InboundEvent is a validated chat message received from the chat platform.
// Events reaching a completion client always carry a client-message kind,
// a chat ID and non-empty text.
type InboundEvent struct {
	Kind     EventKind `json:"event"`
	ChatID   string    `json:"chat_id"`
	ClientID string    `json:"client_id"`
	Text     string    `json:"text"`
}

// OutboundMessage is a bot reply addressed to a chat on the chat platform.
type OutboundMessage struct {
	DeliveryID uuid.UUID `json:"id"`
	ChatID     string    `json:"chat_id"`
	ClientID   string    `json:"client_id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

// NewOutboundMessage builds a reply to evt with a fresh delivery ID.
func NewOutboundMessage(evt InboundEvent, text string) OutboundMessage {
	return OutboundMessage{
		DeliveryID: uuid.New(),
		ChatID:     evt.ChatID,
		ClientID:   evt.ClientID,
		Text:       text,
		SentAt:     time.Now(),
	}
}
