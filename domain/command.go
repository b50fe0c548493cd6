package domain

import (
	"time"
)

// SendCommand is an outbound message intent from a registered sender.
type SendCommand struct {
	From      string `validate:"required"`
	To        string `validate:"required"`
	Body      string `validate:"required"`
	CreatedAt time.Time
}

// StatusCommand asks for an explicit delivery-status transition,
// typically a read acknowledgement from the recipient's client.
type StatusCommand struct {
	MessageID string `validate:"required,uuid"`
	Status    Status `validate:"required,oneof=sent delivered read"`
}

// TypingCommand is a best-effort typing indicator. Never persisted.
type TypingCommand struct {
	From     string `validate:"required"`
	To       string `validate:"required"`
	IsTyping bool
}
