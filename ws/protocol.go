package ws

import (
	"encoding/json"
	"fmt"

	"dm-relay/domain"
)

// envelope is the wire frame in both directions: a type discriminator plus a
// type-specific body. Inbound types are the client intents below; outbound
// types are the domain.Payload kinds.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	intentSend   = "send"
	intentStatus = "status"
	intentTyping = "typing"
)

type sendIntent struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type statusIntent struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type typingIntent struct {
	To       string `json:"to"`
	IsTyping bool   `json:"is_typing"`
}

// encodePayload wraps an outbound payload into its wire envelope.
func encodePayload(p domain.Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return json.Marshal(envelope{Type: p.Kind(), Data: data})
}
