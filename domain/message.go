// Package domain contains core concepts of the relay.
// Messages carry a delivery status that only ever moves forward.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the delivery lifecycle stage of a message.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Valid reports whether s is one of the known delivery stages.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next respects the monotone
// order sent < delivered < read. Staying in place is not an advance.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// Message is a single direct message between two users.
// Seen is redundant with Status == read and is kept consistent by Advance.
type Message struct {
	ID        uuid.UUID `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Lang      string    `json:"lang,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
	Seen      bool      `json:"seen"`
}

// NewMessage builds a freshly sent message.
func NewMessage(from, to, body, lang string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Body:      body,
		Lang:      lang,
		CreatedAt: at,
		Status:    StatusSent,
	}
}

// Advance moves the message to next, refusing backward moves,
// and keeps the Seen flag in sync with the read status.
func (m *Message) Advance(next Status) bool {
	if !m.Status.CanAdvanceTo(next) {
		return false
	}
	m.Status = next
	m.Seen = next == StatusRead
	return true
}
