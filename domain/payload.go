package domain

// Payload is anything the relay pushes to a live connection.
type Payload interface {
	Kind() string
}

// MessagePayload carries a message to one of the two parties.
// Echo marks the sender-perspective copy, Replay marks offline-replay
// traffic so clients don't treat it as a fresh live delivery.
type MessagePayload struct {
	Message Message `json:"message"`
	Echo    bool    `json:"echo,omitempty"`
	Replay  bool    `json:"replay,omitempty"`
}

func (MessagePayload) Kind() string { return "message" }

// TypingPayload relays a typing indicator to the recipient.
type TypingPayload struct {
	From     string `json:"from"`
	IsTyping bool   `json:"is_typing"`
}

func (TypingPayload) Kind() string { return "typing" }

// ErrorPayload tells a client why its last intent was rejected.
type ErrorPayload struct {
	Reason string `json:"reason"`
}

func (ErrorPayload) Kind() string { return "error" }
