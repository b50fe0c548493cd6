// Package runtime hosts the presence-and-delivery core: the connection
// registry, the delivery engine, offline replay, and the per-connection
// lifecycle. It orchestrates delivery without owning transport or storage.
package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/errors"
	"dm-relay/moderation"
	"dm-relay/observability"
	"dm-relay/repositories"
)

// Engine accepts outbound message intents, persists them, and delivers them
// to whichever parties are reachable. Persistence always precedes delivery:
// a message that cannot be saved is never pushed anywhere.
type Engine struct {
	log           *slog.Logger
	presence      contract.IPresence
	messages      repositories.IMessageRepository
	users         repositories.IUserRepository
	moderator     *moderation.Moderator
	monitor       *observability.Monitor
	validate      *validator.Validate
	maxBodyLength int
}

func NewEngine(log *slog.Logger, presence contract.IPresence,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	moderator *moderation.Moderator, monitor *observability.Monitor,
	maxBodyLength int) *Engine {
	return &Engine{
		log:           log,
		presence:      presence,
		messages:      messages,
		users:         users,
		moderator:     moderator,
		monitor:       monitor,
		validate:      validator.New(),
		maxBodyLength: maxBodyLength,
	}
}

// Send processes one outbound message intent end to end:
//  1. Validate the command (body, registered sender, known recipient).
//  2. Persist with status sent. A store failure aborts the send.
//  3. If the recipient is reachable, persist the delivered transition and
//     push. A failed push after a persisted transition is NOT rolled back:
//     the message stays delivered-but-unconfirmed, by design best-effort.
//  4. Echo the final state back to the sender, flagged as sender-perspective.
//
// Per-sender ordering holds because each connection feeds intents to Send
// sequentially; Send itself never reorders.
func (e *Engine) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}

	body := strings.TrimSpace(cmd.Body)
	if body == "" {
		return domain.Message{}, errors.ErrEmptyBody
	}
	if e.maxBodyLength > 0 && len([]rune(body)) > e.maxBodyLength {
		return domain.Message{}, fmt.Errorf("%w: %d runes", errors.ErrBodyTooLong, len([]rune(body)))
	}

	senderSink, ok := e.presence.Resolve(cmd.From)
	if !ok {
		return domain.Message{}, errors.ErrSenderNotRegistered
	}

	known, err := e.users.Exists(cmd.To)
	if err != nil {
		return domain.Message{}, fmt.Errorf("resolving recipient %s: %w", cmd.To, err)
	}
	if !known {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrUnknownRecipient, cmd.To)
	}

	if e.moderator != nil {
		sanitized, foundWords := e.moderator.Censor(body)
		if len(foundWords) > 0 {
			e.log.Warn("Censored message content",
				"from", cmd.From,
				"words", len(foundWords))
		}
		body = sanitized
	}

	createdAt := cmd.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	lang := whatlanggo.Detect(body).Lang.Iso6391()
	message := domain.NewMessage(cmd.From, cmd.To, body, lang, createdAt)

	if err := e.messages.Save(message); err != nil {
		return domain.Message{}, fmt.Errorf("saving message: %w", err)
	}
	e.monitor.MessageSent(message.From, message.To)

	if recipientSink, online := e.presence.Resolve(cmd.To); online {
		updated, err := e.messages.UpdateStatus(message.ID, domain.StatusDelivered)
		if err != nil {
			return message, fmt.Errorf("marking message %s delivered: %w", message.ID, err)
		}
		message = updated

		if err := recipientSink.Push(ctx, domain.MessagePayload{Message: message}); err != nil {
			// The transition already happened and stays: delivered-but-unconfirmed.
			e.log.Warn("Push to recipient failed",
				"message_id", message.ID,
				"to", message.To,
				"error", err)
			e.monitor.PushDropped()
		} else {
			e.monitor.MessageDelivered(message.From, message.To)
		}
	}

	if err := senderSink.Push(ctx, domain.MessagePayload{Message: message, Echo: true}); err != nil {
		e.log.Warn("Echo push to sender failed",
			"message_id", message.ID,
			"from", message.From,
			"error", err)
		e.monitor.PushDropped()
	}

	return message, nil
}

// UpdateStatus applies an explicit transition request, typically a read
// acknowledgement. Backward moves are logged and surfaced as
// ErrInvalidTransition with the record untouched. Status changes are not
// fanned out to the other party; status sync stays caller-driven.
func (e *Engine) UpdateStatus(_ context.Context, cmd domain.StatusCommand) (domain.Message, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}

	messageID, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}

	updated, err := e.messages.UpdateStatus(messageID, cmd.Status)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidTransition) {
			e.log.Warn("Rejected backward status move",
				"message_id", cmd.MessageID,
				"requested", cmd.Status)
		}
		return domain.Message{}, err
	}

	if updated.Status == domain.StatusRead {
		e.monitor.ReadAcknowledged()
	}
	return updated, nil
}
