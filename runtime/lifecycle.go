package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/errors"
)

type connState int

const (
	stateUnregistered connState = iota
	stateRegistered
	stateClosed
)

// Lifecycle tracks one connection through its two-state machine:
// unregistered -> registered on the registration signal, then terminal on
// close. A reconnect is always a new Lifecycle instance; this one never goes
// back to registered. The identity<->connection association lives here and in
// the registry, never on the transport object itself.
type Lifecycle struct {
	log      *slog.Logger
	presence contract.IPresence
	engine   *Engine
	replayer *Replayer

	userID string
	sink   contract.ConnectionSink

	mu    sync.Mutex
	state connState
}

func NewLifecycle(log *slog.Logger, presence contract.IPresence, engine *Engine,
	replayer *Replayer, userID string, sink contract.ConnectionSink) *Lifecycle {
	return &Lifecycle{
		log:      log,
		presence: presence,
		engine:   engine,
		replayer: replayer,
		userID:   userID,
		sink:     sink,
		state:    stateUnregistered,
	}
}

// Register performs the unregistered -> registered transition: bind first,
// then drain the backlog. Bind precedes drain so a message arriving mid-drain
// already finds the user reachable. Replay failures don't fail registration.
func (l *Lifecycle) Register(ctx context.Context) error {
	l.mu.Lock()
	if l.state != stateUnregistered {
		l.mu.Unlock()
		return fmt.Errorf("%w: connection already registered", errors.ErrInvalidCommand)
	}
	l.state = stateRegistered
	l.mu.Unlock()

	l.presence.Bind(l.userID, l.sink)
	l.log.Info("Connection registered", "user_id", l.userID)

	if err := l.replayer.Drain(ctx, l.userID, l.sink); err != nil {
		l.log.Error("Backlog drain failed",
			"user_id", l.userID,
			"error", err)
	}
	return nil
}

// Close is the terminal transition. The compare-and-unbind in the registry
// makes it safe against the reconnect race: if a newer connection already
// re-bound this identity, the stale unbind is a no-op.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	if l.state == stateClosed {
		l.mu.Unlock()
		return
	}
	registered := l.state == stateRegistered
	l.state = stateClosed
	l.mu.Unlock()

	if registered {
		l.presence.Unbind(l.userID, l.sink)
		l.log.Info("Connection closed", "user_id", l.userID)
	}
}

// HandleSend forwards a message intent to the delivery engine.
func (l *Lifecycle) HandleSend(ctx context.Context, to, body string) (domain.Message, error) {
	if !l.registered() {
		return domain.Message{}, errors.ErrSenderNotRegistered
	}
	return l.engine.Send(ctx, domain.SendCommand{
		From: l.userID,
		To:   to,
		Body: body,
	})
}

// HandleStatus forwards an explicit status transition request.
func (l *Lifecycle) HandleStatus(ctx context.Context, messageID string, status domain.Status) (domain.Message, error) {
	if !l.registered() {
		return domain.Message{}, errors.ErrSenderNotRegistered
	}
	return l.engine.UpdateStatus(ctx, domain.StatusCommand{
		MessageID: messageID,
		Status:    status,
	})
}

// HandleTyping relays a typing indicator to the recipient if reachable.
// Best-effort by contract: never queued, never persisted, silently dropped
// when the recipient is offline or the push fails.
func (l *Lifecycle) HandleTyping(ctx context.Context, to string, isTyping bool) {
	if !l.registered() {
		return
	}
	sink, ok := l.presence.Resolve(to)
	if !ok {
		return
	}
	if err := sink.Push(ctx, domain.TypingPayload{From: l.userID, IsTyping: isTyping}); err != nil {
		l.log.Debug("Typing push dropped",
			"from", l.userID,
			"to", to)
	}
}

func (l *Lifecycle) registered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateRegistered
}
