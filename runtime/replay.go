package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/observability"
	"dm-relay/repositories"
)

// Replayer drains a user's undelivered backlog onto a fresh connection.
// It runs right after Bind and before the connection sees general traffic.
type Replayer struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	monitor  *observability.Monitor
}

func NewReplayer(log *slog.Logger, messages repositories.IMessageRepository,
	monitor *observability.Monitor) *Replayer {
	return &Replayer{log: log, messages: messages, monitor: monitor}
}

// Drain pushes every message addressed to userID that was never read, oldest
// first, tagged as replay so clients don't treat it as live delivery. A failed
// push is logged and skipped, the rest of the backlog still goes out. Statuses
// are not touched here; only an explicit acknowledgement moves them.
func (r *Replayer) Drain(ctx context.Context, userID string, sink contract.ConnectionSink) error {
	pending, err := r.messages.FindPending(userID)
	if err != nil {
		return fmt.Errorf("loading backlog for %s: %w", userID, err)
	}

	for _, message := range pending {
		if err := sink.Push(ctx, domain.MessagePayload{Message: message, Replay: true}); err != nil {
			r.log.Warn("Replay push failed",
				"message_id", message.ID,
				"to", userID,
				"error", err)
			r.monitor.PushDropped()
			continue
		}
		r.monitor.MessageReplayed(message.From, userID)
	}

	if len(pending) > 0 {
		r.log.Info(fmt.Sprintf("Replayed %d pending messages", len(pending)), "user_id", userID)
	}
	return nil
}
