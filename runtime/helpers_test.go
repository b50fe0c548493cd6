package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"dm-relay/domain"
	"dm-relay/moderation"
	"dm-relay/observability"
	"dm-relay/repositories"
)

// fakeSink records every payload pushed to it. failRemaining > 0 makes the
// next pushes fail, simulating a connection closing mid-push.
type fakeSink struct {
	mu            sync.Mutex
	payloads      []domain.Payload
	failRemaining int
}

func (s *fakeSink) Push(_ context.Context, p domain.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRemaining > 0 {
		s.failRemaining--
		return fmt.Errorf("connection closed")
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func (s *fakeSink) pushed() []domain.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Payload, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func (s *fakeSink) messages() []domain.MessagePayload {
	var out []domain.MessagePayload
	for _, p := range s.pushed() {
		if mp, ok := p.(domain.MessagePayload); ok {
			out = append(out, mp)
		}
	}
	return out
}

type testRelay struct {
	registry *Registry
	engine   *Engine
	replayer *Replayer
	messages repositories.MessageRepository
	users    repositories.IUserRepository
	monitor  *observability.Monitor
}

// newTestRelay wires a full in-memory core: real badger repositories, real
// registry, a tiny censor dictionary, no transport.
func newTestRelay(t *testing.T) *testRelay {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	require.NoError(t, err)

	registry := NewRegistry()
	monitor := observability.NewMonitor()
	messages := repositories.NewMessageRepository(db, log, nil)
	users := repositories.NewUserRepository(db)
	engine := NewEngine(log, registry, messages, users, &moderator, monitor, 500)
	replayer := NewReplayer(log, messages, monitor)

	return &testRelay{
		registry: registry,
		engine:   engine,
		replayer: replayer,
		messages: messages,
		users:    users,
		monitor:  monitor,
	}
}

// addUser registers an account and returns its identity.
func (r *testRelay) addUser(t *testing.T, email string) string {
	t.Helper()
	id, err := r.users.CreateUser(email, "hash")
	require.NoError(t, err)
	return id
}

// connect binds a fresh fake connection for userID.
func (r *testRelay) connect(userID string) *fakeSink {
	sink := &fakeSink{}
	r.registry.Bind(userID, sink)
	return sink
}
