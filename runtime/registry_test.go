package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Bind_And_Resolve(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sink := &fakeSink{}

	// Given no user is connected
	req.Empty(registry.Online())
	_, ok := registry.Resolve(userID)
	req.False(ok)

	// When a user binds a connection
	registry.Bind(userID, sink)

	// Then the registry resolves it
	resolved, ok := registry.Resolve(userID)
	req.True(ok)
	req.Same(sink, resolved.(*fakeSink))
	req.Equal([]string{userID}, registry.Online())
}

func TestRegistry_Bind_Supersedes_Previous_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	first := &fakeSink{}
	second := &fakeSink{}

	// Given a bound connection
	registry.Bind(userID, first)

	// When the same identity binds again
	registry.Bind(userID, second)

	// Then only the newer handle is live
	resolved, ok := registry.Resolve(userID)
	req.True(ok)
	req.Same(second, resolved.(*fakeSink))
	req.Len(registry.Online(), 1)
}

func TestRegistry_Unbind_Compare_And_Unbind(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	stale := &fakeSink{}
	fresh := &fakeSink{}

	// Given a reconnect happened before the old connection's disconnect landed
	registry.Bind(userID, stale)
	registry.Bind(userID, fresh)

	// When the stale disconnect finally arrives
	registry.Unbind(userID, stale)

	// Then the fresh connection is still bound
	resolved, ok := registry.Resolve(userID)
	req.True(ok)
	req.Same(fresh, resolved.(*fakeSink))
}

func TestRegistry_Unbind_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sink := &fakeSink{}

	registry.Bind(userID, sink)
	registry.Unbind(userID, sink)

	// A second unbind with the now-stale handle has no additional effect
	registry.Unbind(userID, sink)

	_, ok := registry.Resolve(userID)
	req.False(ok)
	req.Empty(registry.Online())
}

func TestRegistry_Entries_Are_Independent_Across_Users(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := uuid.NewString()
	bob := uuid.NewString()
	aliceSink := &fakeSink{}
	bobSink := &fakeSink{}

	registry.Bind(alice, aliceSink)
	registry.Bind(bob, bobSink)
	registry.Unbind(alice, aliceSink)

	_, ok := registry.Resolve(alice)
	req.False(ok)
	resolved, ok := registry.Resolve(bob)
	req.True(ok)
	req.Same(bobSink, resolved.(*fakeSink))
}
