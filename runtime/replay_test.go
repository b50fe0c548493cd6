package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dm-relay/domain"
)

func TestReplayer_Drain_Pushes_Backlog_Oldest_First(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	alice := relay.addUser(t, "alice@example.com")
	bob := relay.addUser(t, "bob@example.com")

	// Given three messages to Bob created at T1 < T2 < T3 while he was offline
	at := time.Now().UTC()
	for i, body := range []string{"first", "second", "third"} {
		m := domain.NewMessage(alice, bob, body, "en", at.Add(time.Duration(i)*time.Second))
		req.NoError(relay.messages.Save(m))
	}

	// When Bob's new connection is drained
	sink := &fakeSink{}
	req.NoError(relay.replayer.Drain(context.Background(), bob, sink))

	// Then the backlog arrives in creation order, tagged as replay
	replayed := sink.messages()
	req.Len(replayed, 3)
	req.Equal("first", replayed[0].Message.Body)
	req.Equal("second", replayed[1].Message.Body)
	req.Equal("third", replayed[2].Message.Body)
	for _, p := range replayed {
		req.True(p.Replay)
		req.False(p.Echo)
	}
}

func TestReplayer_Drain_Continues_After_Push_Failure(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	alice := relay.addUser(t, "alice@example.com")
	bob := relay.addUser(t, "bob@example.com")

	at := time.Now().UTC()
	for i, body := range []string{"first", "second"} {
		m := domain.NewMessage(alice, bob, body, "en", at.Add(time.Duration(i)*time.Second))
		req.NoError(relay.messages.Save(m))
	}

	// Given the first push fails (connection hiccup)
	sink := &fakeSink{failRemaining: 1}

	// When draining
	req.NoError(relay.replayer.Drain(context.Background(), bob, sink))

	// Then the remainder of the backlog still goes out
	replayed := sink.messages()
	req.Len(replayed, 1)
	req.Equal("second", replayed[0].Message.Body)
}

func TestReplayer_Drain_Does_Not_Touch_Status(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	alice := relay.addUser(t, "alice@example.com")
	bob := relay.addUser(t, "bob@example.com")

	m := domain.NewMessage(alice, bob, "hello", "en", time.Now().UTC())
	req.NoError(relay.messages.Save(m))

	sink := &fakeSink{}
	req.NoError(relay.replayer.Drain(context.Background(), bob, sink))

	// Status only changes on explicit acknowledgement, so the message
	// remains pending until the client acks it.
	pending, err := relay.messages.FindPending(bob)
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal(domain.StatusSent, pending[0].Status)
}
