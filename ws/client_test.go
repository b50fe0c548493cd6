package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"dm-relay/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConn upgrades a loopback websocket and returns both ends.
func newTestConn(t *testing.T) (server, peer *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	server = <-conns
	t.Cleanup(func() { server.Close() })
	return server, peer
}

func TestEncodePayload_Envelope_Roundtrip(t *testing.T) {
	req := require.New(t)

	// Given
	message := domain.NewMessage("alice", "bob", "hello", "eng", time.Now().UTC())
	payload := domain.MessagePayload{Message: message, Echo: true}

	// When
	frame, err := encodePayload(payload)
	req.NoError(err)

	// Then
	var env envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("message", env.Type)

	var decoded domain.MessagePayload
	req.NoError(json.Unmarshal(env.Data, &decoded))
	req.Equal(message.ID, decoded.Message.ID)
	req.True(decoded.Echo)
}

func TestClient_Push_Reaches_The_Wire(t *testing.T) {
	req := require.New(t)
	server, peer := newTestConn(t)

	client := NewClient(discardLogger(), server, 8, time.Second)
	go client.writePump()
	defer client.shutdown()

	// When
	err := client.Push(context.Background(), domain.TypingPayload{From: "alice", IsTyping: true})
	req.NoError(err)

	// Then the peer receives the typed envelope
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	req.NoError(peer.ReadJSON(&env))
	req.Equal("typing", env.Type)

	var typing domain.TypingPayload
	req.NoError(json.Unmarshal(env.Data, &typing))
	req.Equal("alice", typing.From)
	req.True(typing.IsTyping)
}

func TestClient_Push_Fails_When_Buffer_Stays_Full(t *testing.T) {
	req := require.New(t)
	server, _ := newTestConn(t)

	// Given a client whose write pump is not draining
	client := NewClient(discardLogger(), server, 1, 50*time.Millisecond)
	defer client.shutdown()

	req.NoError(client.Push(context.Background(), domain.TypingPayload{From: "alice"}))

	// When the buffer is already full
	err := client.Push(context.Background(), domain.TypingPayload{From: "alice"})

	// Then the push gives up after the send timeout instead of blocking
	req.Error(err)
	req.Contains(err.Error(), "send buffer full")
}

func TestClient_Push_Fails_After_Shutdown(t *testing.T) {
	req := require.New(t)
	server, _ := newTestConn(t)

	client := NewClient(discardLogger(), server, 8, time.Second)
	client.shutdown()
	client.shutdown() // Idempotent

	err := client.Push(context.Background(), domain.ErrorPayload{Reason: "x"})
	req.ErrorContains(err, "connection closed")
}

func TestClient_Push_Honours_Context_Cancellation(t *testing.T) {
	req := require.New(t)
	server, _ := newTestConn(t)

	client := NewClient(discardLogger(), server, 1, time.Minute)
	defer client.shutdown()
	req.NoError(client.Push(context.Background(), domain.TypingPayload{From: "alice"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Push(ctx, domain.TypingPayload{From: "alice"})
	req.ErrorIs(err, context.Canceled)
}

func TestDispatch_Unknown_Intent_Yields_Error_Frame(t *testing.T) {
	req := require.New(t)
	server, peer := newTestConn(t)

	client := NewClient(discardLogger(), server, 8, time.Second)
	go client.writePump()
	defer client.shutdown()

	h := &Handler{log: discardLogger()}
	h.reject(context.Background(), client, "unknown intent type: dance")

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	req.NoError(peer.ReadJSON(&env))
	req.Equal("error", env.Type)

	var payload domain.ErrorPayload
	req.NoError(json.Unmarshal(env.Data, &payload))
	req.Contains(payload.Reason, "dance")
}
