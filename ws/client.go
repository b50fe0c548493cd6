package ws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dm-relay/domain"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// Client adapts one websocket connection into a ConnectionSink. Outbound
// payloads go through a buffered channel consumed by the single write pump,
// so the connection is never written from two goroutines.
type Client struct {
	log  *slog.Logger
	conn *websocket.Conn

	send        chan []byte
	sendTimeout time.Duration

	// done closes exactly once when the connection is going away. Push uses
	// it instead of a closed send channel, which would panic the sender.
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(log *slog.Logger, conn *websocket.Conn, bufferSize int, sendTimeout time.Duration) *Client {
	return &Client{
		log:         log,
		conn:        conn,
		send:        make(chan []byte, bufferSize),
		sendTimeout: sendTimeout,
		done:        make(chan struct{}),
	}
}

// Push queues an outbound payload for the write pump. It fails instead of
// blocking forever when the connection is gone or the buffer stays full past
// the send timeout; callers decide whether that is fatal.
func (c *Client) Push(ctx context.Context, p domain.Payload) error {
	frame, err := encodePayload(p)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return fmt.Errorf("connection closed")
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.sendTimeout):
		return fmt.Errorf("send buffer full for %s", c.sendTimeout)
	}
}

// shutdown marks the client as gone. Idempotent; safe from any goroutine.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings. One per connection; owns all writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump reads frames until the connection dies and hands each intent to
// the dispatch callback. Blocks; run it on the request goroutine.
func (c *Client) readPump(dispatch func(envelope)) {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Websocket closed unexpectedly", "error", err)
			}
			return
		}
		dispatch(env)
	}
}
