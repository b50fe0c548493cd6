package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"dm-relay/auth"
	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/runtime"
)

// Handler upgrades authenticated HTTP requests into relay connections and
// bridges wire intents to the connection lifecycle.
type Handler struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	tokens   *auth.TokenManager
	presence contract.IPresence
	engine   *runtime.Engine
	replayer *runtime.Replayer

	bufferSize  int
	sendTimeout time.Duration
}

func NewHandler(log *slog.Logger, tokens *auth.TokenManager, presence contract.IPresence,
	engine *runtime.Engine, replayer *runtime.Replayer, bufferSize int, sendTimeout time.Duration) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		tokens:      tokens,
		presence:    presence,
		engine:      engine,
		replayer:    replayer,
		bufferSize:  bufferSize,
		sendTimeout: sendTimeout,
	}
}

// ServeWS authenticates, upgrades and runs one relay connection. The write
// pump starts before registration so the backlog drain has a live consumer,
// and registration completes before the read pump so replayed messages
// precede anything the peer sends next.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authenticate(r)
	if err != nil {
		h.log.Warn("Websocket auth rejected", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.log, conn, h.bufferSize, h.sendTimeout)
	lifecycle := runtime.NewLifecycle(h.log, h.presence, h.engine, h.replayer, claims.UserID, client)

	go client.writePump()

	ctx := r.Context()
	if err := lifecycle.Register(ctx); err != nil {
		h.log.Error("Connection registration failed", "user_id", claims.UserID, "error", err)
		client.shutdown()
		return
	}
	defer lifecycle.Close()

	client.readPump(func(env envelope) {
		h.dispatch(ctx, lifecycle, client, env)
	})
}

// authenticate accepts the token either as a query parameter (browser
// websocket clients cannot set headers) or as a bearer header.
func (h *Handler) authenticate(r *http.Request) (*auth.CustomClaims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return h.tokens.Validate(token)
}

func (h *Handler) dispatch(ctx context.Context, lifecycle *runtime.Lifecycle, client *Client, env envelope) {
	switch env.Type {
	case intentSend:
		var intent sendIntent
		if err := json.Unmarshal(env.Data, &intent); err != nil {
			h.reject(ctx, client, "malformed send intent")
			return
		}
		if _, err := lifecycle.HandleSend(ctx, intent.To, intent.Body); err != nil {
			h.reject(ctx, client, err.Error())
		}

	case intentStatus:
		var intent statusIntent
		if err := json.Unmarshal(env.Data, &intent); err != nil {
			h.reject(ctx, client, "malformed status intent")
			return
		}
		if _, err := lifecycle.HandleStatus(ctx, intent.MessageID, domain.Status(intent.Status)); err != nil {
			h.reject(ctx, client, err.Error())
		}

	case intentTyping:
		var intent typingIntent
		if err := json.Unmarshal(env.Data, &intent); err != nil {
			return // Best-effort lane, not worth an error frame
		}
		lifecycle.HandleTyping(ctx, intent.To, intent.IsTyping)

	default:
		h.reject(ctx, client, "unknown intent type: "+env.Type)
	}
}

func (h *Handler) reject(ctx context.Context, client *Client, reason string) {
	if err := client.Push(ctx, domain.ErrorPayload{Reason: reason}); err != nil {
		h.log.Debug("Error frame dropped", "reason", reason)
	}
}
