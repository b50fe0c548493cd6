package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"dm-relay/domain"
	"dm-relay/errors"
	"dm-relay/services"
)

type MessageHandler struct {
	log   *slog.Logger
	relay services.IRelayService
}

func NewMessageHandler(log *slog.Logger, relay services.IRelayService) *MessageHandler {
	return &MessageHandler{log: log, relay: relay}
}

type messageDTO struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Lang      string    `json:"lang,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Seen      bool      `json:"seen"`
}

type threadResponse struct {
	Peer     string       `json:"peer"`
	Messages []messageDTO `json:"messages"`
}

// Thread handles GET /messages/{peer}: the caller's conversation with peer,
// ascending by creation time. Fetching marks the peer's unread messages read.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeError(h.log, w, errors.ErrInvalidCredentials)
		return
	}

	peer := mux.Vars(r)["peer"]
	if peer == "" || peer == claims.UserID {
		writeError(h.log, w, errors.ErrInvalidCommand)
		return
	}

	thread, err := h.relay.Thread(claims.UserID, peer)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	dtos := lo.Map(thread, func(m domain.Message, _ int) messageDTO {
		return messageDTO{
			ID:        m.ID.String(),
			From:      m.From,
			To:        m.To,
			Body:      m.Body,
			Lang:      m.Lang,
			CreatedAt: m.CreatedAt,
			Status:    string(m.Status),
			Seen:      m.Seen,
		}
	})

	writeJSON(h.log, w, http.StatusOK, threadResponse{Peer: peer, Messages: dtos})
}
