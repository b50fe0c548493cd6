package handlers

import (
	"log/slog"
	"net/http"

	"dm-relay/observability"
	"dm-relay/services"
)

type StatsHandler struct {
	log   *slog.Logger
	relay services.IRelayService
}

func NewStatsHandler(log *slog.Logger, relay services.IRelayService) *StatsHandler {
	return &StatsHandler{log: log, relay: relay}
}

type statsResponse struct {
	Stats  observability.Stats `json:"stats"`
	Online []string            `json:"online"`
}

// Stats handles GET /debug/stats: relay counters plus who is online.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.log, w, http.StatusOK, statsResponse{
		Stats:  h.relay.Stats(),
		Online: h.relay.Online(),
	})
}
