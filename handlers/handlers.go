// Package handlers exposes the HTTP surface next to the websocket endpoint:
// account registration and login, thread history, and a debug stats view.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dm-relay/errors"
)

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Response encoding failed", "error", err)
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	}
	writeJSON(log, w, status, map[string]string{"error": err.Error()})
}
