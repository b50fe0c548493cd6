package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dm-relay/errors"
	"dm-relay/services"
)

type AuthHandler struct {
	log     *slog.Logger
	service services.IAuthService
}

func NewAuthHandler(log *slog.Logger, service services.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, service: service}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.log, w, errors.ErrInvalidCommand)
		return
	}

	token, err := h.service.Register(req.Email, req.Password)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	h.log.Info("Account created", "email", req.Email)
	writeJSON(h.log, w, http.StatusCreated, tokenResponse{Token: string(token)})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.log, w, errors.ErrInvalidCommand)
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	writeJSON(h.log, w, http.StatusOK, tokenResponse{Token: string(token)})
}
