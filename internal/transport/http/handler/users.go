package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-secret-switch/internal/application/user"
	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/transport/http/middleware"
)

// UserHandler handles liveness and push-subscription endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Ping exists purely to record liveness: the auth middleware has already
// touched last_seen by the time this runs.
func (h *UserHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.EmailFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Subscription domain.Subscription `json:"subscription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Subscribe(r.Context(), email, req.Subscription); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "subscribed"})
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "unsubscribed"})
}
