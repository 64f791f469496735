package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-secret-switch/internal/config"
)

// HealthHandler handles health-check and client-bootstrap endpoints.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action == "ping" {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
		return
	}
	writeError(w, http.StatusBadRequest, "unknown action")
}

// RuntimeConfig serves the values web clients need before they can sign in
// or register for push.
func (h *HealthHandler) RuntimeConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RuntimeConfigEnvelope{
		APIURL:           h.cfg.BaseAPIURL,
		PushPubkeyBase64: h.cfg.VAPIDPublicKey,
	})
}
