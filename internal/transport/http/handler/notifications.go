package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-secret-switch/internal/application/user"
	"github.com/go-secret-switch/internal/transport/http/middleware"
)

// NotificationHandler handles the push-setup test endpoint.
type NotificationHandler struct {
	svc user.Service
}

func NewNotificationHandler(svc user.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// Test sends a hello push to the caller, or to another registered user when
// the body names a recipient.
func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Recipient string `json:"recipient"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means "to myself"
	}
	if err := h.svc.TestNotification(r.Context(), email, req.Recipient); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "test notification sent"})
}
