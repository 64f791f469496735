package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-secret-switch/internal/scheduler"
)

// SchedulerHandler exposes the on-demand sweep trigger used in serverless
// deployments, where an external timer calls in instead of a local ticker.
type SchedulerHandler struct {
	sched *scheduler.Scheduler
	token string
}

func NewSchedulerHandler(sched *scheduler.Scheduler, token string) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, token: token}
}

func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		writeError(w, http.StatusNotImplemented, "on-demand sweeps are not active")
		return
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}
	if err := h.sched.RunOnce(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "sweep executed"})
}
