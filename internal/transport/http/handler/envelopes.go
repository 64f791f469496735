package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-secret-switch/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreatedEnvelope wraps responses that return a generated id.
type CreatedEnvelope struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// RuntimeConfigEnvelope is served to web clients so they can reach the API
// and subscribe to push with the right VAPID public key.
type RuntimeConfigEnvelope struct {
	APIURL           string `json:"api_url"`
	PushPubkeyBase64 string `json:"push_pubkey_base64"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrBusy):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}
