package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEnvelope matches the error shape the handler package serves, so
// middleware short-circuits look the same to clients as handler errors.
type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: msg})
}
