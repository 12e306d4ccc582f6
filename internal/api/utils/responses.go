package utils

import (
	"encoding/json"
	"net/http"

	"pm-functions/internal/gateway"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, message, code string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func WriteNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "Not found", "NOT_FOUND", nil)
}

func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED", nil)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteEnvelope writes a gateway envelope using its own indented encoding.
func WriteEnvelope(w http.ResponseWriter, status int, env gateway.Envelope) {
	body := env.Marshal()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
