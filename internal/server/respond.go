package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
)

// Message is the body of informational responses.
type Message struct {
	Message string `json:"message"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorDetail is the body of 4xx/5xx responses with a plain message.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// ValidationDetail is the body of 422 responses.
type ValidationDetail struct {
	Detail []apperrors.FieldError `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorDetail{Detail: detail})
}

func writeValidation(w http.ResponseWriter, ve *apperrors.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationDetail{Detail: ve.Fields})
}
