package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marcus/widgetareas/internal/sidebars"
)

// Error code constants for structured API error responses.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeSidebarInvalidID = "sidebar_invalid_id"
	ErrCodeUserCannotEdit   = "user_cannot_edit"
)

// APIError represents a structured error returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError for JSON serialization.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error: APIError{Code: code, Message: message},
	}); err != nil {
		slog.Error("write error response", "err", err)
	}
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write json response", "err", err)
	}
}

// writeResolverError maps resolver errors to API errors.
func writeResolverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sidebars.ErrInvalidSidebarID) {
		writeError(w, http.StatusNotFound, ErrCodeSidebarInvalidID, "Invalid sidebar ID.")
		return
	}
	logFor(r.Context()).Error("widget area", "err", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
