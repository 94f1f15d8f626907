// Package handlers implements the HTTP endpoints of the run service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parsecdata/wfrun/internal/observability"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the machine code and human message of an error.
type ErrorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.CLILogger.Warn("write response", zap.Error(err))
	}
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteFieldError(w, r, status, code, message, nil)
}

// WriteFieldError writes the error envelope with per-field detail, used
// for parameter validation failures.
func WriteFieldError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	body := ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
		Fields:    fields,
	}}
	WriteJSON(w, status, body)
}

// NotFound is the router-level handler for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed is the router-level handler for known paths hit with
// the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed for this resource")
}
