// Package httpjson writes the JSON envelopes shared by every public endpoint.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ListResponse wraps collection payloads.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Write encodes payload with the given status.
func Write(w http.ResponseWriter, logger *logging.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}

// Error writes an {error} body.
func Error(w http.ResponseWriter, logger *logging.Logger, status int, message string) {
	Write(w, logger, status, ErrorResponse{Error: message})
}

// FieldErrors writes an {error, fields} body for validation failures.
func FieldErrors(w http.ResponseWriter, logger *logging.Logger, status int, message string, fields map[string]string) {
	Write(w, logger, status, ErrorResponse{Error: message, Fields: fields})
}

// List writes a collection with its size.
func List[T any](w http.ResponseWriter, logger *logging.Logger, data []T) {
	if data == nil {
		data = []T{}
	}
	Write(w, logger, http.StatusOK, ListResponse[T]{Data: data, Total: len(data)})
}
