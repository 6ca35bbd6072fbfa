package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSONWithMeta(w, r, status, data, nil)
}

// writeList writes a list response with its size in the metadata.
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// writeJSONWithMeta writes a JSON response with custom metadata.
func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data any, meta *ResponseMeta) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	response := JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r.Context()),
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &ResponseMeta{
			Timestamp: time.Now().UTC(),
		},
		RequestID: getRequestID(r.Context()),
	}

	_ = json.NewEncoder(w).Encode(response)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps a domain error onto an HTTP status and error code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *study.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSONError(w, r, http.StatusBadRequest, "validation_failed", "Request validation failed",
			map[string]string{verr.Field: verr.Message})

	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_failed", publicMessage(err, "Request validation failed"), nil)

	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", publicMessage(err, "Resource not found"), nil)

	case shared.IsAlreadyExists(err):
		writeJSONError(w, r, http.StatusConflict, "already_exists", publicMessage(err, "Resource already exists"), nil)

	case shared.IsIntegrity(err):
		s.requestLogger(r).Error("stored data is inconsistent",
			logger.Operation(op),
			logger.Err(err),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "integrity_error", publicMessage(err, "Stored data is inconsistent"), nil)

	default:
		s.requestLogger(r).Error("request failed",
			logger.Operation(op),
			logger.Err(err),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

// publicMessage returns the human-readable part of a domain error without the
// operation chain that wraps it.
func publicMessage(err error, fallback string) string {
	var derr *shared.DomainError
	if errors.As(err, &derr) && derr.Message != "" {
		return derr.Message
	}
	return fallback
}
