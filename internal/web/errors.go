package web

// errors.go maps service errors to JSON error responses.
//
// Technical detail is logged server-side with the request ID for
// correlation; clients receive a stable machine-readable code plus a
// short message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tecfleet/fuelcapture/internal/capture"
)

// ErrorResponse is the JSON envelope for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorStatus maps a service error to its HTTP status and stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, capture.ErrUnknownRegion):
		return http.StatusNotFound, "unknown-region"
	case errors.Is(err, capture.ErrUnknownDepot):
		return http.StatusNotFound, "unknown-depot"
	case errors.Is(err, capture.ErrEmptyCatalog):
		return http.StatusServiceUnavailable, "empty-catalog"
	case errors.Is(err, capture.ErrDuplicateCapture):
		return http.StatusConflict, "duplicate-capture"
	case errors.Is(err, capture.ErrFutureDate):
		return http.StatusUnprocessableEntity, "future-date"
	case errors.Is(err, capture.ErrMissingPrices):
		return http.StatusUnprocessableEntity, "missing-prices"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError logs the technical error and writes the JSON envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the log.
		msg = "internal error"
	}
	writeErrorCode(w, status, code, msg)
}

// writeErrorCode writes the JSON error envelope directly.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// writeJSON encodes v as JSON and writes it to w.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
