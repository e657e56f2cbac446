package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wellsfam/tripsync/internal/domain"
)

// ErrorDetail is the machine-readable error payload.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorDetail the way every endpoint reports failure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeError maps a domain sentinel to an HTTP status and error code.
// Unknown errors are treated as unavailable rather than leaking internals.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrRejected):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: ErrorDetail{Code: "rejected", Message: unwrapMessage(err)}})
	default:
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{Code: "unavailable", Message: unwrapMessage(err)}})
	}
}

// requestError reports a bad request rejected before reaching the engine
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel
// error, e.g. "store.Store.TripByID: not found: ..." → the part after the
// sentinel text.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []string{
		"validation error: ",
		"not found: ",
		"rejected: ",
		"unavailable: ",
	} {
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return msg
}
