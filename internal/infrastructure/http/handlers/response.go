package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
)

type successEnvelope struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

type errorEnvelope struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// writeData sends the success envelope { "data": ..., "success": true }.
func writeData(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: v, Success: true})
}

// writeMessage is writeData with a human-readable message alongside.
func writeMessage(w http.ResponseWriter, code int, v interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: v, Success: true, Message: message})
}

// writeErr sends { "error": message, "code": errCode }. If errCode is empty,
// a default is derived from the HTTP status.
func writeErr(w http.ResponseWriter, code int, errCode, message string) {
	writeErrDetails(w, code, errCode, message, nil)
}

func writeErrDetails(w http.ResponseWriter, code int, errCode, message string, details interface{}) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: message, Code: errCode, Details: details})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	default:
		return ErrCodeInternal
	}
}

// writeDomainErr maps domain sentinel errors onto HTTP responses. Anything
// unrecognized is logged and surfaces as a generic 500.
func writeDomainErr(w http.ResponseWriter, log zerolog.Logger, err error) {
	if le := domerrors.AsLocked(err); le != nil {
		writeErrDetails(w, http.StatusConflict, ErrCodeConflict,
			"document is locked by another session",
			map[string]interface{}{"lock": le.Lock})
		return
	}
	switch {
	case errors.Is(err, domerrors.ErrNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, domerrors.ErrLockNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "no lock held by this session")
	case errors.Is(err, domerrors.ErrForbidden):
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
	case errors.Is(err, domerrors.ErrSlugTaken):
		writeErr(w, http.StatusConflict, ErrCodeConflict, "slug already exists")
	case errors.Is(err, domerrors.ErrDuplicateReference):
		writeErr(w, http.StatusConflict, ErrCodeConflict, "reference already exists")
	case errors.Is(err, domerrors.ErrSelfReference):
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "reference cannot target its own source")
	default:
		log.Error().Err(err).Msg("request failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
