package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/pointledger/internal/adapter/http/dto"
	"github.com/iho/pointledger/internal/domain"
)

// Error codes that are not domain.ErrorKind names.
const (
	codeInvalidAccountID = "INVALID_ACCOUNT_ID"
	codeInvalidBody      = "INVALID_REQUEST_BODY"
	codeCanceled         = "CANCELED"
	codeUnavailable      = "UNAVAILABLE"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Code:    code,
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status and code of its kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)

	code := domain.KindOf(err).String()
	if status == http.StatusServiceUnavailable {
		code = codeCanceled
	}

	writeError(w, status, code, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoHistoryFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBalanceLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseAccountID parses the {id} path parameter.
func parseAccountID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
