package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/somniastreams/marketcore/internal/apperr"
	"github.com/somniastreams/marketcore/internal/registry"
	"github.com/somniastreams/marketcore/internal/sensordata"
	"github.com/somniastreams/marketcore/internal/subscription"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Title   string `json:"title,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeForbidden       = "forbidden"
	ErrCodePaymentRequired = "payment_required"
	ErrCodeConflict        = "conflict"
	ErrCodeInternal        = "internal_error"
	ErrCodeValidation      = "validation_error"
	ErrCodeUnavailable     = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error to an HTTP response.
//
// Sentinel errors with a precise HTTP meaning are matched first; anything
// else goes through the error classifier so the response carries the
// user-facing message and title for its kind.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeNotFound(w, "device not found")
		return
	case errors.Is(err, subscription.ErrNoSubscription):
		writeNotFound(w, "no subscription for this device")
		return
	case errors.Is(err, registry.ErrUnauthorized):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "caller is not the device owner")
		return
	case errors.Is(err, registry.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, ErrCodePaymentRequired, "payment does not cover the device price")
		return
	case errors.Is(err, registry.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, ErrCodeConflict, "device address is already registered")
		return
	case errors.Is(err, subscription.ErrCancelled):
		writeError(w, http.StatusConflict, ErrCodeConflict, "subscription is already cancelled")
		return
	case errors.Is(err, sensordata.ErrInvalidReading):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	case errors.Is(err, sensordata.ErrTypeMismatch),
		errors.Is(err, sensordata.ErrDeviceInactive):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	}

	appErr := apperr.Classify(err)
	status := statusForKind(appErr.Kind)
	writeJSON(w, status, Error{
		Status:  status,
		Code:    string(appErr.Kind),
		Message: appErr.Message,
		Title:   appErr.Title(),
	})
}

// statusForKind maps an error kind to an HTTP status code.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindWallet:
		return http.StatusBadRequest
	case apperr.KindNetwork, apperr.KindBlockchain:
		return http.StatusBadGateway
	case apperr.KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
