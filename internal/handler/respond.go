package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/service"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Unrecognized errors are
// reported as 500 without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNoReceiptsFound),
		errors.Is(err, service.ErrNoPendingPayment),
		errors.Is(err, service.ErrNoRetainedBalance),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrPendingPaymentAlreadyExists),
		errors.Is(err, service.ErrTimePredicateUnfulfilled):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrTokenMismatch),
		errors.Is(err, service.ErrInsufficientRetainedBalance),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, treasury.ErrInsufficientFunds),
		errors.Is(err, treasury.ErrNegativeQuantity),
		errors.Is(err, models.ErrAmountOverflow),
		errors.Is(err, models.ErrAmountUnderflow):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
