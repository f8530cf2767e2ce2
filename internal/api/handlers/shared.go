package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ndewijer/ledger-mf-companion/internal/api/response"
	"github.com/ndewijer/ledger-mf-companion/internal/apperrors"
	"github.com/ndewijer/ledger-mf-companion/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

// errorStatus maps a service error to its HTTP status code.
//
//   - 400: malformed identifiers and filters
//   - 404: unknown ledger, fund or session
//   - 409: the session is busy or closed, or the fund cannot be closed
//   - 422: the workflow action is not allowed in the current state
//   - 502: the ledger backend or NAV provider failed
//   - 500: anything else
func errorStatus(err error) int {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, validation.ErrInvalidUUID),
		errors.Is(err, validation.ErrInvalidSchemeCode):
		return http.StatusBadRequest

	case errors.Is(err, apperrors.ErrLedgerNotFound),
		errors.Is(err, apperrors.ErrFundNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusNotFound

	case errors.Is(err, apperrors.ErrSessionBusy),
		errors.Is(err, apperrors.ErrSessionClosed),
		errors.Is(err, apperrors.ErrFundNotClosable):
		return http.StatusConflict

	case errors.Is(err, apperrors.ErrEmptySelection),
		errors.Is(err, apperrors.ErrNotSelectable),
		errors.Is(err, apperrors.ErrNoEligibleFunds):
		return http.StatusUnprocessableEntity

	case errors.Is(err, apperrors.ErrBackendUnavailable),
		errors.Is(err, apperrors.ErrNavUnavailable),
		errors.Is(err, apperrors.ErrFailedToRetrieveFunds),
		errors.Is(err, apperrors.ErrFailedToRetrieveTransactions),
		errors.Is(err, apperrors.ErrFailedToApplyNavUpdates),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with the status errorStatus picks for it.
// Field-level validation errors are returned as the details object.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, http.StatusBadRequest, message, vErr.Fields)
		return
	}
	response.RespondError(w, errorStatus(err), message, err.Error())
}
