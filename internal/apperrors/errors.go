package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrLedgerNotFound indicates that the backend has no ledger with the given ID.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrFundNotFound indicates that a fund with the given ID does not exist in the ledger.
	ErrFundNotFound = errors.New("fund not found")

	// ErrSessionNotFound indicates that no NAV update session is open for the ledger.
	ErrSessionNotFound = errors.New("nav update session not found")
)

// Business logic errors represent rejected workflow actions.
// None of these trigger a network call.
var (
	// ErrNoEligibleFunds indicates that a bulk NAV update was requested but no fund
	// has both a scheme code and a positive unit balance.
	ErrNoEligibleFunds = errors.New("no funds eligible for NAV update")

	// ErrSessionBusy indicates that a fetch or apply is already in flight.
	ErrSessionBusy = errors.New("nav update already in progress")

	// ErrSessionClosed indicates that the session was closed and can no longer be used.
	ErrSessionClosed = errors.New("nav update session is closed")

	// ErrEmptySelection indicates that apply was requested with no fund selected.
	ErrEmptySelection = errors.New("no funds selected for update")

	// ErrNotSelectable indicates that a fund cannot be selected because its fetch
	// failed, is still pending, or its NAV is already up to date.
	ErrNotSelectable = errors.New("fund is not selectable")

	// ErrFundNotClosable indicates an attempt to close a fund that still holds units.
	ErrFundNotClosable = errors.New("fund still holds units")
)

// Collaborator errors represent failures talking to the ledger backend or NAV provider.
var (
	// ErrBackendUnavailable indicates that the ledger backend could not be reached.
	ErrBackendUnavailable = errors.New("ledger backend unavailable")

	// ErrNavUnavailable indicates that the NAV provider returned no quote for a scheme code.
	ErrNavUnavailable = errors.New("nav quote unavailable")

	// ErrFailedToRetrieveFunds indicates the fund list could not be loaded.
	ErrFailedToRetrieveFunds = errors.New("failed to retrieve funds")

	// ErrFailedToRetrieveTransactions indicates the transaction history could not be loaded.
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")

	// ErrFailedToApplyNavUpdates indicates the bulk NAV apply call failed.
	ErrFailedToApplyNavUpdates = errors.New("failed to apply nav updates")
)
