package core

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	// ErrInvalidChallenge is returned when the server rejects the signed challenge
	ErrInvalidChallenge = errors.New("invalid or expired challenge")

	// ErrWrongUserType is returned when the wallet is already bound to a different user type
	ErrWrongUserType = errors.New("wallet is registered with a different user type")

	// ErrRefreshDenied is returned when the server refuses to rotate the session token
	ErrRefreshDenied = errors.New("token refresh denied")

	// ErrNotAuthenticated is returned when an operation requires an active session
	ErrNotAuthenticated = errors.New("no active session")

	// ErrNoSession is returned by session stores when no session is persisted
	ErrNoSession = errors.New("no stored session")
)

// Wallet errors.
var (
	// ErrWalletUnavailable is returned when the wallet extension is not installed or reachable
	ErrWalletUnavailable = errors.New("wallet is not available")

	// ErrUserRejected is returned when the user declines a signing request
	ErrUserRejected = errors.New("signing request rejected by user")

	// ErrAddressUnavailable is returned when the wallet grants access but exposes no address
	ErrAddressUnavailable = errors.New("wallet address unavailable")
)

// Transaction build errors.
var (
	// ErrAccountLoadFailed is returned when the source or destination account does not exist or is unfunded
	ErrAccountLoadFailed = errors.New("account does not exist or is not funded")

	// ErrInsufficientBalance is returned when the source account cannot cover the payment amount
	ErrInsufficientBalance = errors.New("insufficient balance for payment amount")

	// ErrFeeFetchFailed is returned when the network base fee cannot be fetched
	ErrFeeFetchFailed = errors.New("failed to fetch network base fee")

	// ErrInvalidAmount is returned for amounts that are not positive decimals
	// within the ledger's 7-digit fractional precision
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrInvalidAddress is returned for malformed ledger account addresses
	ErrInvalidAddress = errors.New("invalid ledger address")

	// ErrMemoTooLong is returned when a text memo exceeds the ledger limit
	ErrMemoTooLong = errors.New("memo exceeds 28 bytes")
)

// Submission and monitoring errors.
var (
	// ErrAmbiguousSubmission is returned when the submission response was lost and
	// the transaction may or may not have been applied; the caller must reconcile
	// by polling, never by resubmitting
	ErrAmbiguousSubmission = errors.New("submission outcome unknown")

	// ErrNetwork is returned for ordinary transport failures
	ErrNetwork = errors.New("network error")

	// ErrPaymentExpired is returned when a payment window closed before submission
	ErrPaymentExpired = errors.New("payment has expired")
)

// RejectedError is a structured rejection from the ledger network, carrying
// the result code the network reported.
type RejectedError struct {
	Code string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction rejected by network: %s", e.Code)
}

// APIError is a non-2xx response from the platform API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.StatusCode)
}
