package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.
// All are recoverable-by-caller conditions; none should crash the store.

var (
	// Issuance errors
	ErrIssuanceDenied = errors.New("entity is not permitted to issue credits")
	ErrCapExceeded    = errors.New("amount exceeds the vendor's issuance cap")

	// Transfer errors
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("account does not hold enough of this credit")
	ErrExpiredCredit       = errors.New("credit is past its expiration date")
	ErrSelfTransfer        = errors.New("source and destination accounts are the same")

	// Store errors
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrConflict  = errors.New("concurrent update conflict: retries exhausted")

	// Authorization errors (raised by the capability-check collaborator,
	// never by the store itself)
	ErrPermissionDenied = errors.New("caller is not permitted to perform this operation")

	// ErrInvariant indicates ledger state that violates a balance or
	// redemption invariant. This is a store bug, not a caller error.
	ErrInvariant = errors.New("ledger invariant violation")
)
