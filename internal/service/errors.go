package service

import "errors"

// Domain failure conditions. Every validation failure aborts the enclosing
// operation with one of these; nothing is retried inside the services.
var (
	// ErrNegativeAmount covers both a non-positive supplied amount and a
	// withdrawal that exceeds the receipt's funds. Callers see one kind for
	// both conditions.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrTimePredicateUnfulfilled means an escrow withdrawal was attempted
	// outside the receipt's permitted time window.
	ErrTimePredicateUnfulfilled = errors.New("time predicate not fulfilled")

	// ErrNoReceiptsFound means no escrow receipt exists at the requested
	// (recipient, index).
	ErrNoReceiptsFound = errors.New("no receipts found")

	// ErrNoRetainedBalance means a bill was submitted against a pair that
	// was never funded.
	ErrNoRetainedBalance = errors.New("no retained balance")

	// ErrInsufficientRetainedBalance means the submitted bill exceeds the
	// pair's retained balance.
	ErrInsufficientRetainedBalance = errors.New("insufficient retained balance")

	// ErrPendingPaymentAlreadyExists means the pair already has an
	// unresolved bill.
	ErrPendingPaymentAlreadyExists = errors.New("pending payment already exists")

	// ErrNoPendingPayment means a resolution was requested for a pair with
	// no pending bill.
	ErrNoPendingPayment = errors.New("no pending payment")

	// ErrTokenMismatch means a balance was funded with a different token
	// than it was created with.
	ErrTokenMismatch = errors.New("token mismatch")

	// ErrInvalidStatus means a resolution named an unknown outcome.
	ErrInvalidStatus = errors.New("invalid approval status")
)
