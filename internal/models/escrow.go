package models

import "github.com/shopspring/decimal"

// TimeBoundKind selects which side of the timestamp a bound permits.
type TimeBoundKind string

const (
	// TimeBoundBefore permits withdrawal at or before the bound timestamp.
	TimeBoundBefore TimeBoundKind = "before"

	// TimeBoundAfter permits withdrawal at or after the bound timestamp.
	TimeBoundAfter TimeBoundKind = "after"
)

// TimeBound is the timestamp predicate attached to an escrow receipt.
// It is immutable once the receipt is written.
type TimeBound struct {
	Kind      TimeBoundKind `json:"kind"`
	Timestamp uint64        `json:"timestamp"`
}

// EscrowReceipt is a time-locked claim on deposited funds, keyed by
// (recipient, index). Amount is strictly positive while the receipt exists;
// a fully withdrawn receipt is removed, never left at zero.
type EscrowReceipt struct {
	// Amount is the quantity of Token still held for the recipient.
	Amount decimal.Decimal `json:"amount"`

	// Depositor is the identity that funded the receipt.
	Depositor string `json:"depositor"`

	// Token identifies the fungible asset the receipt holds.
	Token string `json:"token"`

	// TimeBound gates withdrawal of the receipt.
	TimeBound TimeBound `json:"time_bound"`
}
