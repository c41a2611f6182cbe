package models

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountOverflow is returned when a checked addition would exceed the
	// maximum representable ledger amount.
	ErrAmountOverflow = errors.New("amount overflow")

	// ErrAmountUnderflow is returned when a checked subtraction would fall
	// below the minimum representable ledger amount.
	ErrAmountUnderflow = errors.New("amount underflow")
)

// Ledger amounts are bounded to the signed 128-bit range so that stored
// balances stay representable on any backend, matching the arithmetic the
// custody invariants were defined against.
var (
	maxLedgerAmount = decimal.NewFromBigInt(
		new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 0)
	minLedgerAmount = decimal.NewFromBigInt(
		new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)), 0)
)

// WithinLedgerRange reports whether d fits the representable amount range.
func WithinLedgerRange(d decimal.Decimal) bool {
	return d.Cmp(minLedgerAmount) >= 0 && d.Cmp(maxLedgerAmount) <= 0
}

// CheckedAdd returns a + b, failing with ErrAmountOverflow or
// ErrAmountUnderflow if the sum leaves the representable range.
// Balance updates must never wrap silently.
func CheckedAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	sum := a.Add(b)
	if sum.Cmp(maxLedgerAmount) > 0 {
		return decimal.Decimal{}, ErrAmountOverflow
	}
	if sum.Cmp(minLedgerAmount) < 0 {
		return decimal.Decimal{}, ErrAmountUnderflow
	}
	return sum, nil
}

// CheckedSub returns a - b with the same range checks as CheckedAdd.
func CheckedSub(a, b decimal.Decimal) (decimal.Decimal, error) {
	return CheckedAdd(a, b.Neg())
}
