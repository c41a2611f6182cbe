// Package treasury provides the asset-transfer collaborator: movement of
// fungible asset quantities between custody-capable accounts, including the
// ledger's own custody account. The core ledger only consumes the Treasury
// interface; AccountBook is the in-process implementation used by the server
// and tests. Settlement against external rails is a host concern.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when the source account does not hold
	// the requested quantity of the token.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNegativeQuantity is returned for transfer or mint quantities < 0.
	ErrNegativeQuantity = errors.New("negative quantity")
)

// Treasury moves a non-negative quantity of a fungible asset between two
// accounts. Transfers are atomic: on failure neither balance changes.
type Treasury interface {
	Transfer(ctx context.Context, from, to, token string, amount decimal.Decimal) error
	Balance(ctx context.Context, account, token string) (decimal.Decimal, error)
}

type accountKey struct {
	account string
	token   string
}

// AccountBook is an in-memory Treasury. Balances live in a map guarded by a
// mutex; it is safe for concurrent use.
type AccountBook struct {
	mu       sync.Mutex
	balances map[accountKey]decimal.Decimal
}

// NewAccountBook returns an empty AccountBook.
func NewAccountBook() *AccountBook {
	return &AccountBook{
		balances: make(map[accountKey]decimal.Decimal),
	}
}

// Mint credits an account with new units of a token. Used to seed balances.
func (b *AccountBook) Mint(ctx context.Context, account, token string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeQuantity
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := accountKey{account: account, token: token}
	b.balances[key] = b.balances[key].Add(amount)
	return nil
}

// Transfer moves amount of token from one account to another. Fails with
// ErrInsufficientFunds if the source balance is too small; on failure
// neither side changes.
func (b *AccountBook) Transfer(ctx context.Context, from, to, token string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeQuantity
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := accountKey{account: from, token: token}
	toKey := accountKey{account: to, token: token}
	if b.balances[fromKey].Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s holds %s of %s, need %s",
			ErrInsufficientFunds, from, b.balances[fromKey], token, amount)
	}
	b.balances[fromKey] = b.balances[fromKey].Sub(amount)
	b.balances[toKey] = b.balances[toKey].Add(amount)
	return nil
}

// Balance returns the account's holdings of the token (zero if never used).
func (b *AccountBook) Balance(ctx context.Context, account, token string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[accountKey{account: account, token: token}], nil
}

var _ Treasury = (*AccountBook)(nil)
