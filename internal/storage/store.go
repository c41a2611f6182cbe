// Package storage provides abstractions for persistent ledger state.
//
// Records are addressed by explicit composite keys — (recipient, index) for
// escrow receipts, (retainor, retainee) for retainer records and
// (retainor, retainee, index) for history entries — passed as typed
// arguments, never as concatenated strings. The admin record is singleton
// state; everything else is per-key.
//
// Store methods that cover several records of one ledger operation (a
// deposit's receipt + counter, a resolution's balance + history + pending
// clear) commit them in a single transaction so partial writes are never
// observable.
package storage

import (
	"context"
	"errors"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EscrowStore holds the escrow ledger's state: the admin singleton and the
// receipt records per (recipient, index).
type EscrowStore interface {
	// Admin returns the admin identity, or ErrNotFound before initialization.
	Admin(ctx context.Context) (string, error)

	// SetAdmin stores the admin identity, overwriting any previous value.
	SetAdmin(ctx context.Context, admin string) error

	// Receipt returns the receipt at (recipient, index), or ErrNotFound.
	Receipt(ctx context.Context, recipient string, index uint32) (*models.EscrowReceipt, error)

	// ReceiptCount returns the number of deposits made for the recipient
	// (zero if there have been none).
	ReceiptCount(ctx context.Context, recipient string) (uint32, error)

	// SaveDeposit writes the receipt at (recipient, index) and advances the
	// recipient's receipt count to index, atomically.
	SaveDeposit(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error

	// SaveReceipt overwrites the receipt at (recipient, index).
	SaveReceipt(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error

	// DeleteReceipt removes the receipt at (recipient, index).
	DeleteReceipt(ctx context.Context, recipient string, index uint32) error
}

// RetainerStore holds the retainer ledger's state per (retainor, retainee)
// pair: balance, pending bill, resolution history and directory records.
type RetainerStore interface {
	// Balance returns the pair's retained balance, or ErrNotFound if the
	// pair was never funded.
	Balance(ctx context.Context, retainor, retainee string) (*models.RetainerBalance, error)

	// SetBalance stores the pair's retained balance.
	SetBalance(ctx context.Context, retainor, retainee string, balance models.RetainerBalance) error

	// PendingBill returns the pair's pending bill, or ErrNotFound.
	PendingBill(ctx context.Context, retainor, retainee string) (*models.Bill, error)

	// SetPendingBill stores the pair's pending bill.
	SetPendingBill(ctx context.Context, retainor, retainee string, bill models.Bill) error

	// ClearPendingBill removes the pair's pending bill. Clearing an absent
	// bill is a no-op.
	ClearPendingBill(ctx context.Context, retainor, retainee string) error

	// HistoryIndex returns the last-used history index for the pair
	// (zero if no bill was ever resolved).
	HistoryIndex(ctx context.Context, retainor, retainee string) (uint32, error)

	// HistoryReceipt returns the history entry at (retainor, retainee,
	// index), or ErrNotFound.
	HistoryReceipt(ctx context.Context, retainor, retainee string, index uint32) (*models.RetainerReceipt, error)

	// ApplyResolution commits the full outcome of a bill resolution
	// atomically: optionally replaces the balance (approved bills),
	// appends the history receipt at index, advances the history index to
	// index, and clears the pending bill.
	ApplyResolution(ctx context.Context, retainor, retainee string, balance *models.RetainerBalance, index uint32, receipt models.RetainerReceipt) error

	// RetaineeInfo returns the retainee's directory record, or ErrNotFound
	// if never set.
	RetaineeInfo(ctx context.Context, retainee string) (*models.RetaineeInfo, error)

	// SetRetaineeInfo replaces the retainee's directory record in full.
	SetRetaineeInfo(ctx context.Context, retainee string, info models.RetaineeInfo) error

	// RetainorInfo returns the retainor's directory record, or ErrNotFound
	// if never set.
	RetainorInfo(ctx context.Context, retainor string) (*models.RetainorInfo, error)

	// SetRetainorInfo replaces the retainor's directory record in full.
	SetRetainorInfo(ctx context.Context, retainor string, info models.RetainorInfo) error
}
