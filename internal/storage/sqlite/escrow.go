package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
)

// Admin returns the singleton admin identity.
func (s *Store) Admin(ctx context.Context) (string, error) {
	var admin string
	err := s.db.QueryRowContext(ctx,
		"SELECT admin FROM admin_state WHERE id = 1",
	).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// SetAdmin stores the singleton admin identity.
func (s *Store) SetAdmin(ctx context.Context, admin string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_state (id, admin) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET admin = excluded.admin`,
		admin,
	)
	if err != nil {
		return fmt.Errorf("failed to set admin: %w", err)
	}
	return nil
}

// Receipt retrieves the escrow receipt at (recipient, index).
func (s *Store) Receipt(ctx context.Context, recipient string, index uint32) (*models.EscrowReceipt, error) {
	var (
		receipt    models.EscrowReceipt
		amountText string
		boundKind  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT amount, depositor, token, bound_kind, bound_timestamp
		 FROM escrow_receipts WHERE recipient = ? AND idx = ?`,
		recipient, index,
	).Scan(&amountText, &receipt.Depositor, &receipt.Token, &boundKind, &receipt.TimeBound.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	receipt.TimeBound.Kind = models.TimeBoundKind(boundKind)
	receipt.Amount, err = parseAmount(amountText)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ReceiptCount returns the recipient's deposit count, zero if none.
func (s *Store) ReceiptCount(ctx context.Context, recipient string) (uint32, error) {
	var count uint32
	err := s.db.QueryRowContext(ctx,
		"SELECT count FROM escrow_receipt_counts WHERE recipient = ?",
		recipient,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get receipt count: %w", err)
	}
	return count, nil
}

// SaveDeposit writes the receipt and advances the recipient's count in one
// transaction.
func (s *Store) SaveDeposit(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO escrow_receipts (recipient, idx, amount, depositor, token, bound_kind, bound_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recipient, index, receipt.Amount.String(), receipt.Depositor, receipt.Token,
		string(receipt.TimeBound.Kind), receipt.TimeBound.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO escrow_receipt_counts (recipient, count) VALUES (?, ?)
		 ON CONFLICT(recipient) DO UPDATE SET count = excluded.count`,
		recipient, index,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveReceipt overwrites the receipt at (recipient, index).
func (s *Store) SaveReceipt(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO escrow_receipts (recipient, idx, amount, depositor, token, bound_kind, bound_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(recipient, idx) DO UPDATE SET
		   amount = excluded.amount,
		   depositor = excluded.depositor,
		   token = excluded.token,
		   bound_kind = excluded.bound_kind,
		   bound_timestamp = excluded.bound_timestamp`,
		recipient, index, receipt.Amount.String(), receipt.Depositor, receipt.Token,
		string(receipt.TimeBound.Kind), receipt.TimeBound.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

// DeleteReceipt removes the receipt at (recipient, index).
func (s *Store) DeleteReceipt(ctx context.Context, recipient string, index uint32) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM escrow_receipts WHERE recipient = ? AND idx = ?",
		recipient, index,
	)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}
