package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
)

// Balance retrieves the retained balance for the pair.
func (s *Store) Balance(ctx context.Context, retainor, retainee string) (*models.RetainerBalance, error) {
	var (
		balance    models.RetainerBalance
		amountText string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT amount, token FROM retainer_balances WHERE retainor = ? AND retainee = ?",
		retainor, retainee,
	).Scan(&amountText, &balance.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retainer balance: %w", err)
	}

	balance.Amount, err = parseAmount(amountText)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// SetBalance stores the retained balance for the pair.
func (s *Store) SetBalance(ctx context.Context, retainor, retainee string, balance models.RetainerBalance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO retainer_balances (retainor, retainee, amount, token) VALUES (?, ?, ?, ?)
		 ON CONFLICT(retainor, retainee) DO UPDATE SET amount = excluded.amount, token = excluded.token`,
		retainor, retainee, balance.Amount.String(), balance.Token,
	)
	if err != nil {
		return fmt.Errorf("failed to set retainer balance: %w", err)
	}
	return nil
}

// PendingBill retrieves the pair's pending bill.
func (s *Store) PendingBill(ctx context.Context, retainor, retainee string) (*models.Bill, error) {
	var (
		bill       models.Bill
		amountText string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT amount, token, notes, bill_date FROM pending_bills WHERE retainor = ? AND retainee = ?",
		retainor, retainee,
	).Scan(&amountText, &bill.Token, &bill.Notes, &bill.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bill: %w", err)
	}

	bill.Amount, err = parseAmount(amountText)
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// SetPendingBill stores the pair's pending bill.
func (s *Store) SetPendingBill(ctx context.Context, retainor, retainee string, bill models.Bill) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_bills (retainor, retainee, amount, token, notes, bill_date)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(retainor, retainee) DO UPDATE SET
		   amount = excluded.amount, token = excluded.token,
		   notes = excluded.notes, bill_date = excluded.bill_date`,
		retainor, retainee, bill.Amount.String(), bill.Token, bill.Notes, bill.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to set pending bill: %w", err)
	}
	return nil
}

// ClearPendingBill removes the pair's pending bill; absent is a no-op.
func (s *Store) ClearPendingBill(ctx context.Context, retainor, retainee string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_bills WHERE retainor = ? AND retainee = ?",
		retainor, retainee,
	)
	if err != nil {
		return fmt.Errorf("failed to clear pending bill: %w", err)
	}
	return nil
}

// HistoryIndex returns the pair's last-used history index, zero if none.
func (s *Store) HistoryIndex(ctx context.Context, retainor, retainee string) (uint32, error) {
	var index uint32
	err := s.db.QueryRowContext(ctx,
		"SELECT idx FROM retainer_history_indexes WHERE retainor = ? AND retainee = ?",
		retainor, retainee,
	).Scan(&index)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get history index: %w", err)
	}
	return index, nil
}

// HistoryReceipt retrieves the history entry at (retainor, retainee, index).
func (s *Store) HistoryReceipt(ctx context.Context, retainor, retainee string, index uint32) (*models.RetainerReceipt, error) {
	var (
		receipt    models.RetainerReceipt
		amountText string
		status     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT bill_amount, bill_token, bill_notes, bill_date, notes, receipt_date, status
		 FROM retainer_receipts WHERE retainor = ? AND retainee = ? AND idx = ?`,
		retainor, retainee, index,
	).Scan(&amountText, &receipt.Bill.Token, &receipt.Bill.Notes, &receipt.Bill.Date,
		&receipt.Notes, &receipt.Date, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history receipt: %w", err)
	}

	receipt.Status = models.ApprovalStatus(status)
	receipt.Bill.Amount, err = parseAmount(amountText)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ApplyResolution commits a bill resolution in one transaction: optional
// balance replacement, history append, index bump, pending-bill clear.
func (s *Store) ApplyResolution(ctx context.Context, retainor, retainee string, balance *models.RetainerBalance, index uint32, receipt models.RetainerReceipt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if balance != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO retainer_balances (retainor, retainee, amount, token) VALUES (?, ?, ?, ?)
			 ON CONFLICT(retainor, retainee) DO UPDATE SET amount = excluded.amount, token = excluded.token`,
			retainor, retainee, balance.Amount.String(), balance.Token,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO retainer_receipts (retainor, retainee, idx, bill_amount, bill_token, bill_notes, bill_date, notes, receipt_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		retainor, retainee, index,
		receipt.Bill.Amount.String(), receipt.Bill.Token, receipt.Bill.Notes, receipt.Bill.Date,
		receipt.Notes, receipt.Date, string(receipt.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to append history receipt: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO retainer_history_indexes (retainor, retainee, idx) VALUES (?, ?, ?)
		 ON CONFLICT(retainor, retainee) DO UPDATE SET idx = excluded.idx`,
		retainor, retainee, index,
	)
	if err != nil {
		return fmt.Errorf("failed to update history index: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM pending_bills WHERE retainor = ? AND retainee = ?",
		retainor, retainee,
	)
	if err != nil {
		return fmt.Errorf("failed to clear pending bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RetaineeInfo retrieves the retainee's directory record with its ordered
// retainor list.
func (s *Store) RetaineeInfo(ctx context.Context, retainee string) (*models.RetaineeInfo, error) {
	info := &models.RetaineeInfo{}
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM retainee_info WHERE retainee = ?",
		retainee,
	).Scan(&info.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retainee info: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT retainor FROM retainee_retainors WHERE retainee = ? ORDER BY position",
		retainee,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get retainors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var retainor string
		if err := rows.Scan(&retainor); err != nil {
			return nil, fmt.Errorf("failed to scan retainor: %w", err)
		}
		info.Retainors = append(info.Retainors, retainor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate retainors: %w", err)
	}
	return info, nil
}

// SetRetaineeInfo replaces the retainee's directory record in full.
func (s *Store) SetRetaineeInfo(ctx context.Context, retainee string, info models.RetaineeInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO retainee_info (retainee, name) VALUES (?, ?)
		 ON CONFLICT(retainee) DO UPDATE SET name = excluded.name`,
		retainee, info.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to set retainee info: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM retainee_retainors WHERE retainee = ?", retainee); err != nil {
		return fmt.Errorf("failed to clear retainors: %w", err)
	}
	for i, retainor := range info.Retainors {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO retainee_retainors (retainee, position, retainor) VALUES (?, ?, ?)",
			retainee, i, retainor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert retainor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RetainorInfo retrieves the retainor's directory record with its ordered
// retainee list.
func (s *Store) RetainorInfo(ctx context.Context, retainor string) (*models.RetainorInfo, error) {
	info := &models.RetainorInfo{}
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM retainor_info WHERE retainor = ?",
		retainor,
	).Scan(&info.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retainor info: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT retainee FROM retainor_retainees WHERE retainor = ? ORDER BY position",
		retainor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get retainees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var retainee string
		if err := rows.Scan(&retainee); err != nil {
			return nil, fmt.Errorf("failed to scan retainee: %w", err)
		}
		info.Retainees = append(info.Retainees, retainee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate retainees: %w", err)
	}
	return info, nil
}

// SetRetainorInfo replaces the retainor's directory record in full.
func (s *Store) SetRetainorInfo(ctx context.Context, retainor string, info models.RetainorInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO retainor_info (retainor, name) VALUES (?, ?)
		 ON CONFLICT(retainor) DO UPDATE SET name = excluded.name`,
		retainor, info.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to set retainor info: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM retainor_retainees WHERE retainor = ?", retainor); err != nil {
		return fmt.Errorf("failed to clear retainees: %w", err)
	}
	for i, retainee := range info.Retainees {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO retainor_retainees (retainor, position, retainee) VALUES (?, ?, ?)",
			retainor, i, retainee,
		)
		if err != nil {
			return fmt.Errorf("failed to insert retainee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
