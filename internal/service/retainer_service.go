package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/events"
	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

// RetainerService owns the retainer billing ledger. A retainor pre-funds a
// balance per retainee; the retainee submits at most one pending bill at a
// time against it; the retainor resolves the bill, which always appends one
// immutable history receipt and clears the bill, and moves funds only when
// approved.
type RetainerService struct {
	store     storage.RetainerStore
	treasury  treasury.Treasury
	authz     auth.Authorizer
	publisher events.Publisher

	// custody is the account holding all retained funds.
	custody string
}

// NewRetainerService creates a RetainerService around its collaborators.
func NewRetainerService(store storage.RetainerStore, treas treasury.Treasury, authz auth.Authorizer, publisher events.Publisher, custody string) *RetainerService {
	return &RetainerService{
		store:     store,
		treasury:  treas,
		authz:     authz,
		publisher: publisher,
		custody:   custody,
	}
}

// AddRetainerBalance moves additionalAmount of token from the retainor into
// custody and grows the pair's retained balance. The first funding fixes the
// balance's token; later funding must match it.
func (s *RetainerService) AddRetainerBalance(ctx context.Context, retainor, retainee string, additionalAmount decimal.Decimal, token string) error {
	if err := s.authz.RequireAuth(ctx, retainor); err != nil {
		return err
	}
	if !additionalAmount.IsPositive() {
		return ErrNegativeAmount
	}

	balance, err := s.store.Balance(ctx, retainor, retainee)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		balance = &models.RetainerBalance{Amount: decimal.Zero, Token: token}
	}
	if balance.Token != token {
		return ErrTokenMismatch
	}

	newAmount, err := models.CheckedAdd(balance.Amount, additionalAmount)
	if err != nil {
		return err
	}

	if err := s.treasury.Transfer(ctx, retainor, s.custody, token, additionalAmount); err != nil {
		slog.Warn("Retainer funding transfer failed", "retainor", retainor, "token", token, "error", err)
		return fmt.Errorf("funding transfer: %w", err)
	}

	updated := models.RetainerBalance{Amount: newAmount, Token: token}
	if err := s.store.SetBalance(ctx, retainor, retainee, updated); err != nil {
		s.refund(ctx, retainor, token, additionalAmount)
		return err
	}

	s.publish(ctx, events.TopicRetainerFunded, events.RetainerFunded{
		Retainor: retainor,
		Retainee: retainee,
		Token:    token,
		Amount:   additionalAmount,
		Balance:  newAmount,
	})
	slog.Info("Retainer balance funded",
		"retainor", retainor,
		"retainee", retainee,
		"token", token,
		"amount", additionalAmount,
		"balance", newAmount,
	)
	return nil
}

// SubmitBill records the retainee's pending bill against the pair's balance.
// The bill's token comes from the stored balance, never from the caller.
func (s *RetainerService) SubmitBill(ctx context.Context, retainor, retainee string, amount decimal.Decimal, notes, date string) error {
	if err := s.authz.RequireAuth(ctx, retainee); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrNegativeAmount
	}

	if _, err := s.store.PendingBill(ctx, retainor, retainee); err == nil {
		return ErrPendingPaymentAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	balance, err := s.store.Balance(ctx, retainor, retainee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoRetainedBalance
		}
		return err
	}
	if balance.Amount.Cmp(amount) < 0 {
		return ErrInsufficientRetainedBalance
	}

	bill := models.Bill{
		Amount: amount,
		Token:  balance.Token,
		Notes:  notes,
		Date:   date,
	}
	if err := s.store.SetPendingBill(ctx, retainor, retainee, bill); err != nil {
		return err
	}

	s.publish(ctx, events.TopicBillSubmitted, events.BillSubmitted{
		Retainor: retainor,
		Retainee: retainee,
		Token:    bill.Token,
		Amount:   amount,
		Date:     date,
	})
	slog.Info("Bill submitted",
		"retainor", retainor,
		"retainee", retainee,
		"amount", amount,
		"token", bill.Token,
	)
	return nil
}

// UnsubmitBill clears the pair's pending bill. Clearing an absent bill is a
// no-op, not an error.
func (s *RetainerService) UnsubmitBill(ctx context.Context, retainor, retainee string) error {
	if err := s.authz.RequireAuth(ctx, retainee); err != nil {
		return err
	}
	if err := s.store.ClearPendingBill(ctx, retainor, retainee); err != nil {
		return err
	}
	slog.Info("Bill unsubmitted", "retainor", retainor, "retainee", retainee)
	return nil
}

// ResolveBill settles the pair's pending bill. Approval pays the retainee
// from custody and decrements the balance; denial moves nothing. Either way
// one history receipt is appended at the next index and the pending bill is
// cleared — all committed atomically.
func (s *RetainerService) ResolveBill(ctx context.Context, retainor, retainee string, status models.ApprovalStatus, notes, date string) error {
	if err := s.authz.RequireAuth(ctx, retainor); err != nil {
		return err
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	bill, err := s.store.PendingBill(ctx, retainor, retainee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoPendingPayment
		}
		return err
	}

	var newBalance *models.RetainerBalance
	if status == models.ApprovalApproved {
		balance, err := s.store.Balance(ctx, retainor, retainee)
		if err != nil {
			return err
		}
		remaining, err := models.CheckedSub(balance.Amount, bill.Amount)
		if err != nil {
			return err
		}
		newBalance = &models.RetainerBalance{Amount: remaining, Token: balance.Token}

		if err := s.treasury.Transfer(ctx, s.custody, retainee, bill.Token, bill.Amount); err != nil {
			slog.Warn("Bill payout transfer failed", "retainor", retainor, "retainee", retainee, "error", err)
			return fmt.Errorf("payout transfer: %w", err)
		}
	}

	index, err := s.store.HistoryIndex(ctx, retainor, retainee)
	if err != nil {
		if status == models.ApprovalApproved {
			s.reclaim(ctx, retainee, bill.Token, bill.Amount)
		}
		return err
	}
	index++

	receipt := models.RetainerReceipt{
		Bill:   *bill,
		Notes:  notes,
		Date:   date,
		Status: status,
	}
	if err := s.store.ApplyResolution(ctx, retainor, retainee, newBalance, index, receipt); err != nil {
		if status == models.ApprovalApproved {
			s.reclaim(ctx, retainee, bill.Token, bill.Amount)
		}
		return err
	}

	s.publish(ctx, events.TopicBillResolved, events.BillResolved{
		Retainor: retainor,
		Retainee: retainee,
		Status:   string(status),
		Token:    bill.Token,
		Amount:   bill.Amount,
		Index:    index,
	})
	slog.Info("Bill resolved",
		"retainor", retainor,
		"retainee", retainee,
		"status", status,
		"amount", bill.Amount,
		"history_index", index,
	)
	return nil
}

// ViewBill returns the pair's pending bill.
func (s *RetainerService) ViewBill(ctx context.Context, retainor, retainee string) (models.Bill, error) {
	bill, err := s.store.PendingBill(ctx, retainor, retainee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Bill{}, ErrNoPendingPayment
		}
		return models.Bill{}, err
	}
	return *bill, nil
}

// ViewReceipt returns the history entry at the given index.
func (s *RetainerService) ViewReceipt(ctx context.Context, retainor, retainee string, index uint32) (models.RetainerReceipt, error) {
	receipt, err := s.store.HistoryReceipt(ctx, retainor, retainee, index)
	if err != nil {
		return models.RetainerReceipt{}, err
	}
	return *receipt, nil
}

// HistoryIndex returns the pair's last-used history index.
func (s *RetainerService) HistoryIndex(ctx context.Context, retainor, retainee string) (uint32, error) {
	return s.store.HistoryIndex(ctx, retainor, retainee)
}

// ViewReceiptHistoryRange returns the history entries with indices in
// [start, end], in order. Indices with no record are skipped, not errors.
func (s *RetainerService) ViewReceiptHistoryRange(ctx context.Context, retainor, retainee string, start, end uint32) ([]models.RetainerReceipt, error) {
	if start > end {
		return nil, nil
	}
	var history []models.RetainerReceipt
	for i := start; ; i++ {
		receipt, err := s.store.HistoryReceipt(ctx, retainor, retainee, i)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			history = append(history, *receipt)
		}
		if i == end {
			break
		}
	}
	return history, nil
}

// ViewReceiptHistory returns the most recent limit entries in order, or the
// full history when limit is zero or at least the history length.
func (s *RetainerService) ViewReceiptHistory(ctx context.Context, retainor, retainee string, limit uint32) ([]models.RetainerReceipt, error) {
	index, err := s.store.HistoryIndex(ctx, retainor, retainee)
	if err != nil {
		return nil, err
	}
	if index < 1 {
		return nil, nil
	}
	if limit > 0 && index > limit {
		return s.ViewReceiptHistoryRange(ctx, retainor, retainee, index-limit+1, index)
	}
	return s.ViewReceiptHistoryRange(ctx, retainor, retainee, 1, index)
}

// RetainerBalance returns the pair's retained balance.
func (s *RetainerService) RetainerBalance(ctx context.Context, retainor, retainee string) (models.RetainerBalance, error) {
	balance, err := s.store.Balance(ctx, retainor, retainee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.RetainerBalance{}, ErrNoRetainedBalance
		}
		return models.RetainerBalance{}, err
	}
	return *balance, nil
}

// RetaineeInfo returns the retainee's directory record; it is an error if
// the record was never set.
func (s *RetainerService) RetaineeInfo(ctx context.Context, retainee string) (models.RetaineeInfo, error) {
	info, err := s.store.RetaineeInfo(ctx, retainee)
	if err != nil {
		return models.RetaineeInfo{}, err
	}
	return *info, nil
}

// SetRetaineeInfo replaces the retainee's directory record. Only the
// retainee itself may set it.
func (s *RetainerService) SetRetaineeInfo(ctx context.Context, retainee, name string, retainors []string) error {
	if err := s.authz.RequireAuth(ctx, retainee); err != nil {
		return err
	}
	info := models.RetaineeInfo{Name: name, Retainors: retainors}
	if err := s.store.SetRetaineeInfo(ctx, retainee, info); err != nil {
		return err
	}
	slog.Info("Retainee info set", "retainee", retainee, "name", name)
	return nil
}

// RetainorInfo returns the retainor's directory record; it is an error if
// the record was never set.
func (s *RetainerService) RetainorInfo(ctx context.Context, retainor string) (models.RetainorInfo, error) {
	info, err := s.store.RetainorInfo(ctx, retainor)
	if err != nil {
		return models.RetainorInfo{}, err
	}
	return *info, nil
}

// SetRetainorInfo replaces the retainor's directory record. Only the
// retainor itself may set it.
func (s *RetainerService) SetRetainorInfo(ctx context.Context, retainor, name string, retainees []string) error {
	if err := s.authz.RequireAuth(ctx, retainor); err != nil {
		return err
	}
	info := models.RetainorInfo{Name: name, Retainees: retainees}
	if err := s.store.SetRetainorInfo(ctx, retainor, info); err != nil {
		return err
	}
	slog.Info("Retainor info set", "retainor", retainor, "name", name)
	return nil
}

// refund reverses a retainor->custody transfer after a failed commit.
func (s *RetainerService) refund(ctx context.Context, account, token string, amount decimal.Decimal) {
	if err := s.treasury.Transfer(ctx, s.custody, account, token, amount); err != nil {
		slog.Error("Compensating refund failed; funds stranded in custody",
			"account", account, "token", token, "amount", amount, "error", err)
	}
}

// reclaim reverses a custody->retainee payout after a failed commit.
func (s *RetainerService) reclaim(ctx context.Context, account, token string, amount decimal.Decimal) {
	if err := s.treasury.Transfer(ctx, account, s.custody, token, amount); err != nil {
		slog.Error("Compensating reclaim failed; payout not recorded",
			"account", account, "token", token, "amount", amount, "error", err)
	}
}

func (s *RetainerService) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("Event publish failed", "topic", topic, "error", err)
	}
}
