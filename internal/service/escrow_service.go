package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/clock"
	"github.com/ehallmark/soroban-escrow-demo/internal/events"
	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
	"github.com/ehallmark/soroban-escrow-demo/internal/timelock"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

// EscrowService owns the time-locked escrow ledger: deposits create
// recipient-indexed receipts, withdrawals release them once their time
// predicate holds. Every public method is one atomic operation: it
// authorizes the caller, validates against current state, performs the
// external transfer, then commits the state write. A failure at any point
// leaves no partial writes behind.
type EscrowService struct {
	store     storage.EscrowStore
	treasury  treasury.Treasury
	clock     clock.Clock
	authz     auth.Authorizer
	publisher events.Publisher

	// custody is the account holding all escrowed funds.
	custody string
}

// NewEscrowService creates an EscrowService around its collaborators.
// custody names the account escrowed funds are held in.
func NewEscrowService(store storage.EscrowStore, treas treasury.Treasury, clk clock.Clock, authz auth.Authorizer, publisher events.Publisher, custody string) *EscrowService {
	return &EscrowService{
		store:     store,
		treasury:  treas,
		clock:     clk,
		authz:     authz,
		publisher: publisher,
		custody:   custody,
	}
}

// Initialize seeds the admin identity if none is set yet. It is the explicit
// one-time constructor for the ledger's singleton admin state; calling it
// again once an admin exists is an error.
func (s *EscrowService) Initialize(ctx context.Context, admin string) error {
	_, err := s.store.Admin(ctx)
	if err == nil {
		return errors.New("escrow ledger already initialized")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := s.store.SetAdmin(ctx, admin); err != nil {
		return err
	}
	slog.Info("Escrow ledger initialized", "admin", admin)
	return nil
}

// Admin returns the admin identity.
func (s *EscrowService) Admin(ctx context.Context) (string, error) {
	return s.store.Admin(ctx)
}

// SetAdmin replaces the admin identity. Only the current admin may do this.
func (s *EscrowService) SetAdmin(ctx context.Context, newAdmin string) error {
	current, err := s.store.Admin(ctx)
	if err != nil {
		return err
	}
	if err := s.authz.RequireAuth(ctx, current); err != nil {
		return err
	}
	if err := s.store.SetAdmin(ctx, newAdmin); err != nil {
		return err
	}
	slog.Info("Escrow admin updated", "admin", newAdmin)
	return nil
}

// Deposit moves amount of token from the depositor into custody and writes a
// time-locked receipt for the recipient at the next index. Returns the
// stored receipt and the current epoch.
func (s *EscrowService) Deposit(ctx context.Context, depositor, recipient, token string, amount decimal.Decimal, timeBound models.TimeBound) (models.EscrowReceipt, uint64, error) {
	if err := s.authz.RequireAuth(ctx, depositor); err != nil {
		return models.EscrowReceipt{}, 0, err
	}
	if !amount.IsPositive() {
		return models.EscrowReceipt{}, 0, ErrNegativeAmount
	}

	count, err := s.store.ReceiptCount(ctx, recipient)
	if err != nil {
		return models.EscrowReceipt{}, 0, err
	}
	index := count + 1

	// Move the funds into custody before committing local state; a transfer
	// failure aborts with nothing written.
	if err := s.treasury.Transfer(ctx, depositor, s.custody, token, amount); err != nil {
		slog.Warn("Deposit transfer failed", "depositor", depositor, "token", token, "error", err)
		return models.EscrowReceipt{}, 0, fmt.Errorf("deposit transfer: %w", err)
	}

	receipt := models.EscrowReceipt{
		Amount:    amount,
		Depositor: depositor,
		Token:     token,
		TimeBound: timeBound,
	}
	if err := s.store.SaveDeposit(ctx, recipient, index, receipt); err != nil {
		s.refund(ctx, depositor, token, amount)
		return models.EscrowReceipt{}, 0, err
	}

	epoch := s.clock.Epoch()
	s.publish(ctx, events.TopicEscrowDeposited, events.EscrowDeposited{
		Depositor: depositor,
		Recipient: recipient,
		Index:     index,
		Token:     token,
		Amount:    amount,
		Epoch:     epoch,
	})
	slog.Info("Escrow deposit",
		"depositor", depositor,
		"recipient", recipient,
		"index", index,
		"token", token,
		"amount", amount,
	)
	return receipt, epoch, nil
}

// Withdraw releases funds from the receipt at (recipient, index) to the
// recipient, provided the receipt's time predicate holds. A nil amount
// withdraws everything. Withdrawing the full amount removes the receipt;
// a partial withdrawal rewrites it with the remainder. Returns the
// pre-withdrawal receipt snapshot and the current epoch.
func (s *EscrowService) Withdraw(ctx context.Context, recipient string, index uint32, amount *decimal.Decimal) (models.EscrowReceipt, uint64, error) {
	if err := s.authz.RequireAuth(ctx, recipient); err != nil {
		return models.EscrowReceipt{}, 0, err
	}
	if amount != nil && amount.IsNegative() {
		return models.EscrowReceipt{}, 0, ErrNegativeAmount
	}

	receipt, err := s.store.Receipt(ctx, recipient, index)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.EscrowReceipt{}, 0, ErrNoReceiptsFound
		}
		return models.EscrowReceipt{}, 0, err
	}

	if !timelock.Holds(receipt.TimeBound, s.clock.Timestamp()) {
		return models.EscrowReceipt{}, 0, ErrTimePredicateUnfulfilled
	}

	// Over-withdrawal reports the same kind as an invalid magnitude.
	if amount != nil && amount.Cmp(receipt.Amount) > 0 {
		return models.EscrowReceipt{}, 0, ErrNegativeAmount
	}

	withdrawn := receipt.Amount
	if amount != nil {
		withdrawn = *amount
	}

	if err := s.treasury.Transfer(ctx, s.custody, recipient, receipt.Token, withdrawn); err != nil {
		slog.Warn("Withdrawal transfer failed", "recipient", recipient, "index", index, "error", err)
		return models.EscrowReceipt{}, 0, fmt.Errorf("withdrawal transfer: %w", err)
	}

	remaining := decimal.Zero
	if amount != nil && amount.Cmp(receipt.Amount) < 0 {
		remaining, err = models.CheckedSub(receipt.Amount, *amount)
		if err != nil {
			s.refundCustody(ctx, recipient, receipt.Token, withdrawn)
			return models.EscrowReceipt{}, 0, err
		}
		updated := models.EscrowReceipt{
			Amount:    remaining,
			Depositor: receipt.Depositor,
			Token:     receipt.Token,
			TimeBound: receipt.TimeBound,
		}
		err = s.store.SaveReceipt(ctx, recipient, index, updated)
	} else {
		err = s.store.DeleteReceipt(ctx, recipient, index)
	}
	if err != nil {
		s.refundCustody(ctx, recipient, receipt.Token, withdrawn)
		return models.EscrowReceipt{}, 0, err
	}

	epoch := s.clock.Epoch()
	s.publish(ctx, events.TopicEscrowWithdrawn, events.EscrowWithdrawn{
		Recipient: recipient,
		Index:     index,
		Token:     receipt.Token,
		Amount:    withdrawn,
		Remaining: remaining,
		Epoch:     epoch,
	})
	slog.Info("Escrow withdrawal",
		"recipient", recipient,
		"index", index,
		"amount", withdrawn,
		"remaining", remaining,
	)
	return *receipt, epoch, nil
}

// DepositInfo returns the receipt stored at (recipient, index).
func (s *EscrowService) DepositInfo(ctx context.Context, recipient string, index uint32) (models.EscrowReceipt, error) {
	receipt, err := s.store.Receipt(ctx, recipient, index)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.EscrowReceipt{}, ErrNoReceiptsFound
		}
		return models.EscrowReceipt{}, err
	}
	return *receipt, nil
}

// DepositIndex returns the number of deposits made for the recipient.
func (s *EscrowService) DepositIndex(ctx context.Context, recipient string) (uint32, error) {
	return s.store.ReceiptCount(ctx, recipient)
}

// refund reverses a depositor->custody transfer after a failed commit.
func (s *EscrowService) refund(ctx context.Context, account, token string, amount decimal.Decimal) {
	if err := s.treasury.Transfer(ctx, s.custody, account, token, amount); err != nil {
		slog.Error("Compensating refund failed; funds stranded in custody",
			"account", account, "token", token, "amount", amount, "error", err)
	}
}

// refundCustody reverses a custody->recipient transfer after a failed commit.
func (s *EscrowService) refundCustody(ctx context.Context, account, token string, amount decimal.Decimal) {
	if err := s.treasury.Transfer(ctx, account, s.custody, token, amount); err != nil {
		slog.Error("Compensating return to custody failed",
			"account", account, "token", token, "amount", amount, "error", err)
	}
}

func (s *EscrowService) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("Event publish failed", "topic", topic, "error", err)
	}
}
