package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/clock"
	"github.com/ehallmark/soroban-escrow-demo/internal/events"
	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage/memory"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

const custodyAccount = "custody"

func asIdentity(id string) context.Context {
	return auth.WithIdentity(context.Background(), id)
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

type escrowFixture struct {
	svc   *EscrowService
	book  *treasury.AccountBook
	clock *clock.Manual
}

func newEscrowFixture(t *testing.T) *escrowFixture {
	t.Helper()
	book := treasury.NewAccountBook()
	clk := &clock.Manual{TS: 12345, Seq: 7}
	svc := NewEscrowService(memory.New(), book, clk, auth.ContextAuthorizer{}, events.Noop{}, custodyAccount)
	return &escrowFixture{svc: svc, book: book, clock: clk}
}

func (f *escrowFixture) fund(t *testing.T, account string, amount int64) {
	t.Helper()
	if err := f.book.Mint(context.Background(), account, "USDX", dec(amount)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
}

func (f *escrowFixture) balance(t *testing.T, account string) decimal.Decimal {
	t.Helper()
	got, err := f.book.Balance(context.Background(), account, "USDX")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return got
}

func afterBound(ts uint64) models.TimeBound {
	return models.TimeBound{Kind: models.TimeBoundAfter, Timestamp: ts}
}

func TestEscrowDeposit(t *testing.T) {
	t.Run("writes receipt and bumps count", func(t *testing.T) {
		f := newEscrowFixture(t)
		f.fund(t, "alice", 200)
		ctx := asIdentity("alice")

		receipt, epoch, err := f.svc.Deposit(ctx, "alice", "bob", "USDX", dec(100), afterBound(12344))
		if err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
		if !receipt.Amount.Equal(dec(100)) || receipt.Depositor != "alice" || receipt.Token != "USDX" {
			t.Errorf("unexpected receipt: %+v", receipt)
		}
		if epoch != 7 {
			t.Errorf("epoch = %d, want 7", epoch)
		}

		count, err := f.svc.DepositIndex(ctx, "bob")
		if err != nil {
			t.Fatalf("DepositIndex failed: %v", err)
		}
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
		if got := f.balance(t, custodyAccount); !got.Equal(dec(100)) {
			t.Errorf("custody balance = %s, want 100", got)
		}
		if got := f.balance(t, "alice"); !got.Equal(dec(100)) {
			t.Errorf("alice balance = %s, want 100", got)
		}
	})

	t.Run("indices grow by one per deposit", func(t *testing.T) {
		f := newEscrowFixture(t)
		f.fund(t, "alice", 300)
		ctx := asIdentity("alice")

		for i := 1; i <= 3; i++ {
			if _, _, err := f.svc.Deposit(ctx, "alice", "bob", "USDX", dec(10), afterBound(0)); err != nil {
				t.Fatalf("Deposit %d failed: %v", i, err)
			}
			count, _ := f.svc.DepositIndex(ctx, "bob")
			if count != uint32(i) {
				t.Errorf("after deposit %d count = %d", i, count)
			}
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newEscrowFixture(t)
		ctx := asIdentity("alice")

		for _, amount := range []int64{0, -5} {
			_, _, err := f.svc.Deposit(ctx, "alice", "bob", "USDX", dec(amount), afterBound(0))
			if !errors.Is(err, ErrNegativeAmount) {
				t.Errorf("Deposit(%d): expected ErrNegativeAmount, got %v", amount, err)
			}
		}
	})

	t.Run("requires depositor authorization", func(t *testing.T) {
		f := newEscrowFixture(t)
		f.fund(t, "alice", 100)

		_, _, err := f.svc.Deposit(asIdentity("mallory"), "alice", "bob", "USDX", dec(10), afterBound(0))
		if !errors.Is(err, auth.ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
		count, _ := f.svc.DepositIndex(context.Background(), "bob")
		if count != 0 {
			t.Errorf("count = %d after rejected deposit, want 0", count)
		}
	})

	t.Run("failed transfer leaves no receipt", func(t *testing.T) {
		f := newEscrowFixture(t)
		// alice holds nothing, so the transfer into custody must fail.
		_, _, err := f.svc.Deposit(asIdentity("alice"), "alice", "bob", "USDX", dec(10), afterBound(0))
		if !errors.Is(err, treasury.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		count, _ := f.svc.DepositIndex(context.Background(), "bob")
		if count != 0 {
			t.Errorf("count = %d after failed deposit, want 0", count)
		}
		if _, err := f.svc.DepositInfo(context.Background(), "bob", 1); !errors.Is(err, ErrNoReceiptsFound) {
			t.Errorf("expected no receipt, got %v", err)
		}
	})
}

func TestEscrowWithdraw(t *testing.T) {
	deposit := func(t *testing.T, f *escrowFixture, amount int64, bound models.TimeBound) {
		t.Helper()
		f.fund(t, "alice", amount)
		if _, _, err := f.svc.Deposit(asIdentity("alice"), "alice", "bob", "USDX", dec(amount), bound); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}

	t.Run("full withdrawal removes the receipt", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(12344))

		receipt, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, nil)
		if err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if !receipt.Amount.Equal(dec(100)) {
			t.Errorf("returned snapshot amount = %s, want original 100", receipt.Amount)
		}
		if got := f.balance(t, "bob"); !got.Equal(dec(100)) {
			t.Errorf("bob balance = %s, want 100", got)
		}
		if _, err := f.svc.DepositInfo(context.Background(), "bob", 1); !errors.Is(err, ErrNoReceiptsFound) {
			t.Errorf("receipt should be gone, got %v", err)
		}
		// Count is a high-water mark, not a live receipt tally.
		count, _ := f.svc.DepositIndex(context.Background(), "bob")
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
	})

	t.Run("partial withdrawal rewrites the remainder", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(12344))

		part := dec(30)
		receipt, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, &part)
		if err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if !receipt.Amount.Equal(dec(100)) {
			t.Errorf("snapshot amount = %s, want 100", receipt.Amount)
		}

		left, err := f.svc.DepositInfo(context.Background(), "bob", 1)
		if err != nil {
			t.Fatalf("DepositInfo failed: %v", err)
		}
		if !left.Amount.Equal(dec(70)) {
			t.Errorf("remaining amount = %s, want 70", left.Amount)
		}
		if left.Depositor != "alice" || left.Token != "USDX" || left.TimeBound != afterBound(12344) {
			t.Errorf("remainder changed non-amount fields: %+v", left)
		}
	})

	t.Run("exact-amount withdrawal removes the receipt", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(0))

		all := dec(100)
		if _, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, &all); err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if _, err := f.svc.DepositInfo(context.Background(), "bob", 1); !errors.Is(err, ErrNoReceiptsFound) {
			t.Errorf("receipt should be gone, got %v", err)
		}
	})

	t.Run("time predicate gates withdrawal", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(20000))

		_, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, nil)
		if !errors.Is(err, ErrTimePredicateUnfulfilled) {
			t.Fatalf("expected ErrTimePredicateUnfulfilled, got %v", err)
		}
		if got := f.balance(t, "bob"); !got.IsZero() {
			t.Errorf("bob balance = %s after failed withdraw, want 0", got)
		}

		f.clock.TS = 20000
		if _, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, nil); err != nil {
			t.Errorf("Withdraw at bound failed: %v", err)
		}
	})

	t.Run("before bound expires", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, models.TimeBound{Kind: models.TimeBoundBefore, Timestamp: 12000})

		_, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, nil)
		if !errors.Is(err, ErrTimePredicateUnfulfilled) {
			t.Errorf("expected ErrTimePredicateUnfulfilled, got %v", err)
		}
	})

	t.Run("missing receipt", func(t *testing.T) {
		f := newEscrowFixture(t)
		_, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 3, nil)
		if !errors.Is(err, ErrNoReceiptsFound) {
			t.Errorf("expected ErrNoReceiptsFound, got %v", err)
		}
	})

	t.Run("negative and excessive amounts", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(0))

		neg := dec(-1)
		if _, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, &neg); !errors.Is(err, ErrNegativeAmount) {
			t.Errorf("negative: expected ErrNegativeAmount, got %v", err)
		}
		over := dec(101)
		if _, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, &over); !errors.Is(err, ErrNegativeAmount) {
			t.Errorf("excessive: expected ErrNegativeAmount, got %v", err)
		}
	})

	t.Run("requires recipient authorization", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(0))

		_, _, err := f.svc.Withdraw(asIdentity("alice"), "bob", 1, nil)
		if !errors.Is(err, auth.ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
	})

	t.Run("further deposits continue the index sequence", func(t *testing.T) {
		f := newEscrowFixture(t)
		deposit(t, f, 100, afterBound(0))

		if _, _, err := f.svc.Withdraw(asIdentity("bob"), "bob", 1, nil); err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}

		f.fund(t, "alice", 50)
		if _, _, err := f.svc.Deposit(asIdentity("alice"), "alice", "bob", "USDX", dec(50), afterBound(0)); err != nil {
			t.Fatalf("second Deposit failed: %v", err)
		}
		count, _ := f.svc.DepositIndex(context.Background(), "bob")
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})
}

func TestEscrowAdmin(t *testing.T) {
	t.Run("initialize once", func(t *testing.T) {
		f := newEscrowFixture(t)
		ctx := context.Background()

		if err := f.svc.Initialize(ctx, "root"); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		admin, err := f.svc.Admin(ctx)
		if err != nil || admin != "root" {
			t.Errorf("Admin() = %q, %v; want root", admin, err)
		}
		if err := f.svc.Initialize(ctx, "other"); err == nil {
			t.Error("second Initialize should fail")
		}
	})

	t.Run("set admin is self-authorized", func(t *testing.T) {
		f := newEscrowFixture(t)
		if err := f.svc.Initialize(context.Background(), "root"); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if err := f.svc.SetAdmin(asIdentity("mallory"), "mallory"); !errors.Is(err, auth.ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
		if err := f.svc.SetAdmin(asIdentity("root"), "root2"); err != nil {
			t.Fatalf("SetAdmin failed: %v", err)
		}
		admin, _ := f.svc.Admin(context.Background())
		if admin != "root2" {
			t.Errorf("admin = %q, want root2", admin)
		}
	})
}
