package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/clock"
	"github.com/ehallmark/soroban-escrow-demo/internal/events"
	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/service"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage/memory"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

type fixture struct {
	server *httptest.Server
	jwt    *auth.JWTManager
	book   *treasury.AccountBook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	book := treasury.NewAccountBook()
	authz := auth.ContextAuthorizer{}
	clk := &clock.Manual{TS: 50000, Seq: 3}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	escrow := service.NewEscrowService(store, book, clk, authz, events.Noop{}, "custody")
	retainer := service.NewRetainerService(store, book, authz, events.Noop{}, "custody")

	ctx := auth.WithIdentity(context.Background(), "root")
	if err := escrow.Initialize(ctx, "root"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	h := New(escrow, retainer, book, authz)
	server := httptest.NewServer(h.Routes(jwtManager))
	t.Cleanup(server.Close)

	return &fixture{server: server, jwt: jwtManager, book: book}
}

func (f *fixture) request(t *testing.T, method, path, identity string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("request build failed: %v", err)
	}
	if identity != "" {
		token, err := f.jwt.Generate(identity)
		if err != nil {
			t.Fatalf("token generation failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}

func (f *fixture) mint(t *testing.T, account string, amount int64) {
	t.Helper()
	if err := f.book.Mint(context.Background(), account, "USDX", decimal.NewFromInt(amount)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
}

func TestEscrowEndpoints(t *testing.T) {
	f := newFixture(t)
	f.mint(t, "alice", 500)

	deposit := map[string]any{
		"depositor": "alice",
		"recipient": "bob",
		"token":     "USDX",
		"amount":    "100",
		"time_bound": map[string]any{
			"kind":      "after",
			"timestamp": 40000,
		},
	}

	t.Run("reinitialization maps to 409", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/escrow/admin", "", map[string]string{"admin": "usurper"})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("deposit requires a token", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/escrow/deposits", "", deposit)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("deposit requires the depositor's token", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/escrow/deposits", "mallory", deposit)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("deposit creates a receipt", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/escrow/deposits", "alice", deposit)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
		var body depositResponse
		decode(t, resp, &body)
		if !body.Receipt.Amount.Equal(decimal.NewFromInt(100)) || body.Receipt.Depositor != "alice" {
			t.Errorf("receipt = %+v", body.Receipt)
		}
		if body.Epoch == 0 {
			t.Error("epoch missing")
		}
	})

	t.Run("receipt queries need no auth", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/escrow/receipts/bob", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var body map[string]uint32
		decode(t, resp, &body)
		if body["count"] != 1 {
			t.Errorf("count = %d, want 1", body["count"])
		}

		resp = f.request(t, http.MethodGet, "/escrow/receipts/bob/1", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("missing receipt maps to 404", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/escrow/receipts/bob/9", "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("withdraw pays the recipient", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/escrow/withdrawals", "bob", map[string]any{
			"recipient": "bob",
			"index":     1,
			"amount":    "30",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		balance, _ := f.book.Balance(context.Background(), "bob", "USDX")
		if !balance.Equal(decimal.NewFromInt(30)) {
			t.Errorf("bob balance = %s, want 30", balance)
		}
	})

	t.Run("non-positive amounts map to 422", func(t *testing.T) {
		bad := map[string]any{
			"depositor": "alice", "recipient": "bob", "token": "USDX", "amount": "0",
			"time_bound": map[string]any{"kind": "after", "timestamp": 0},
		}
		resp := f.request(t, http.MethodPost, "/escrow/deposits", "alice", bad)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("locked receipt maps to 409", func(t *testing.T) {
		locked := map[string]any{
			"depositor": "alice", "recipient": "bob", "token": "USDX", "amount": "50",
			"time_bound": map[string]any{"kind": "after", "timestamp": 99999},
		}
		resp := f.request(t, http.MethodPost, "/escrow/deposits", "alice", locked)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("deposit status = %d", resp.StatusCode)
		}

		resp = f.request(t, http.MethodPost, "/escrow/withdrawals", "bob", map[string]any{
			"recipient": "bob",
			"index":     2,
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})
}

func TestRetainerEndpoints(t *testing.T) {
	f := newFixture(t)
	f.mint(t, "acme", 1000)

	t.Run("fund balance", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/retainers/acme/dev/balance", "acme", fundRequest{
			Amount: decimal.NewFromInt(100),
			Token:  "USDX",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var balance models.RetainerBalance
		decode(t, resp, &balance)
		if !balance.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("balance = %s, want 100", balance.Amount)
		}
	})

	t.Run("submit and view bill", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/retainers/acme/dev/bill", "dev", submitBillRequest{
			Amount: decimal.NewFromInt(49),
			Notes:  "march work",
			Date:   "2026-03-31",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}

		resp = f.request(t, http.MethodGet, "/retainers/acme/dev/bill", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var bill models.Bill
		decode(t, resp, &bill)
		if !bill.Amount.Equal(decimal.NewFromInt(49)) || bill.Token != "USDX" {
			t.Errorf("bill = %+v", bill)
		}
	})

	t.Run("second pending bill maps to 409", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/retainers/acme/dev/bill", "dev", submitBillRequest{
			Amount: decimal.NewFromInt(5),
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("resolve approved pays and records history", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/retainers/acme/dev/resolution", "acme", resolveBillRequest{
			Status: models.ApprovalApproved,
			Notes:  "approved",
			Date:   "2026-04-01",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}

		balance, _ := f.book.Balance(context.Background(), "dev", "USDX")
		if !balance.Equal(decimal.NewFromInt(49)) {
			t.Errorf("dev balance = %s, want 49", balance)
		}

		resp = f.request(t, http.MethodGet, "/retainers/acme/dev/receipts", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var history historyResponse
		decode(t, resp, &history)
		if history.LastIndex != 1 || len(history.Receipts) != 1 {
			t.Fatalf("history = %+v", history)
		}
		if history.Receipts[0].Status != models.ApprovalApproved {
			t.Errorf("status = %s", history.Receipts[0].Status)
		}
	})

	t.Run("resolve without pending bill maps to 404", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/retainers/acme/dev/resolution", "acme", resolveBillRequest{
			Status: models.ApprovalDenied,
		})
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("directory info round trip", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/retainees/dev", "dev", retaineeInfoRequest{
			Name:      "Devlin",
			Retainors: []string{"acme"},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		resp = f.request(t, http.MethodGet, "/retainees/dev", "", nil)
		var info models.RetaineeInfo
		decode(t, resp, &info)
		if info.Name != "Devlin" || len(info.Retainors) != 1 {
			t.Errorf("info = %+v", info)
		}
	})
}

func TestTreasuryEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("mint requires the admin", func(t *testing.T) {
		body := mintRequest{Account: "alice", Token: "USDX", Amount: decimal.NewFromInt(500)}
		resp := f.request(t, http.MethodPost, "/treasury/mint", "alice", body)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}

		resp = f.request(t, http.MethodPost, "/treasury/mint", "root", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("balance query", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/treasury/accounts/alice?token=USDX", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var body struct {
			Balance decimal.Decimal `json:"balance"`
		}
		decode(t, resp, &body)
		if !body.Balance.Equal(decimal.NewFromInt(500)) {
			t.Errorf("balance = %s, want 500", body.Balance)
		}
	})

	t.Run("missing token parameter", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/treasury/accounts/alice", "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
