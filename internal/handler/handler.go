// Package handler exposes the ledger operations over HTTP/JSON. Mutating
// routes sit behind bearer-token authentication so the caller identity is on
// the request context before a service consults the authorizer; read-only
// queries are open.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/middleware"
	"github.com/ehallmark/soroban-escrow-demo/internal/service"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
)

// Handler bundles the ledger services behind HTTP routes.
type Handler struct {
	escrow   *service.EscrowService
	retainer *service.RetainerService
	book     *treasury.AccountBook
	authz    auth.Authorizer
}

// New creates a Handler over the ledger services and the development
// treasury.
func New(escrow *service.EscrowService, retainer *service.RetainerService, book *treasury.AccountBook, authz auth.Authorizer) *Handler {
	return &Handler{
		escrow:   escrow,
		retainer: retainer,
		book:     book,
		authz:    authz,
	}
}

// Routes assembles the full router: logging and metrics on everything,
// bearer-token authentication on mutations only.
func (h *Handler) Routes(jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Open queries, plus the one-time admin seed.
	r.Group(func(r chi.Router) {
		r.Get("/escrow/admin", h.admin)
		r.Post("/escrow/admin", h.initialize)
		r.Get("/escrow/receipts/{recipient}", h.depositIndex)
		r.Get("/escrow/receipts/{recipient}/{index}", h.depositInfo)

		r.Get("/retainers/{retainor}/{retainee}/balance", h.viewBalance)
		r.Get("/retainers/{retainor}/{retainee}/bill", h.viewBill)
		r.Get("/retainers/{retainor}/{retainee}/receipts", h.viewHistory)
		r.Get("/retainers/{retainor}/{retainee}/receipts/{index}", h.viewReceipt)

		r.Get("/retainees/{retainee}", h.retaineeInfo)
		r.Get("/retainors/{retainor}", h.retainorInfo)

		r.Get("/treasury/accounts/{account}", h.accountBalance)
	})

	// Authenticated mutations.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtManager))

		r.Put("/escrow/admin", h.setAdmin)
		r.Post("/escrow/deposits", h.deposit)
		r.Post("/escrow/withdrawals", h.withdraw)

		r.Post("/retainers/{retainor}/{retainee}/balance", h.fundBalance)
		r.Post("/retainers/{retainor}/{retainee}/bill", h.submitBill)
		r.Delete("/retainers/{retainor}/{retainee}/bill", h.unsubmitBill)
		r.Post("/retainers/{retainor}/{retainee}/resolution", h.resolveBill)

		r.Put("/retainees/{retainee}", h.setRetaineeInfo)
		r.Put("/retainors/{retainor}", h.setRetainorInfo)

		r.Post("/treasury/mint", h.mint)
	})

	return r
}
