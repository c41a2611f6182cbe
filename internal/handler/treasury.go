package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type mintRequest struct {
	Account string          `json:"account"`
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
}

// mint credits an account with new units of a token. Only the ledger admin
// may mint.
func (h *Handler) mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !decodeBody(w, r, &req) {
		return
	}

	admin, err := h.escrow.Admin(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.authz.RequireAuth(r.Context(), admin); err != nil {
		writeError(w, err)
		return
	}

	if err := h.book.Mint(r.Context(), req.Account, req.Token, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.book.Balance(r.Context(), req.Account, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": req.Account,
		"token":   req.Token,
		"balance": balance,
	})
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token query parameter required"})
		return
	}

	balance, err := h.book.Balance(r.Context(), account, token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"token":   token,
		"balance": balance,
	})
}
