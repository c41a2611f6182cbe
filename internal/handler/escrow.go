package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
)

type depositRequest struct {
	Depositor string           `json:"depositor"`
	Recipient string           `json:"recipient"`
	Token     string           `json:"token"`
	Amount    decimal.Decimal  `json:"amount"`
	TimeBound models.TimeBound `json:"time_bound"`
}

type depositResponse struct {
	Receipt models.EscrowReceipt `json:"receipt"`
	Epoch   uint64               `json:"epoch"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, epoch, err := h.escrow.Deposit(r.Context(), req.Depositor, req.Recipient, req.Token, req.Amount, req.TimeBound)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{Receipt: receipt, Epoch: epoch})
}

type withdrawRequest struct {
	Recipient string           `json:"recipient"`
	Index     uint32           `json:"index"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, epoch, err := h.escrow.Withdraw(r.Context(), req.Recipient, req.Index, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositResponse{Receipt: receipt, Epoch: epoch})
}

func (h *Handler) depositInfo(w http.ResponseWriter, r *http.Request) {
	recipient := chi.URLParam(r, "recipient")
	index, ok := parseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}

	receipt, err := h.escrow.DepositInfo(r.Context(), recipient, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) depositIndex(w http.ResponseWriter, r *http.Request) {
	count, err := h.escrow.DepositIndex(r.Context(), chi.URLParam(r, "recipient"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"count": count})
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.escrow.Admin(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": admin})
}

// initialize seeds the admin identity. It succeeds exactly once; the ledger
// rejects re-initialization.
func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin string `json:"admin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Admin == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "admin required"})
		return
	}

	if err := h.escrow.Initialize(r.Context(), req.Admin); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"admin": req.Admin})
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin string `json:"admin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.escrow.SetAdmin(r.Context(), req.Admin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": req.Admin})
}

func parseIndex(w http.ResponseWriter, raw string) (uint32, bool) {
	index, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid index"})
		return 0, false
	}
	return uint32(index), true
}
