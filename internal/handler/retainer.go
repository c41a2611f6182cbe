package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
)

func pair(r *http.Request) (retainor, retainee string) {
	return chi.URLParam(r, "retainor"), chi.URLParam(r, "retainee")
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
}

func (h *Handler) fundBalance(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	var req fundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.retainer.AddRetainerBalance(r.Context(), retainor, retainee, req.Amount, req.Token); err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.retainer.RetainerBalance(r.Context(), retainor, retainee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *Handler) viewBalance(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	balance, err := h.retainer.RetainerBalance(r.Context(), retainor, retainee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

type submitBillRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
	Date   string          `json:"date"`
}

func (h *Handler) submitBill(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	var req submitBillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.retainer.SubmitBill(r.Context(), retainor, retainee, req.Amount, req.Notes, req.Date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (h *Handler) unsubmitBill(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	if err := h.retainer.UnsubmitBill(r.Context(), retainor, retainee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) viewBill(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	bill, err := h.retainer.ViewBill(r.Context(), retainor, retainee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

type resolveBillRequest struct {
	Status models.ApprovalStatus `json:"status"`
	Notes  string                `json:"notes"`
	Date   string                `json:"date"`
}

func (h *Handler) resolveBill(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	var req resolveBillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.retainer.ResolveBill(r.Context(), retainor, retainee, req.Status, req.Notes, req.Date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (h *Handler) viewReceipt(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	index, ok := parseIndex(w, chi.URLParam(r, "index"))
	if !ok {
		return
	}

	receipt, err := h.retainer.ViewReceipt(r.Context(), retainor, retainee, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type historyResponse struct {
	Receipts  []models.RetainerReceipt `json:"receipts"`
	LastIndex uint32                   `json:"last_index"`
}

// viewHistory serves the receipt history. With start and end query parameters
// it returns that inclusive index range; otherwise it returns the most recent
// limit entries, or everything when limit is absent or zero.
func (h *Handler) viewHistory(w http.ResponseWriter, r *http.Request) {
	retainor, retainee := pair(r)
	query := r.URL.Query()

	var (
		receipts []models.RetainerReceipt
		err      error
	)
	if query.Has("start") || query.Has("end") {
		start, ok := parseQueryIndex(w, query.Get("start"))
		if !ok {
			return
		}
		end, ok := parseQueryIndex(w, query.Get("end"))
		if !ok {
			return
		}
		receipts, err = h.retainer.ViewReceiptHistoryRange(r.Context(), retainor, retainee, start, end)
	} else {
		limit, ok := parseQueryIndex(w, query.Get("limit"))
		if !ok {
			return
		}
		receipts, err = h.retainer.ViewReceiptHistory(r.Context(), retainor, retainee, limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	lastIndex, err := h.retainer.HistoryIndex(r.Context(), retainor, retainee)
	if err != nil {
		writeError(w, err)
		return
	}
	if receipts == nil {
		receipts = []models.RetainerReceipt{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Receipts: receipts, LastIndex: lastIndex})
}

func parseQueryIndex(w http.ResponseWriter, raw string) (uint32, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid query parameter"})
		return 0, false
	}
	return uint32(value), true
}

type retaineeInfoRequest struct {
	Name      string   `json:"name"`
	Retainors []string `json:"retainors"`
}

func (h *Handler) setRetaineeInfo(w http.ResponseWriter, r *http.Request) {
	retainee := chi.URLParam(r, "retainee")
	var req retaineeInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.retainer.SetRetaineeInfo(r.Context(), retainee, req.Name, req.Retainors); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) retaineeInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.retainer.RetaineeInfo(r.Context(), chi.URLParam(r, "retainee"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type retainorInfoRequest struct {
	Name      string   `json:"name"`
	Retainees []string `json:"retainees"`
}

func (h *Handler) setRetainorInfo(w http.ResponseWriter, r *http.Request) {
	retainor := chi.URLParam(r, "retainor")
	var req retainorInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.retainer.SetRetainorInfo(r.Context(), retainor, req.Name, req.Retainees); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) retainorInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.retainer.RetainorInfo(r.Context(), chi.URLParam(r, "retainor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
