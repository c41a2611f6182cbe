package models

import "github.com/shopspring/decimal"

// ApprovalStatus is the outcome of a bill resolution.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// Valid reports whether s is one of the defined outcomes.
func (s ApprovalStatus) Valid() bool {
	return s == ApprovalApproved || s == ApprovalDenied
}

// RetainerBalance is the pre-funded balance for a (retainor, retainee) pair.
// The token is fixed on first funding; later funding must use the same token.
type RetainerBalance struct {
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
}

// Bill is the single pending claim a retainee has submitted against a
// retainor's balance. The token is taken from the balance, not the caller.
type Bill struct {
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
	Notes  string          `json:"notes"`
	Date   string          `json:"date"`
}

// RetainerReceipt is the immutable history record of a resolved bill.
// One is appended per resolution regardless of the outcome.
type RetainerReceipt struct {
	Bill   Bill           `json:"bill"`
	Notes  string         `json:"notes"`
	Date   string         `json:"date"`
	Status ApprovalStatus `json:"status"`
}

// RetaineeInfo is the directory record a retainee keeps about itself.
// Retainors is an ordered list; no cross-check against RetainorInfo records.
type RetaineeInfo struct {
	Name      string   `json:"name"`
	Retainors []string `json:"retainors"`
}

// RetainorInfo is the directory record a retainor keeps about itself.
type RetainorInfo struct {
	Name      string   `json:"name"`
	Retainees []string `json:"retainees"`
}
