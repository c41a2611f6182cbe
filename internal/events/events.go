// Package events defines the domain events emitted after committed ledger
// mutations, and the Publisher interface adapters implement. Publishing is
// best-effort: a failed publish is logged by the caller and never unwinds a
// committed operation.
package events

import (
	"context"

	"github.com/shopspring/decimal"
)

// Topics, one per event type.
const (
	TopicEscrowDeposited = "escrow_deposited"
	TopicEscrowWithdrawn = "escrow_withdrawn"
	TopicRetainerFunded  = "retainer_funded"
	TopicBillSubmitted   = "bill_submitted"
	TopicBillResolved    = "bill_resolved"
)

// Publisher delivers an event payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// EscrowDeposited is emitted after a deposit commits.
type EscrowDeposited struct {
	Depositor string          `json:"depositor"`
	Recipient string          `json:"recipient"`
	Index     uint32          `json:"index"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Epoch     uint64          `json:"epoch"`
}

// EscrowWithdrawn is emitted after a withdrawal commits. Remaining is the
// amount still held; zero means the receipt was removed.
type EscrowWithdrawn struct {
	Recipient string          `json:"recipient"`
	Index     uint32          `json:"index"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
	Epoch     uint64          `json:"epoch"`
}

// RetainerFunded is emitted after a balance funding commits.
type RetainerFunded struct {
	Retainor string          `json:"retainor"`
	Retainee string          `json:"retainee"`
	Token    string          `json:"token"`
	Amount   decimal.Decimal `json:"amount"`
	Balance  decimal.Decimal `json:"balance"`
}

// BillSubmitted is emitted after a bill submission commits.
type BillSubmitted struct {
	Retainor string          `json:"retainor"`
	Retainee string          `json:"retainee"`
	Token    string          `json:"token"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
}

// BillResolved is emitted after a bill resolution commits, approved or
// denied.
type BillResolved struct {
	Retainor string          `json:"retainor"`
	Retainee string          `json:"retainee"`
	Status   string          `json:"status"`
	Token    string          `json:"token"`
	Amount   decimal.Decimal `json:"amount"`
	Index    uint32          `json:"index"`
}

// Noop is a Publisher that discards everything. Used when no broker is
// configured and in tests.
type Noop struct{}

func (Noop) Publish(ctx context.Context, topic string, event any) error { return nil }
