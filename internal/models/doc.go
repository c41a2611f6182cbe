// Package models defines the core domain records for the custody ledger.
//
// # Escrow records
//
//   - EscrowReceipt: a time-locked claim on deposited funds, keyed by
//     (recipient, index). The index space per recipient starts at 1 and grows
//     by one per deposit.
//   - TimeBound: a Before/After timestamp predicate gating withdrawal.
//
// # Retainer records
//
//   - RetainerBalance: the pre-funded balance for a (retainor, retainee)
//     pair. It grows only through funding and shrinks only through an
//     approved bill resolution.
//   - Bill: the single pending claim for a pair. At most one exists at a
//     time; resolution or cancellation always clears it.
//   - RetainerReceipt: an immutable record of a resolved bill, appended to
//     the pair's history whether the bill was approved or denied.
//   - RetaineeInfo / RetainorInfo: directory metadata each party maintains
//     about itself. The two sides are not cross-checked; keeping the lists
//     consistent is the caller's job.
//
// # Design principles
//
//  1. Parties are opaque identity strings; the ledger never interprets them.
//  2. Amounts are exact decimals bounded to the signed 128-bit integer range
//     (see amount.go); arithmetic on stored balances is always checked.
//  3. Records are plain values. All workflow rules live in internal/service.
package models
