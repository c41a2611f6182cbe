// Package timelock evaluates the time predicates that gate escrow
// withdrawal. It is pure: no clock access, no side effects.
package timelock

import "github.com/ehallmark/soroban-escrow-demo/internal/models"

// Holds reports whether the bound permits action at the given time.
//
//	Before(t): now <= t
//	After(t):  now >= t
//
// An unknown kind never holds.
func Holds(bound models.TimeBound, now uint64) bool {
	switch bound.Kind {
	case models.TimeBoundBefore:
		return now <= bound.Timestamp
	case models.TimeBoundAfter:
		return now >= bound.Timestamp
	default:
		return false
	}
}
