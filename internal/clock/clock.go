// Package clock provides the ledger clock collaborator: a wall-clock-like
// timestamp and a monotonic epoch counter. Both are read-only from the
// core's point of view.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock supplies the two time sources escrow operations consume.
type Clock interface {
	// Timestamp returns the current wall-clock-like time in Unix seconds.
	Timestamp() uint64

	// Epoch returns a monotonic sequence marker. Successive calls never
	// go backwards.
	Epoch() uint64
}

// System is the production clock. Timestamps come from the OS clock;
// epochs from an in-process monotonic counter.
type System struct {
	epoch atomic.Uint64
}

// NewSystem returns a System clock with the epoch counter at zero.
func NewSystem() *System {
	return &System{}
}

func (s *System) Timestamp() uint64 {
	return uint64(time.Now().Unix())
}

func (s *System) Epoch() uint64 {
	return s.epoch.Add(1)
}

// Manual is a settable clock for tests.
type Manual struct {
	TS  uint64
	Seq uint64
}

func (m *Manual) Timestamp() uint64 { return m.TS }
func (m *Manual) Epoch() uint64     { return m.Seq }
