// Package activity tracks which ranks are busy and picks the next idle one.
//
// The tracker has exactly one writer, the dispatcher, and therefore carries no
// locking.
package activity

import "fmt"

// State is the activity of one rank.
type State int

const (
	Idle State = iota
	Busy
)

func (s State) String() string {
	if s == Busy {
		return "busy"
	}
	return "idle"
}

// Tracker is a per-rank busy/idle bitmap.
type Tracker struct {
	states             []State
	includeCoordinator bool
	busy               int
}

// New creates a tracker for poolSize ranks. Rank 0 is only ever selected when
// includeCoordinator is set.
func New(poolSize int, includeCoordinator bool) *Tracker {
	if poolSize < 0 {
		poolSize = 0
	}
	return &Tracker{states: make([]State, poolSize), includeCoordinator: includeCoordinator}
}

// Size returns the pool size.
func (t *Tracker) Size() int { return len(t.states) }

// Eligible reports whether rank can receive work.
func (t *Tracker) Eligible(rank int) bool {
	if rank < t.first() || rank >= len(t.states) {
		return false
	}
	return true
}

// State returns the activity of rank.
func (t *Tracker) State(rank int) State {
	return t.states[rank]
}

// BusyCount returns the number of busy ranks.
func (t *Tracker) BusyCount() int { return t.busy }

// MarkBusy records an assignment to rank.
func (t *Tracker) MarkBusy(rank int) error {
	if !t.Eligible(rank) {
		return fmt.Errorf("rank %d is not eligible for work", rank)
	}
	if t.states[rank] == Busy {
		return fmt.Errorf("rank %d already has an outstanding assignment", rank)
	}
	t.states[rank] = Busy
	t.busy++
	return nil
}

// MarkIdle records the completion of rank's batch.
func (t *Tracker) MarkIdle(rank int) error {
	if rank < 0 || rank >= len(t.states) || t.states[rank] != Busy {
		return fmt.Errorf("rank %d is not busy", rank)
	}
	t.states[rank] = Idle
	t.busy--
	return nil
}

// FindIdle scans circularly starting right after lastAssigned and returns the
// first idle eligible rank; lastAssigned itself is the last candidate.
func (t *Tracker) FindIdle(lastAssigned int) (int, bool) {
	size := len(t.states)
	first := t.first()
	if size <= first {
		return 0, false
	}
	if lastAssigned < first || lastAssigned >= size {
		lastAssigned = size - 1
	}
	for i := lastAssigned + 1; i < size; i++ {
		if t.states[i] == Idle {
			return i, true
		}
	}
	for i := first; i <= lastAssigned; i++ {
		if t.states[i] == Idle {
			return i, true
		}
	}
	return 0, false
}

func (t *Tracker) first() int {
	if t.includeCoordinator {
		return 0
	}
	return 1
}
