package progress

import (
	"sync"
	"time"

	"github.com/viant/mspar/internal/clock"
)

// Delta is an incremental counter change; fields may be negative.
type Delta struct {
	Assigned  int
	Completed int
	Pending   int
	Batches   int
}

// Counters is a point-in-time view of a run.
type Counters struct {
	RunID     string
	StartedAt time.Time

	Total     int
	Assigned  int
	Completed int
	Pending   int
	Batches   int
}

// Done reports whether every replicate has been confirmed.
func (c Counters) Done() bool {
	return c.Pending == 0 && c.Completed == c.Total
}

// Progress aggregates replicate counters for one run. It is safe for
// concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for total replicates, all of them pending.
func New(runID string, total int, onChange func(Counters)) *Progress {
	return &Progress{
		counters: Counters{
			RunID:     runID,
			StartedAt: clock.Now(),
			Total:     total,
			Pending:   total,
		},
		onChange: onChange,
	}
}

// Update applies d and invokes the OnChange callback, if any, outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.counters.Assigned += d.Assigned
	p.counters.Completed += d.Completed
	p.counters.Pending += d.Pending
	p.counters.Batches += d.Batches
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// Done reports whether every replicate has been confirmed.
func (p *Progress) Done() bool {
	return p.Snapshot().Done()
}

// Elapsed returns the time since the tracker was created.
func (p *Progress) Elapsed() time.Duration {
	if p == nil {
		return 0
	}
	return clock.Since(p.Snapshot().StartedAt)
}

// OnChange replaces the change callback; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
