package messaging

import (
	"context"
	"sync"

	"github.com/viant/mspar/model"
)

// Mailbox is the receive side of a transport endpoint. Messages are kept in
// arrival order; matching by (source, tag) preserves per-sender ordering.
// Waiters block on a broadcast channel that is replaced on every delivery, so
// nothing ever spins.
type Mailbox struct {
	mu      sync.Mutex
	pending []*Message
	arrived chan struct{}
	closed  bool
	err     error
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{arrived: make(chan struct{})}
}

// Deliver appends msg and wakes all waiters.
func (m *Mailbox) Deliver(msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return m.closedErr()
	}
	m.pending = append(m.pending, msg)
	close(m.arrived)
	m.arrived = make(chan struct{})
	return nil
}

// Close rejects further deliveries and releases waiters with cause, or
// ErrClosed when cause is nil.
func (m *Mailbox) Close(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.err = cause
	close(m.arrived)
}

// Take removes and returns the oldest message matching src and tag.
func (m *Mailbox) Take(ctx context.Context, src int, tag model.Tag) (*Message, error) {
	return m.wait(ctx, src, tag, true)
}

// Peek returns the oldest message matching src and tag without removing it.
func (m *Mailbox) Peek(ctx context.Context, src int, tag model.Tag) (*Message, error) {
	return m.wait(ctx, src, tag, false)
}

// Ready returns the oldest message matching src and tag if one has already
// arrived; it never waits.
func (m *Mailbox) Ready(src int, tag model.Tag) (*Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg := m.match(src, tag); msg >= 0 {
		return m.pending[msg], true
	}
	return nil, false
}

// Len returns the number of undelivered messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Mailbox) wait(ctx context.Context, src int, tag model.Tag, consume bool) (*Message, error) {
	for {
		m.mu.Lock()
		if i := m.match(src, tag); i >= 0 {
			msg := m.pending[i]
			if consume {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
			}
			m.mu.Unlock()
			return msg, nil
		}
		if m.closed {
			err := m.closedErr()
			m.mu.Unlock()
			return nil, err
		}
		arrived := m.arrived
		m.mu.Unlock()

		select {
		case <-arrived:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Mailbox) match(src int, tag model.Tag) int {
	for i, msg := range m.pending {
		if msg.Tag == tag && (src == AnySource || msg.Source == src) {
			return i
		}
	}
	return -1
}

func (m *Mailbox) closedErr() error {
	if m.err != nil {
		return m.err
	}
	return ErrClosed
}
