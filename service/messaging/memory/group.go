// Package memory provides an in-process transport: every rank is a goroutine
// holding one Endpoint of a shared Group.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/messaging"
)

// Group is a fixed set of connected endpoints.
type Group struct {
	endpoints []*Endpoint
}

// NewGroup creates a group of size ranks.
func NewGroup(size int) (*Group, error) {
	if size <= 0 {
		return nil, fmt.Errorf("group size must be > 0, got %d", size)
	}
	g := &Group{endpoints: make([]*Endpoint, size)}
	for rank := range g.endpoints {
		g.endpoints[rank] = &Endpoint{rank: rank, group: g, box: messaging.NewMailbox()}
	}
	return g, nil
}

// Size returns the number of ranks.
func (g *Group) Size() int { return len(g.endpoints) }

// Endpoint returns rank's transport.
func (g *Group) Endpoint(rank int) *Endpoint {
	return g.endpoints[rank]
}

// Close finalizes every endpoint.
func (g *Group) Close() error {
	for _, e := range g.endpoints {
		_ = e.Close()
	}
	return nil
}

// Endpoint implements messaging.Transport for one rank.
type Endpoint struct {
	rank   int
	group  *Group
	box    *messaging.Mailbox
	closed int32
}

func (e *Endpoint) Rank() int { return e.rank }

func (e *Endpoint) Size() int { return len(e.group.endpoints) }

// Send hands payload over to dst's mailbox; it never waits for the receiver.
func (e *Endpoint) Send(ctx context.Context, dst int, tag model.Tag, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if atomic.LoadInt32(&e.closed) == 1 {
		return messaging.ErrClosed
	}
	if dst < 0 || dst >= len(e.group.endpoints) {
		return fmt.Errorf("%w: %d", messaging.ErrInvalidRank, dst)
	}
	target := e.group.endpoints[dst]
	if err := target.box.Deliver(&messaging.Message{Source: e.rank, Tag: tag, Payload: payload}); err != nil {
		return fmt.Errorf("failed to deliver %v to rank %d: %w", tag, dst, err)
	}
	return nil
}

func (e *Endpoint) Recv(ctx context.Context, src int, tag model.Tag) (*messaging.Message, error) {
	return e.box.Take(ctx, src, tag)
}

func (e *Endpoint) ProbeAny(ctx context.Context, tag model.Tag) (int, error) {
	msg, err := e.box.Peek(ctx, messaging.AnySource, tag)
	if err != nil {
		return 0, err
	}
	return msg.Source, nil
}

// Pending returns the number of undelivered messages queued for this rank.
func (e *Endpoint) Pending() int { return e.box.Len() }

func (e *Endpoint) Ready(tag model.Tag) (int, bool) {
	msg, ok := e.box.Ready(messaging.AnySource, tag)
	if !ok {
		return 0, false
	}
	return msg.Source, true
}

func (e *Endpoint) Scatter(ctx context.Context, root int, payloads [][]byte) ([]byte, error) {
	return messaging.Scatter(ctx, e, root, payloads)
}

// Close finalizes the endpoint; pending receives fail with messaging.ErrClosed.
func (e *Endpoint) Close() error {
	if atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		e.box.Close(nil)
	}
	return nil
}

var _ messaging.Transport = (*Endpoint)(nil)
