package messaging

import (
	"context"
	"errors"

	"github.com/viant/mspar/model"
)

// AnySource matches a message from any sender.
const AnySource = -1

var (
	// ErrClosed is returned by operations on a finalized transport.
	ErrClosed = errors.New("messaging: transport closed")

	// ErrInvalidRank is returned when a rank is outside the group or not
	// reachable from the caller.
	ErrInvalidRank = errors.New("messaging: invalid rank")
)

// Transport is one rank's view of a fixed process group: reliable, ordered
// point-to-point messaging plus a one-shot scatter.
type Transport interface {
	// Rank returns the caller's rank.
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Send delivers payload to dst without waiting for the receiver. The
	// payload is owned by the transport once passed in.
	Send(ctx context.Context, dst int, tag model.Tag, payload []byte) error

	// Recv blocks until a message with tag arrives from src (or AnySource)
	// and consumes it.
	Recv(ctx context.Context, src int, tag model.Tag) (*Message, error)

	// ProbeAny blocks until a message with tag is available from any sender
	// and returns the sender without consuming the message.
	ProbeAny(ctx context.Context, tag model.Tag) (int, error)

	// Ready reports the sender of a message with tag that has already
	// arrived, without waiting and without consuming it.
	Ready(tag model.Tag) (int, bool)

	// Scatter hands payloads[i] to rank i. Every rank must call it; only
	// root's payloads are used. It returns the caller's own payload.
	Scatter(ctx context.Context, root int, payloads [][]byte) ([]byte, error)

	// Close finalizes the caller's membership in the group.
	Close() error
}

// Message is a received payload with its envelope.
type Message struct {
	Source  int
	Tag     model.Tag
	Payload []byte
}
