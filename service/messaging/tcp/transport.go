// Package tcp provides a network transport with a star topology: every worker
// holds one connection to the coordinator, which is all the dispatch protocol
// needs. The first frame on a connection is a hello carrying the worker rank.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/messaging"
)

// Transport implements messaging.Transport over TCP.
type Transport struct {
	rank     int
	size     int
	peers    map[int]*conn
	box      *messaging.Mailbox
	mu       sync.Mutex
	live     int
	closing  bool
	listener net.Listener
}

// Listener accepts worker connections for the coordinator.
type Listener struct {
	listener net.Listener
}

// NewListener binds address.
func NewListener(ctx context.Context, address string) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return &Listener{listener: l}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.listener.Addr() }

// Accept waits for ranks 1..size-1 to connect and returns the coordinator
// transport.
func (l *Listener) Accept(ctx context.Context, size int) (*Transport, error) {
	if size <= 0 {
		return nil, fmt.Errorf("group size must be > 0, got %d", size)
	}
	t := newTransport(model.CoordinatorRank, size)
	t.listener = l.listener

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.listener.Close()
		case <-stop:
		}
	}()

	for len(t.peers) < size-1 {
		c, err := l.listener.Accept()
		if err != nil {
			t.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to accept worker: %w", err)
		}
		peer := newConn(c)
		rank, err := readHello(peer)
		if err == nil && (rank <= model.CoordinatorRank || rank >= size) {
			err = fmt.Errorf("%w: %d", messaging.ErrInvalidRank, rank)
		}
		if err == nil && t.peers[rank] != nil {
			err = fmt.Errorf("rank %d connected twice", rank)
		}
		if err != nil {
			_ = c.Close()
			t.Close()
			return nil, fmt.Errorf("failed to handshake: %w", err)
		}
		t.peers[rank] = peer
	}
	t.start()
	return t, nil
}

// Listen binds address and waits for the whole group to connect.
func Listen(ctx context.Context, address string, size int) (*Transport, error) {
	l, err := NewListener(ctx, address)
	if err != nil {
		return nil, err
	}
	return l.Accept(ctx, size)
}

// Close stops accepting connections.
func (l *Listener) Close() error { return l.listener.Close() }

// Dial connects rank to the coordinator at address, retrying until ctx is done
// so that workers may start before the coordinator.
func Dial(ctx context.Context, address string, rank, size int, retryDelay time.Duration) (*Transport, error) {
	if rank <= model.CoordinatorRank || rank >= size {
		return nil, fmt.Errorf("%w: %d of %d", messaging.ErrInvalidRank, rank, size)
	}
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}
	var dialer net.Dialer
	for {
		c, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			peer := newConn(c)
			if err = peer.writeFrame(model.HelloTag, model.EncodeInt(rank)); err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("failed to send hello: %w", err)
			}
			t := newTransport(rank, size)
			t.peers[model.CoordinatorRank] = peer
			t.start()
			return t, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to dial %s: %w", address, err)
		case <-time.After(retryDelay):
		}
	}
}

func newTransport(rank, size int) *Transport {
	return &Transport{rank: rank, size: size, peers: map[int]*conn{}, box: messaging.NewMailbox()}
}

func readHello(c *conn) (int, error) {
	tag, payload, err := c.readFrame()
	if err != nil {
		return 0, err
	}
	if tag != model.HelloTag {
		return 0, fmt.Errorf("expected hello, got %v", tag)
	}
	return model.DecodeInt(payload)
}

func (t *Transport) start() {
	t.live = len(t.peers)
	if t.live == 0 {
		return
	}
	for rank, peer := range t.peers {
		go t.readLoop(rank, peer)
	}
}

func (t *Transport) readLoop(rank int, peer *conn) {
	for {
		tag, payload, err := peer.readFrame()
		if err != nil {
			t.peerDone(rank, err)
			return
		}
		if err = t.box.Deliver(&messaging.Message{Source: rank, Tag: tag, Payload: payload}); err != nil {
			return
		}
	}
}

// peerDone handles a finished connection: a clean EOF is a departing peer,
// anything else fails the whole transport.
func (t *Transport) peerDone(rank int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return
	}
	if !errors.Is(err, io.EOF) {
		log.Printf("tcp: rank %d lost connection to rank %d: %v", t.rank, rank, err)
		t.box.Close(fmt.Errorf("connection to rank %d failed: %w", rank, err))
		return
	}
	t.live--
	if t.live == 0 {
		t.box.Close(fmt.Errorf("all peers of rank %d disconnected: %w", t.rank, messaging.ErrClosed))
	}
}

func (t *Transport) Rank() int { return t.rank }

func (t *Transport) Size() int { return t.size }

func (t *Transport) Send(ctx context.Context, dst int, tag model.Tag, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	closing := t.closing
	t.mu.Unlock()
	if closing {
		return messaging.ErrClosed
	}
	peer := t.peers[dst]
	if peer == nil {
		return fmt.Errorf("%w: rank %d cannot reach rank %d", messaging.ErrInvalidRank, t.rank, dst)
	}
	if err := peer.writeFrame(tag, payload); err != nil {
		return fmt.Errorf("failed to send %v to rank %d: %w", tag, dst, err)
	}
	return nil
}

func (t *Transport) Recv(ctx context.Context, src int, tag model.Tag) (*messaging.Message, error) {
	return t.box.Take(ctx, src, tag)
}

func (t *Transport) ProbeAny(ctx context.Context, tag model.Tag) (int, error) {
	msg, err := t.box.Peek(ctx, messaging.AnySource, tag)
	if err != nil {
		return 0, err
	}
	return msg.Source, nil
}

func (t *Transport) Ready(tag model.Tag) (int, bool) {
	msg, ok := t.box.Ready(messaging.AnySource, tag)
	if !ok {
		return 0, false
	}
	return msg.Source, true
}

func (t *Transport) Scatter(ctx context.Context, root int, payloads [][]byte) ([]byte, error) {
	return messaging.Scatter(ctx, t, root, payloads)
}

// Close closes every connection and the listener, if any.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.mu.Unlock()

	var firstErr error
	for _, peer := range t.peers {
		if err := peer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.listener != nil {
		_ = t.listener.Close()
	}
	t.box.Close(nil)
	return firstErr
}

var _ messaging.Transport = (*Transport)(nil)
