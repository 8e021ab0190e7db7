package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/viant/mspar/model"
)

const headerSize = 8

// MaxFrameSize bounds a single payload.
const MaxFrameSize = 1 << 30

// ErrFrameTooLarge is returned when a payload exceeds the frame limit.
var ErrFrameTooLarge = errors.New("tcp: frame too large")

// conn frames messages as tag | length | payload over a net.Conn. Reads and
// writes are serialized independently.
type conn struct {
	net.Conn
	readLock  sync.Mutex
	writeLock sync.Mutex
	limit     int
}

func newConn(c net.Conn) *conn {
	return &conn{Conn: c, limit: MaxFrameSize}
}

func (c *conn) writeFrame(tag model.Tag, payload []byte) error {
	if len(payload) > c.limit {
		return fmt.Errorf("%w: %v payload of %d bytes, limit %d", ErrFrameTooLarge, tag, len(payload), c.limit)
	}
	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[:4], uint32(tag))
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	buffers := net.Buffers{header[:], payload}
	_, err := buffers.WriteTo(c.Conn)
	return err
}

func (c *conn) readFrame() (model.Tag, []byte, error) {
	c.readLock.Lock()
	defer c.readLock.Unlock()
	var header [headerSize]byte
	if _, err := io.ReadFull(c.Conn, header[:]); err != nil {
		return 0, nil, err
	}
	tag := model.Tag(binary.BigEndian.Uint32(header[:4]))
	length := binary.BigEndian.Uint32(header[4:])
	if int64(length) > int64(c.limit) {
		return 0, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, length, c.limit)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.Conn, payload); err != nil {
		return 0, nil, err
	}
	return tag, payload, nil
}
