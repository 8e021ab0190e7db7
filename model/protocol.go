package model

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/viant/mspar/internal/rand48"
)

// CoordinatorRank is the rank running the dispatcher.
const CoordinatorRank = 0

// SeedsPerRank is the number of 16-bit seed words scattered to every rank.
const SeedsPerRank = 3

// Tag identifies a message kind.
type Tag uint32

const (
	// HelloTag opens a network connection; the payload is the sender rank.
	HelloTag Tag = 1
	// SeedTag carries one seed triple per rank, scattered once at startup.
	SeedTag Tag = 100
	// AssignmentTag carries a batch size, coordinator to worker.
	AssignmentTag Tag = 200
	// ResultTag carries one completed batch, worker to coordinator.
	ResultTag Tag = 300
	// ContinuationTag carries the continue/terminate flag, coordinator to worker.
	ContinuationTag Tag = 400
)

func (t Tag) String() string {
	switch t {
	case HelloTag:
		return "hello"
	case SeedTag:
		return "seed"
	case AssignmentTag:
		return "assignment"
	case ResultTag:
		return "result"
	case ContinuationTag:
		return "continuation"
	}
	return fmt.Sprintf("tag(%d)", uint32(t))
}

// ErrMalformed is returned when a payload does not match its tag layout.
var ErrMalformed = errors.New("model: malformed payload")

// Assignment is a batch handed to a rank.
type Assignment struct {
	Rank int
	Size int
}

// Result is one completed batch as received by the coordinator.
type Result struct {
	Rank    int
	Size    int
	Payload []byte
}

// EncodeSeed encodes a seed triple.
func EncodeSeed(seed rand48.Seed) []byte {
	ret := make([]byte, 2*SeedsPerRank)
	for i, v := range seed {
		binary.BigEndian.PutUint16(ret[2*i:], v)
	}
	return ret
}

// DecodeSeed decodes a seed triple.
func DecodeSeed(data []byte) (rand48.Seed, error) {
	var seed rand48.Seed
	if len(data) != 2*SeedsPerRank {
		return seed, fmt.Errorf("%w: seed expects %d bytes, got %d", ErrMalformed, 2*SeedsPerRank, len(data))
	}
	for i := range seed {
		seed[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return seed, nil
}

// EncodeInt encodes a non-negative count (batch size, rank).
func EncodeInt(v int) []byte {
	ret := make([]byte, 4)
	binary.BigEndian.PutUint32(ret, uint32(int32(v)))
	return ret
}

// DecodeInt decodes a value written by EncodeInt; negative values survive the
// round trip so that the receiver can reject them.
func DecodeInt(data []byte) (int, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: int expects 4 bytes, got %d", ErrMalformed, len(data))
	}
	return int(int32(binary.BigEndian.Uint32(data))), nil
}

// EncodeContinuation encodes a continuation signal.
func EncodeContinuation(proceed bool) []byte {
	if proceed {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeContinuation decodes a continuation signal.
func DecodeContinuation(data []byte) (bool, error) {
	if len(data) != 1 || data[0] > 1 {
		return false, fmt.Errorf("%w: continuation expects one 0/1 byte", ErrMalformed)
	}
	return data[0] == 1, nil
}
