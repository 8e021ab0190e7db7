// Package generator defines the replicate generator contract used by both the
// coordinator (inline self-work) and the worker agents.
package generator

import (
	"bytes"
	"fmt"

	"github.com/viant/mspar/internal/rand48"
)

// Generator produces one replicate per call, appending its text to dst. It
// must be deterministic given the rng state and must not keep mutable state
// of its own.
type Generator interface {
	Generate(rng *rand48.Rand, dst *bytes.Buffer) error
}

// Func adapts a function to Generator.
type Func func(rng *rand48.Rand, dst *bytes.Buffer) error

func (f Func) Generate(rng *rand48.Rand, dst *bytes.Buffer) error { return f(rng, dst) }

// Batch generates size replicates sequentially into one buffer and returns
// its bytes; the caller takes ownership.
func Batch(g Generator, rng *rand48.Rand, size int) ([]byte, error) {
	var buf bytes.Buffer
	for i := 0; i < size; i++ {
		if err := g.Generate(rng, &buf); err != nil {
			return nil, fmt.Errorf("failed to generate replicate %d of %d: %w", i+1, size, err)
		}
	}
	return buf.Bytes(), nil
}
