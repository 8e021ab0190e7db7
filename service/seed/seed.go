// Package seed distributes one private random stream seed to every rank.
package seed

import (
	"context"
	"fmt"

	"github.com/viant/mspar/internal/clock"
	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/messaging"
)

// Default returns a clock-derived seed for runs without an explicit triple.
func Default() rand48.Seed {
	now := uint64(clock.Now().UnixNano())
	return rand48.Seed{0x330E, uint16(now), uint16(now >> 16)}
}

// Draw produces poolSize seed triples from the coordinator stream.
func Draw(rng *rand48.Rand, poolSize int) []rand48.Seed {
	ret := make([]rand48.Seed, poolSize)
	for i := range ret {
		for j := range ret[i] {
			ret[i][j] = rng.Uint16()
		}
	}
	return ret
}

// Distribute runs the seed scatter. The coordinator draws the pool's seeds
// from master; every other rank ignores master. Each rank gets back its own
// private stream.
func Distribute(ctx context.Context, transport messaging.Transport, master rand48.Seed) (*rand48.Rand, error) {
	var payloads [][]byte
	if transport.Rank() == model.CoordinatorRank {
		seeds := Draw(rand48.New(master), transport.Size())
		payloads = make([][]byte, len(seeds))
		for i, s := range seeds {
			payloads[i] = model.EncodeSeed(s)
		}
	}
	data, err := transport.Scatter(ctx, model.CoordinatorRank, payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to distribute seeds: %w", err)
	}
	own, err := model.DecodeSeed(data)
	if err != nil {
		return nil, err
	}
	return rand48.New(own), nil
}
