// Package rand48 implements the 48-bit linear congruential generator used by
// the drand48/erand48 family, seeded with a triple of 16-bit values the same
// way seed48 does. Every rank owns one Rand; instances are not safe for
// concurrent use.
package rand48

import "math"

const (
	multiplier = 0x5DEECE66D
	increment  = 0xB
	mask       = 1<<48 - 1
)

// Seed is the seed48 triple, least significant word first.
type Seed [3]uint16

// Rand is a private random stream.
type Rand struct {
	x uint64
}

// New returns a stream seeded with seed.
func New(seed Seed) *Rand {
	r := &Rand{}
	r.Reseed(seed)
	return r
}

// Reseed replaces the stream state with seed.
func (r *Rand) Reseed(seed Seed) {
	r.x = uint64(seed[2])<<32 | uint64(seed[1])<<16 | uint64(seed[0])
}

// State returns the current state as a seed triple.
func (r *Rand) State() Seed {
	return Seed{uint16(r.x), uint16(r.x >> 16), uint16(r.x >> 32)}
}

func (r *Rand) next() uint64 {
	r.x = (multiplier*r.x + increment) & mask
	return r.x
}

// Float64 returns a value in [0, 1), like erand48.
func (r *Rand) Float64() float64 {
	return float64(r.next()) / (1 << 48)
}

// Uint16 returns the high 16 bits of the next state.
func (r *Rand) Uint16() uint16 {
	return uint16(r.next() >> 32)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	v := int(r.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Poisson returns a Poisson variate with the supplied mean.
func (r *Rand) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 100 {
		v := int(math.Floor(mean + math.Sqrt(mean)*r.normal() + 0.5))
		if v < 0 {
			return 0
		}
		return v
	}
	limit := math.Exp(-mean)
	k := 0
	p := r.Float64()
	for p > limit {
		k++
		p *= r.Float64()
	}
	return k
}

func (r *Rand) normal() float64 {
	for {
		u := 2*r.Float64() - 1
		v := 2*r.Float64() - 1
		s := u*u + v*v
		if s > 0 && s < 1 {
			return u * math.Sqrt(-2*math.Log(s)/s)
		}
	}
}
