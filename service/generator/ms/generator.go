// Package ms generates neutral infinite-sites samples and prints them in the
// ms text format: a "//" separator, the segregating site count, the site
// positions and one 0/1 haplotype line per sampled chromosome.
package ms

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/service/generator"
)

// Generator draws samples for one configuration.
type Generator struct {
	config   Config
	harmonic float64
	spectrum []float64
}

// New validates config and precomputes the neutral frequency spectrum.
func New(config Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	n := config.SampleSize
	spectrum := make([]float64, n-1)
	harmonic := 0.0
	for k := 1; k < n; k++ {
		harmonic += 1 / float64(k)
		spectrum[k-1] = harmonic
	}
	for i := range spectrum {
		spectrum[i] /= harmonic
	}
	return &Generator{config: config, harmonic: harmonic, spectrum: spectrum}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config { return g.config }

// Generate appends one replicate to dst.
func (g *Generator) Generate(rng *rand48.Rand, dst *bytes.Buffer) error {
	mean := g.config.Theta * g.harmonic
	segsites := g.config.SegSites
	if segsites == 0 {
		segsites = rng.Poisson(mean)
	}

	dst.WriteString("\n//\n")
	if segsites > 0 || g.config.Theta > 0 {
		if g.config.SegSites > 0 && g.config.Theta > 0 {
			fmt.Fprintf(dst, "prob: %g\n", poissonProb(segsites, mean))
		}
		fmt.Fprintf(dst, "segsites: %d\n", segsites)
	}
	if segsites == 0 {
		return nil
	}

	positions := make([]float64, segsites)
	for i := range positions {
		positions[i] = rng.Float64()
	}
	sort.Float64s(positions)
	dst.WriteString("positions: ")
	for _, p := range positions {
		fmt.Fprintf(dst, "%6.*f ", g.config.Precision, p)
	}
	dst.WriteByte('\n')

	n := g.config.SampleSize
	haplotypes := make([][]byte, n)
	for i := range haplotypes {
		haplotypes[i] = bytes.Repeat([]byte{'0'}, segsites)
	}
	order := make([]int, n)
	for site := 0; site < segsites; site++ {
		derived := g.derivedCount(rng)
		for i := range order {
			order[i] = i
		}
		for i := 0; i < derived; i++ {
			j := i + rng.Intn(n-i)
			order[i], order[j] = order[j], order[i]
			haplotypes[order[i]][site] = '1'
		}
	}
	for _, h := range haplotypes {
		dst.Write(h)
		dst.WriteByte('\n')
	}
	return nil
}

// derivedCount draws k in [1, n-1] with probability proportional to 1/k.
func (g *Generator) derivedCount(rng *rand48.Rand) int {
	u := rng.Float64()
	k := sort.SearchFloat64s(g.spectrum, u)
	if k >= len(g.spectrum) {
		k = len(g.spectrum) - 1
	}
	return k + 1
}

func poissonProb(k int, mean float64) float64 {
	if mean <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	lg, _ := math.Lgamma(float64(k) + 1)
	return math.Exp(float64(k)*math.Log(mean) - mean - lg)
}

// Header writes the run header: the equivalent command line and the seed
// triple the coordinator started from.
func Header(w io.Writer, config Config, howmany int, seed rand48.Seed) error {
	line := "mspar " + strconv.Itoa(config.SampleSize) + " " + strconv.Itoa(howmany)
	if config.Theta > 0 {
		line += " -t " + strconv.FormatFloat(config.Theta, 'g', -1, 64)
	}
	if config.SegSites > 0 {
		line += " -s " + strconv.Itoa(config.SegSites)
	}
	_, err := fmt.Fprintf(w, "%s\n%d %d %d\n", line, seed[0], seed[1], seed[2])
	return err
}

var _ generator.Generator = (*Generator)(nil)
