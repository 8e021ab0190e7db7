package mspar

import (
	"context"
	"fmt"
	"math"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/service/generator/ms"
	"gopkg.in/yaml.v3"
)

// Config is the immutable description of a run. Every rank of a group must
// hold the same value.
type Config struct {
	Howmany           int       `json:"howmany" yaml:"howmany"`
	PoolSize          int       `json:"poolSize" yaml:"poolSize"`
	SelfParticipation bool      `json:"selfParticipation,omitempty" yaml:"selfParticipation,omitempty"`
	Seeds             []uint16  `json:"seeds,omitempty" yaml:"seeds,omitempty"`
	Sample            ms.Config `json:"sample" yaml:"sample"`
	// Output is an afs URL; empty means stdout.
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
	Trace   string `json:"trace,omitempty" yaml:"trace,omitempty"`
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// DefaultConfig returns a single replicate on a four rank pool.
func DefaultConfig() *Config {
	return &Config{
		Howmany:  1,
		PoolSize: 4,
		Sample:   ms.DefaultConfig(),
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config was nil")
	}
	if c.Howmany < 0 || c.Howmany > math.MaxInt32 {
		return fmt.Errorf("howmany must be within [0,%d], got %d", math.MaxInt32, c.Howmany)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("poolSize must be > 0, got %d", c.PoolSize)
	}
	if len(c.Seeds) != 0 && len(c.Seeds) != 3 {
		return fmt.Errorf("seeds must hold exactly 3 values, got %d", len(c.Seeds))
	}
	return c.Sample.Validate()
}

// Seed returns the explicit seed triple, if configured.
func (c *Config) Seed() (rand48.Seed, bool) {
	if len(c.Seeds) != 3 {
		return rand48.Seed{}, false
	}
	return rand48.Seed{c.Seeds[0], c.Seeds[1], c.Seeds[2]}, true
}

// Participants returns how many ranks take part in dispatch; the rest only
// join the seed scatter.
func (c *Config) Participants(poolSize int) int {
	if poolSize <= 1 || c.Howmany <= 0 {
		return 1
	}
	needed := c.Howmany + 1
	if c.SelfParticipation {
		needed = c.Howmany
	}
	if needed > poolSize {
		needed = poolSize
	}
	if needed < 1 {
		needed = 1
	}
	return needed
}

// LoadConfig reads a YAML config from URL on top of DefaultConfig.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return cfg, nil
}
