package ms

import "fmt"

// Config is the immutable simulation configuration shared by every rank.
type Config struct {
	// SampleSize is the number of sampled chromosomes (nsam).
	SampleSize int `json:"sampleSize" yaml:"sampleSize"`
	// Theta is the population mutation rate 4Nu.
	Theta float64 `json:"theta" yaml:"theta"`
	// SegSites fixes the number of segregating sites when > 0.
	SegSites int `json:"segSites,omitempty" yaml:"segSites,omitempty"`
	// Precision is the number of decimals printed for positions.
	Precision int `json:"precision" yaml:"precision"`
}

// DefaultConfig returns a small neutral sample configuration.
func DefaultConfig() Config {
	return Config{
		SampleSize: 10,
		Theta:      5,
		Precision:  4,
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c.SampleSize < 2 {
		return fmt.Errorf("sample.sampleSize must be >= 2, got %d", c.SampleSize)
	}
	if c.Theta < 0 {
		return fmt.Errorf("sample.theta must be >= 0, got %g", c.Theta)
	}
	if c.SegSites < 0 {
		return fmt.Errorf("sample.segSites must be >= 0, got %d", c.SegSites)
	}
	if c.SegSites == 0 && c.Theta == 0 {
		return fmt.Errorf("sample requires theta or segSites")
	}
	if c.Precision < 1 || c.Precision > 12 {
		return fmt.Errorf("sample.precision must be within [1,12], got %d", c.Precision)
	}
	return nil
}
