package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/mspar"
	"github.com/viant/mspar/tracing"
)

var ErrMissingSubcommand = errors.New("must specify a subcommand")

// job holds the flags shared by every subcommand; each rank of a TCP run
// must be started with the same values.
type job struct {
	configURL string
	howmany   int
	pool      int
	self      bool
	seeds     string
	nsam      int
	theta     float64
	segsites  int
	precision int
	output    string
	trace     string
	verbose   bool
}

var (
	flags job

	rootCmd = &cobra.Command{
		Use:           "mspar",
		Short:         "Parallel ms-style coalescent sample generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}
)

func init() {
	defaults := mspar.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configURL, "config", "", "YAML config URL (file path, file://, mem://, gs://...)")
	pf.IntVar(&flags.howmany, "howmany", defaults.Howmany, "number of replicates")
	pf.IntVar(&flags.pool, "pool", defaults.PoolSize, "number of ranks in an in-process run")
	pf.BoolVar(&flags.self, "self", false, "let the coordinator generate batches too")
	pf.StringVar(&flags.seeds, "seeds", "", "explicit seed triple a,b,c")
	pf.IntVar(&flags.nsam, "nsam", defaults.Sample.SampleSize, "sampled chromosomes")
	pf.Float64Var(&flags.theta, "theta", defaults.Sample.Theta, "population mutation rate")
	pf.IntVar(&flags.segsites, "segsites", 0, "fixed number of segregating sites")
	pf.IntVar(&flags.precision, "precision", defaults.Sample.Precision, "decimals printed for positions")
	pf.StringVar(&flags.output, "output", "", "output URL, stdout when empty")
	pf.StringVar(&flags.trace, "trace", "", "write spans to this file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log progress")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

// buildConfig loads --config when given and applies explicitly set flags on top.
func buildConfig(c *cobra.Command) (*mspar.Config, error) {
	cfg := mspar.DefaultConfig()
	if flags.configURL != "" {
		loaded, err := mspar.LoadConfig(c.Context(), flags.configURL)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	set := func(name string) bool { return c.Flags().Changed(name) || flags.configURL == "" }
	if set("howmany") {
		cfg.Howmany = flags.howmany
	}
	if set("pool") {
		cfg.PoolSize = flags.pool
	}
	if set("self") {
		cfg.SelfParticipation = flags.self
	}
	if set("nsam") {
		cfg.Sample.SampleSize = flags.nsam
	}
	if set("theta") {
		cfg.Sample.Theta = flags.theta
	}
	if set("segsites") {
		cfg.Sample.SegSites = flags.segsites
	}
	if set("precision") {
		cfg.Sample.Precision = flags.precision
	}
	if flags.seeds != "" {
		seeds, err := parseSeeds(flags.seeds)
		if err != nil {
			return nil, err
		}
		cfg.Seeds = seeds
	}
	if flags.output != "" {
		cfg.Output = flags.output
	}
	if flags.trace != "" {
		cfg.Trace = flags.trace
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

func parseSeeds(text string) ([]uint16, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid seeds %q: expected a,b,c", text)
	}
	ret := make([]uint16, 3)
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", part, err)
		}
		ret[i] = uint16(v)
	}
	return ret, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shutdownTracing() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tracing.Shutdown(ctx)
}
