package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/mspar"
	"github.com/viant/mspar/service/messaging/tcp"
)

var (
	connectAddress string
	workerRank     int
	dialRetry      time.Duration

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Run one worker rank against a coordinator",
		Args:  cobra.NoArgs,
		RunE:  runWorker,
	}
)

func init() {
	workerCmd.Flags().StringVar(&connectAddress, "connect", "localhost:7070", "coordinator address")
	workerCmd.Flags().IntVar(&workerRank, "rank", 1, "rank of this worker, 1..size-1")
	workerCmd.Flags().IntVar(&groupSize, "size", 2, "number of ranks including the coordinator")
	workerCmd.Flags().DurationVar(&dialRetry, "retry", 500*time.Millisecond, "delay between connection attempts")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(c *cobra.Command, _ []string) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(c.Context())
	defer cancel()
	srv, err := mspar.New(cfg)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	transport, err := tcp.Dial(ctx, connectAddress, workerRank, groupSize, dialRetry)
	if err != nil {
		return err
	}
	defer transport.Close()
	_, err = srv.Run(ctx, transport)
	return err
}
