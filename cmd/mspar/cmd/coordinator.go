package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/viant/mspar"
	"github.com/viant/mspar/service/messaging/tcp"
)

var (
	listenAddress string
	groupSize     int

	coordinatorCmd = &cobra.Command{
		Use:   "coordinator",
		Short: "Run rank 0 and wait for size-1 workers to connect",
		Args:  cobra.NoArgs,
		RunE:  runCoordinator,
	}
)

func init() {
	coordinatorCmd.Flags().StringVar(&listenAddress, "listen", ":7070", "listen address")
	coordinatorCmd.Flags().IntVar(&groupSize, "size", 2, "number of ranks including the coordinator")
	rootCmd.AddCommand(coordinatorCmd)
}

func runCoordinator(c *cobra.Command, _ []string) error {
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

	listener, err := tcp.NewListener(ctx, listenAddress)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.Printf("coordinator: listening on %v for %d workers", listener.Addr(), groupSize-1)
	transport, err := listener.Accept(ctx, groupSize)
	if err != nil {
		return err
	}
	defer transport.Close()
	_, err = srv.Run(ctx, transport)
	return err
}
