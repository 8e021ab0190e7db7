package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viant/mspar"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every rank in this process",
	Args:  cobra.NoArgs,
	RunE:  runPool,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPool(c *cobra.Command, _ []string) error {
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
	_, err = srv.RunPool(ctx)
	return err
}
