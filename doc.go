// Package mspar runs ms-style coalescent sample generation over a pool of
// ranks.
//
// Rank 0 coordinates: it scatters private random seeds, hands out batches of
// replicates to idle ranks and writes results in completion order. Every other
// rank generates the batches it is given. Ranks communicate only through a
// messaging.Transport, either in one process (RunPool) or over TCP.
//
//	cfg := mspar.DefaultConfig()
//	cfg.Howmany = 100
//	srv, _ := mspar.New(cfg)
//	report, err := srv.RunPool(ctx)
package mspar
