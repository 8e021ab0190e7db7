// Package dispatcher implements the coordinator side of the batch protocol.
//
// The dispatcher hands out batches of replicates to idle ranks in a circular
// order, collects results as they complete and tells every worker when to stop.
// Rank 0 may take part in the work itself, in which case its batches are
// generated inline without any message exchange.
package dispatcher
