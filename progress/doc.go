// Package progress keeps the replicate counters of a single run and notifies
// an optional observer whenever they change.
package progress
