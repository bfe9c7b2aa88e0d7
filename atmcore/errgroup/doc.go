// Package errgroup provides a panic-safe goroutine group with shared
// cancellation, used by the session manager for shard fan-out during bulk
// termination and sweeps.
//
// Unlike golang.org/x/sync/errgroup, a panic in a goroutine is recovered and
// surfaced as an error from Wait instead of crashing the process.
package errgroup
