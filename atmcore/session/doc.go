// Package session manages the time-bounded interaction window between a
// cardholder and one ATM. Sessions move from Active to Expired (time-driven)
// or Terminated (logout or a forced security termination) and never leave a
// terminal state; a new interaction gets a new session, never a resurrected
// one. The store shards records by token so concurrent validation, extension,
// sweeping and bulk termination of unrelated sessions never contend on a
// single lock.
package session
