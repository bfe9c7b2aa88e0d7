// Package transaction runs the validation pipeline for ATM operations:
// session, card, PIN, limits and cash availability, in that order. Balance
// inquiries run a reduced pipeline without the PIN and cash steps. The
// operation kind is classified from the ISO-style processing code by exact
// match; unrecognized codes take the default path through every kind-aware
// step. Each processed request is journaled before validation starts and
// completed with the outcome.
package transaction
