// Package auth runs the cardholder authentication pipeline: card security,
// failed-attempt rate limiting and PIN verification, in that order. A quick
// variant stops before PIN verification for operations that only need the
// card vetted. Deciding that a card should be blocked is a pure function of
// the attempt counter here; flipping the card's persisted status is the
// transaction pipeline's job.
package auth
