// Package constants defines stable identifiers shared across the
// authorization core: pipeline error codes, processing codes, and session
// termination reasons.
//
// Error codes are part of the caller-facing contract and must not change
// between releases; outer layers map them to response codes and operator
// messages.
package constants
