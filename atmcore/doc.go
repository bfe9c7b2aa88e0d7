// Package atmcore provides the shared configuration and context helpers used
// across the ATM authorization core.
//
// The package includes environment-driven configuration knobs, logger-in-context
// propagation, and deadline helpers. Domain logic lives in the subpackages:
// chain (pipeline framework), auth (authentication pipeline), transaction
// (transaction pipeline), session (session lifecycle), and cash (denomination
// distribution).
package atmcore
