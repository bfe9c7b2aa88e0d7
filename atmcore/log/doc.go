// Package log defines the structured logging contract used across the
// authorization core.
//
// The package is implementation-agnostic: it exposes the Logger interface,
// typed Field constructors, a no-op logger, and sanitization helpers that keep
// PINs, PANs, and session tokens out of log output. The production
// implementation lives in the sibling zap package.
package log
