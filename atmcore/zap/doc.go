// Package zap provides the production log.Logger implementation backed by
// go.uber.org/zap.
//
// Log events automatically carry otel trace_id/span_id fields when the
// context holds an active span, and all fields pass through the log package
// sanitizer before emission.
package zap
