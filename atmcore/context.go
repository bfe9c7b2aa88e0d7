package atmcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore/log"
	"github.com/google/uuid"
)

// ErrNilParentContext indicates that a nil parent context was provided.
var ErrNilParentContext = errors.New("cannot create context from nil parent")

type coreContextKey string

// CoreContextKey is the context key used to store CoreContextValue.
var CoreContextKey = coreContextKey("atmcore_context")

// CoreContextValue holds the request-scoped facilities attached to context.
type CoreContextValue struct {
	CorrelationID string
	Logger        log.Logger
}

// NewLoggerFromContext extracts the Logger attached to ctx, falling back to a
// no-op logger when none is present.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if values, ok := ctx.Value(CoreContextKey).(*CoreContextValue); ok && values.Logger != nil {
		return values.Logger
	}

	return &log.NopLogger{}
}

// ContextWithLogger returns a context carrying the given Logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	values, _ := ctx.Value(CoreContextKey).(*CoreContextValue)
	if values == nil {
		values = &CoreContextValue{}
	}

	values.Logger = logger

	return context.WithValue(ctx, CoreContextKey, values)
}

// ContextWithCorrelationID returns a context carrying the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	values, _ := ctx.Value(CoreContextKey).(*CoreContextValue)
	if values == nil {
		values = &CoreContextValue{}
	}

	values.CorrelationID = correlationID

	return context.WithValue(ctx, CoreContextKey, values)
}

// CorrelationIDFromContext extracts the correlation ID attached to ctx,
// minting a fresh UUID when none is present.
func CorrelationIDFromContext(ctx context.Context) string {
	if values, ok := ctx.Value(CoreContextKey).(*CoreContextValue); ok {
		if trimmed := strings.TrimSpace(values.CorrelationID); trimmed != "" {
			return trimmed
		}
	}

	return uuid.New().String()
}

// WithTimeoutSafe creates a context with the specified timeout, but respects
// any existing, shorter deadline in the parent context. Returns an error if
// parent is nil.
func WithTimeoutSafe(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if parent == nil {
		return nil, nil, ErrNilParentContext
	}

	if deadline, ok := parent.Deadline(); ok {
		if time.Until(deadline) < timeout {
			ctx, cancel := context.WithCancel(parent)
			return ctx, cancel, nil
		}
	}

	ctx, cancel := context.WithTimeout(parent, timeout)

	return ctx, cancel, nil
}
