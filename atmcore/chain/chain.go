package chain

import (
	"context"
	"errors"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSteps is returned when constructing a pipeline with an empty step list.
var ErrNoSteps = errors.New("chain: pipeline requires at least one step")

const tracerName = "lib-atmcore/chain"

// Step is one unit of request validation or enrichment. Implementations must
// be stateless with respect to chain topology and safe for concurrent use;
// all request-specific mutable state belongs on the request itself.
type Step[R any] interface {
	Name() string
	Handle(ctx context.Context, request R) Result
}

// MergePolicy decides which Result a pipeline returns when a step fails with
// Continue set and downstream steps subsequently run.
type MergePolicy int

const (
	// MergeFirstFailure returns the first failing Result even though
	// downstream steps executed for their side effects. Downstream Results
	// (and any failures they report) are discarded.
	MergeFirstFailure MergePolicy = iota

	// MergeLastResult returns the Result of the last step that ran, hiding
	// the earlier soft failure from the caller.
	MergeLastResult
)

// Pipeline is an immutable ordered sequence of steps sharing a request type.
// Construct once at startup and reuse across concurrent calls.
type Pipeline[R any] struct {
	name      string
	steps     []Step[R]
	policy    MergePolicy
	chainCode string
	timeout   time.Duration
	tracer    trace.Tracer
}

// Option configures a Pipeline at construction time.
type Option[R any] func(*Pipeline[R])

// WithMergePolicy sets the failure-but-continue merge policy.
func WithMergePolicy[R any](policy MergePolicy) Option[R] {
	return func(p *Pipeline[R]) {
		p.policy = policy
	}
}

// WithTimeout bounds each Run call. When the deadline passes between steps,
// the pipeline aborts and synthesizes a failure Result with the chain-level
// error code.
func WithTimeout[R any](timeout time.Duration) Option[R] {
	return func(p *Pipeline[R]) {
		p.timeout = timeout
	}
}

// New builds a pipeline from an ordered step list. chainCode is the stable
// error code reported when a step panics or the deadline passes; it is the
// only way an infrastructure fault surfaces to the caller.
func New[R any](name, chainCode string, steps []Step[R], opts ...Option[R]) (*Pipeline[R], error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	owned := make([]Step[R], len(steps))
	copy(owned, steps)

	p := &Pipeline[R]{
		name:      name,
		steps:     owned,
		policy:    MergeFirstFailure,
		chainCode: chainCode,
		tracer:    otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Name returns the pipeline's name.
func (p *Pipeline[R]) Name() string {
	return p.name
}

// Steps returns the number of steps in the pipeline.
func (p *Pipeline[R]) Steps() int {
	return len(p.steps)
}

// Run walks the step sequence applying the continuation and merge rules.
// It never panics and never returns an unhandled fault: step panics are
// recovered into a failure Result carrying the chain-level error code.
func (p *Pipeline[R]) Run(ctx context.Context, request R) (result Result) {
	logger := atmcore.NewLoggerFromContext(ctx)

	ctx, span := p.tracer.Start(ctx, "pipeline."+p.name)
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Log(ctx, log.LevelError, "pipeline step panicked",
				log.String("pipeline", p.name),
				log.Any("panic", rec),
			)
			span.SetStatus(codes.Error, "step panic")

			result = Fail("internal processing error", p.chainCode)
		}
	}()

	if p.timeout > 0 {
		runCtx, cancel, err := atmcore.WithTimeoutSafe(ctx, p.timeout)
		if err == nil {
			defer cancel()

			ctx = runCtx
		}
	}

	result = p.run(ctx, request, logger)

	span.SetAttributes(
		attribute.Bool("pipeline.success", result.Success),
		attribute.String("pipeline.error_code", result.ErrorCode),
	)

	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorCode)
	}

	return result
}

func (p *Pipeline[R]) run(ctx context.Context, request R, logger log.Logger) Result {
	var firstFailure *Result

	last := Result{}

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Log(ctx, log.LevelWarn, "pipeline aborted by deadline",
				log.String("pipeline", p.name),
				log.String("step", step.Name()),
				log.Err(err),
			)

			return Fail("processing deadline exceeded", p.chainCode)
		}

		last = p.runStep(ctx, step, request)

		if !last.Success {
			logger.Log(ctx, log.LevelWarn, "pipeline step failed",
				log.String("pipeline", p.name),
				log.String("step", step.Name()),
				log.String("error_code", last.ErrorCode),
				log.Bool("continue", last.Continue),
			)

			if firstFailure == nil {
				captured := last
				firstFailure = &captured
			}
		}

		if !last.Continue || i == len(p.steps)-1 {
			break
		}
	}

	if firstFailure != nil && p.policy == MergeFirstFailure {
		return *firstFailure
	}

	return last
}

func (p *Pipeline[R]) runStep(ctx context.Context, step Step[R], request R) Result {
	ctx, span := p.tracer.Start(ctx, "step."+step.Name())
	defer span.End()

	result := step.Handle(ctx, request)

	span.SetAttributes(
		attribute.Bool("step.success", result.Success),
		attribute.Bool("step.continue", result.Continue),
		attribute.String("step.error_code", result.ErrorCode),
	)

	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorCode)
	}

	return result
}
