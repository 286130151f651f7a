package observe

import (
	"context"
	"time"
)

// CallFunc is the signature Middleware wraps: one computation of a memoized
// function for the given arguments.
type CallFunc func(ctx context.Context, meta FuncMeta, args []any) (any, error)

// Middleware wraps computations with tracing, metrics, and logging, and
// records cache lookups.
//
// Contract:
//   - Concurrency: safe for concurrent use; Wrap returns a thread-safe CallFunc.
//   - Context: propagates context through tracing spans.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: arguments and results pass through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a computation with a span, metrics, and a log line.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, meta FuncMeta, args []any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		result, err := fn(ctx, meta, args)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordCompute(ctx, meta, duration, err)

		logger := m.logger.WithFunc(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
			{Key: "args", Value: args},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Warn(ctx, "memoized computation failed", fields...)
		} else {
			logger.Debug(ctx, "memoized computation completed", fields...)
		}

		return result, err
	}
}

// Lookup records a cache lookup.
func (m *Middleware) Lookup(ctx context.Context, meta FuncMeta, hit bool) {
	m.metrics.RecordLookup(ctx, meta, hit)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
