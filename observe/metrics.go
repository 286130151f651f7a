package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache lookups and computations of memoized functions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache lookup and whether it hit.
	RecordLookup(ctx context.Context, meta FuncMeta, hit bool)

	// RecordCompute records one invocation of the wrapped function.
	RecordCompute(ctx context.Context, meta FuncMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	lookupCount  metric.Int64Counter
	computeCount metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookupCount, err := meter.Int64Counter(
		"memo.lookup.total",
		metric.WithDescription("Cache lookups by memoized functions"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	computeCount, err := meter.Int64Counter(
		"memo.compute.total",
		metric.WithDescription("Invocations of wrapped functions on cache miss"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"memo.compute.errors",
		metric.WithDescription("Invocations of wrapped functions that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"memo.compute.duration_ms",
		metric.WithDescription("Duration of wrapped function invocations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookupCount:  lookupCount,
		computeCount: computeCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta FuncMeta, hit bool) {
	attrs := append(meta.attributes(), attribute.Bool("memo.hit", hit))
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordCompute(ctx context.Context, meta FuncMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.computeCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

func (m *noopMetrics) RecordLookup(ctx context.Context, meta FuncMeta, hit bool) {}

func (m *noopMetrics) RecordCompute(ctx context.Context, meta FuncMeta, duration time.Duration, err error) {
}
