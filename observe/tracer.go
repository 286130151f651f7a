package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FuncMeta describes a memoized function for telemetry purposes.
type FuncMeta struct {
	ID        string   // Fully qualified ID (namespace.name or just name)
	Namespace string   // Namespace (may be empty)
	Name      string   // Function name (required)
	Version   string   // Version (optional)
	Instance  string   // ID of the memoizer instance wrapping the function
	Tags      []string // Free-form tags (optional)
}

// SpanName returns the deterministic span name for a computation.
// Format: memo.compute.<namespace>.<name> or memo.compute.<name>
func (m FuncMeta) SpanName() string {
	if m.Namespace != "" {
		return "memo.compute." + m.Namespace + "." + m.Name
	}
	return "memo.compute." + m.Name
}

// FuncID returns the fully qualified function identifier.
// If ID is set it is returned as is.
func (m FuncMeta) FuncID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// fields returns the log fields describing m.
func (m FuncMeta) fields() []Field {
	fields := []Field{
		{Key: "func.id", Value: m.FuncID()},
		{Key: "func.name", Value: m.Name},
	}
	if m.Namespace != "" {
		fields = append(fields, Field{Key: "func.namespace", Value: m.Namespace})
	}
	if m.Version != "" {
		fields = append(fields, Field{Key: "func.version", Value: m.Version})
	}
	if m.Instance != "" {
		fields = append(fields, Field{Key: "memo.instance", Value: m.Instance})
	}
	return fields
}

// attributes returns the span and metric attributes shared by every signal.
func (m FuncMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("func.id", m.FuncID()),
		attribute.String("func.name", m.Name),
	}
	if m.Namespace != "" {
		attrs = append(attrs, attribute.String("func.namespace", m.Namespace))
	}
	if m.Instance != "" {
		attrs = append(attrs, attribute.String("memo.instance", m.Instance))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with span management for computations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a computation.
	StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with function metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("memo.error", false))

	if meta.Version != "" {
		attrs = append(attrs, attribute.String("func.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("func.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("memo.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
