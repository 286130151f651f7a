package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// TestFuncMeta_SpanName verifies span names with and without namespace.
func TestFuncMeta_SpanName(t *testing.T) {
	tests := []struct {
		meta FuncMeta
		want string
	}{
		{FuncMeta{Namespace: "math", Name: "square"}, "memo.compute.math.square"},
		{FuncMeta{Name: "square"}, "memo.compute.square"},
	}
	for _, tt := range tests {
		if got := tt.meta.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

// TestFuncMeta_FuncID verifies ID resolution order.
func TestFuncMeta_FuncID(t *testing.T) {
	tests := []struct {
		name string
		meta FuncMeta
		want string
	}{
		{"explicit id", FuncMeta{ID: "custom", Namespace: "ns", Name: "n"}, "custom"},
		{"with namespace", FuncMeta{Namespace: "ns", Name: "n"}, "ns.n"},
		{"name only", FuncMeta{Name: "n"}, "n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.FuncID(); got != tt.want {
				t.Errorf("FuncID() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTracer_SuccessSpan verifies attributes and OK status on success.
func TestTracer_SuccessSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	meta := FuncMeta{
		Namespace: "math",
		Name:      "square",
		Version:   "v1",
		Instance:  "inst",
		Tags:      []string{"pure"},
	}

	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "memo.compute.math.square" {
		t.Errorf("unexpected span name %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected OK status, got %v", s.Status().Code)
	}

	wantStrings := map[string]string{
		"func.id":        "math.square",
		"func.name":      "square",
		"func.namespace": "math",
		"func.version":   "v1",
		"memo.instance":  "inst",
	}
	for k, v := range wantStrings {
		got, ok := spanAttr(s, k)
		if !ok || got.AsString() != v {
			t.Errorf("expected %s=%q, got %v", k, v, got.Emit())
		}
	}
	if v, ok := spanAttr(s, "memo.error"); !ok || v.AsBool() {
		t.Errorf("expected memo.error=false")
	}
	if v, ok := spanAttr(s, "func.tags"); !ok || len(v.AsStringSlice()) != 1 {
		t.Errorf("expected func.tags attribute")
	}
}

// TestTracer_ErrorSpan verifies error status and recorded exception event.
func TestTracer_ErrorSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), FuncMeta{Name: "boom"})
	tracer.EndSpan(span, errors.New("boom"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status().Code)
	}
	if s.Status().Description != "boom" {
		t.Errorf("expected status description 'boom', got %q", s.Status().Description)
	}
	if v, ok := spanAttr(s, "memo.error"); !ok || !v.AsBool() {
		t.Error("expected memo.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected an exception event")
	}
}

// TestNoopTracer verifies the no-op tracer is safe to use.
func TestNoopTracer(t *testing.T) {
	tracer := newNoopTracer()
	ctx, span := tracer.StartSpan(context.Background(), FuncMeta{Name: "x"})
	if ctx == nil || span == nil {
		t.Fatal("expected non-nil context and span")
	}
	tracer.EndSpan(span, errors.New("ignored"))
}
