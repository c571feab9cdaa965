package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

func TestTracer_RecordsLedgerSpan(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	ctx := context.Background()

	span := tr.StartSpan(ctx, "ledger.issue", map[string]string{"credit": "Harvest Token"})
	tr.EndSpan(span, nil)

	if tr.SpanCount() != 1 {
		t.Fatalf("SpanCount() = %d, want 1", tr.SpanCount())
	}
	spans := tr.Spans(1)
	if spans[0].Operation != "ledger.issue" {
		t.Errorf("Operation = %q, want ledger.issue", spans[0].Operation)
	}
	if spans[0].Status != SpanOK {
		t.Errorf("Status = %d, want SpanOK", spans[0].Status)
	}
	if spans[0].EndTime.Before(spans[0].StartTime) {
		t.Error("EndTime before StartTime")
	}
	if spans[0].Attrs["credit"] != "Harvest Token" {
		t.Errorf("Attrs[credit] = %q", spans[0].Attrs["credit"])
	}
}

func TestTracer_FailedOperation(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())

	span := tr.StartSpan(context.Background(), "ledger.transfer", nil)
	tr.EndSpan(span, domain.ErrInsufficientBalance)

	spans := tr.Spans(1)
	if spans[0].Status != SpanError {
		t.Errorf("Status = %d, want SpanError", spans[0].Status)
	}
	if spans[0].Attrs["error"] != domain.ErrInsufficientBalance.Error() {
		t.Errorf("error attr = %q", spans[0].Attrs["error"])
	}
}

func TestTracer_Disabled(t *testing.T) {
	tr := NewTracer(TracerConfig{Enabled: false, MaxSpans: 100})

	span := tr.StartSpan(context.Background(), "ledger.redeem", nil)
	tr.EndSpan(span, errors.New("ignored"))

	if tr.SpanCount() != 0 {
		t.Errorf("disabled tracer recorded %d spans", tr.SpanCount())
	}
}

func TestTracer_RingBufferAndLimits(t *testing.T) {
	tr := NewTracer(TracerConfig{Enabled: true, MaxSpans: 3})
	for i := 0; i < 5; i++ {
		tr.EndSpan(tr.StartSpan(context.Background(), "ledger.transfer", nil), nil)
	}

	if tr.SpanCount() != 3 {
		t.Errorf("SpanCount() = %d, want 3 after overflow", tr.SpanCount())
	}
	if got := len(tr.Spans(2)); got != 2 {
		t.Errorf("Spans(2) returned %d", got)
	}
	if got := len(tr.Spans(0)); got != 3 {
		t.Errorf("Spans(0) returned %d, want all 3", got)
	}

	tr.Reset()
	if tr.SpanCount() != 0 {
		t.Errorf("SpanCount() after Reset = %d", tr.SpanCount())
	}
}

// ─── Context Propagation ────────────────────────────────────────────────────

func TestTracer_ContextPropagation(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	ctx := WithSpanID(WithTraceID(context.Background(), "trace-abc"), "span-123")

	tr.EndSpan(tr.StartSpan(ctx, "ledger.transfer", nil), nil)

	spans := tr.Spans(1)
	if spans[0].TraceID != "trace-abc" {
		t.Errorf("TraceID = %q, want trace-abc", spans[0].TraceID)
	}
	if spans[0].ParentID != "span-123" {
		t.Errorf("ParentID = %q, want span-123", spans[0].ParentID)
	}
}

func TestTracer_RootSpanIDs(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	ctx := context.Background()

	first := tr.StartSpan(ctx, "ledger.issue", nil)
	second := tr.StartSpan(ctx, "ledger.issue", nil)

	if first.TraceID == "" {
		t.Error("root span should auto-generate a trace ID")
	}
	if first.ParentID != "" {
		t.Errorf("root span ParentID = %q, want empty", first.ParentID)
	}
	if first.SpanID == second.SpanID {
		t.Errorf("span IDs collide: %q", first.SpanID)
	}
}
