// Package observability instruments the ledger.
//
// This provides:
//   - Trace spans for the ledger operation lifecycle (validate → mutate → log)
//   - Prometheus metrics for issuance, transfers, and redemptions
//
// The module exposes no HTTP surface; the embedding process decides whether
// and where to serve the default Prometheus registry.
package observability

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Trace Spans ────────────────────────────────────────────────────────────
// Lightweight span tracking without an external tracing SDK dependency.
// Spans are stored in a ring buffer for inspection and export.

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// Span represents one ledger operation within a trace.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // Ring buffer size
}

// DefaultTracerConfig returns production defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:  true,
		MaxSpans: 10_000,
	}
}

// Tracer records ledger operation spans in memory.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
	}
}

// StartSpan begins a new span with the given operation name.
// Returns the span (caller must call EndSpan when done).
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if !t.enabled {
		return &Span{Operation: operation}
	}

	return &Span{
		TraceID:   traceIDFromContext(ctx),
		SpanID:    generateID(),
		ParentID:  spanIDFromContext(ctx),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if !t.enabled || span == nil {
		return
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Ring buffer: overwrite oldest if at capacity
	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Spans returns a copy of the most recent spans.
func (t *Tracer) Spans(limit int) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}

	start := len(t.spans) - limit
	out := make([]Span, limit)
	copy(out, t.spans[start:])
	return out
}

// SpanCount returns the number of recorded spans.
func (t *Tracer) SpanCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Reset clears all recorded spans.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const (
	traceIDKey contextKey = "tradewave-trace-id"
	spanIDKey  contextKey = "tradewave-span-id"
)

// WithTraceID returns a context with the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithSpanID returns a context with the given span ID.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

func traceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return generateID()
}

func spanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(spanIDKey).(string); ok {
		return v
	}
	return ""
}

// generateID creates a short unique ID (not cryptographically secure — fine for tracing).
var spanCounter atomic.Int64

func generateID() string {
	n := spanCounter.Add(1)
	return fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), n)
}

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerOperations counts ledger mutations by operation and outcome.
// Outcome is "ok" or the error kind ("insufficient_balance", "conflict", …).
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tradewave",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations by operation and outcome.",
}, []string{"operation", "outcome"})

// LedgerOperationDuration tracks ledger operation latency.
var LedgerOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "tradewave",
	Subsystem: "ledger",
	Name:      "operation_duration_seconds",
	Help:      "Ledger operation latency in seconds.",
	Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"operation"})

// CreditsIssued totals the credit amounts issued.
var CreditsIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tradewave",
	Subsystem: "ledger",
	Name:      "credits_issued_total",
	Help:      "Total credit amount issued across all credits.",
})

// CreditsRedeemed totals the credit amounts redeemed back to issuers.
var CreditsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tradewave",
	Subsystem: "ledger",
	Name:      "credits_redeemed_total",
	Help:      "Total credit amount extinguished through redemption.",
})

// CreditsTransferred totals the credit amounts moved between accounts.
var CreditsTransferred = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tradewave",
	Subsystem: "ledger",
	Name:      "credits_transferred_total",
	Help:      "Total credit amount moved between accounts.",
})
