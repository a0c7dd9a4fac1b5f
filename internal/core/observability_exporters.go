package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// OperationStats aggregates the outcomes of one service operation.
type OperationStats struct {
	Calls   int64   `json:"calls"`
	Errors  int64   `json:"errors"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// ExpvarMetricsSnapshot is the JSON shape published under /debug/vars.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	TakenAt    time.Time                 `json:"taken_at"`
}

// ExpvarMetricsRecorder aggregates per-operation call counts, error counts
// and latency totals, published via expvar for installations that run
// without a Prometheus scraper.
type ExpvarMetricsRecorder struct {
	name  string
	mu    sync.Mutex
	stats map[string]OperationStats
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under the
// supplied expvar name. Publishing the same name twice panics inside expvar,
// so an empty name gets a unique generated one.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("panicconf_service_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:  name,
		stats: make(map[string]OperationStats),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated statistics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	operations := make(map[string]OperationStats, len(r.stats))
	for op, st := range r.stats {
		operations[op] = st
	}
	return ExpvarMetricsSnapshot{
		Operations: operations,
		TakenAt:    time.Now().UTC(),
	}
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	st := r.stats[operation]
	st.Calls++
	if !success {
		st.Errors++
	}
	st.TotalMS += ms
	if ms > st.MaxMS {
		st.MaxMS = ms
	}
	r.stats[operation] = st
	r.mu.Unlock()
}

// traceRetention caps how many completed spans the tracer keeps in memory.
const traceRetention = 128

// SpanRecord is one completed service operation span.
type SpanRecord struct {
	Seq        uint64    `json:"seq"`
	Operation  string    `json:"operation"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONTraceTracer writes completed spans as JSON lines and retains the most
// recent ones for inspection. Retention is capped at traceRetention records
// so a long-lived server never grows without bound.
type JSONTraceTracer struct {
	mu     sync.Mutex
	seq    uint64
	recent []SpanRecord
	enc    *json.Encoder
}

// NewJSONTracer constructs a tracer writing JSON lines to w. A nil writer
// keeps the in-memory retention only.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Recent returns a copy of the retained spans, oldest first.
func (t *JSONTraceTracer) Recent() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanRecord, len(t.recent))
	copy(out, t.recent)
	return out
}

// Start implements the Tracer interface.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := time.Now().UTC()
	record := SpanRecord{
		Operation:  s.operation,
		OK:         err == nil,
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
	}
	if err != nil {
		record.Error = err.Error()
	}

	t := s.tracer
	t.mu.Lock()
	t.seq++
	record.Seq = t.seq
	t.recent = append(t.recent, record)
	if len(t.recent) > traceRetention {
		t.recent = t.recent[len(t.recent)-traceRetention:]
	}
	if t.enc != nil {
		_ = t.enc.Encode(record)
	}
	t.mu.Unlock()
}
