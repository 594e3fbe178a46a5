package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation totals via expvar for
// deployments that scrape /debug/vars instead of Prometheus.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
}

// ExpvarMetricsSnapshot is a copy of the recorded totals.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated name when empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("heritagecore_operations_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot returns a copy of the totals.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]map[string]int64, len(r.results))
	for op, counts := range r.results {
		results[op] = maps.Clone(counts)
	}
	return ExpvarMetricsSnapshot{
		DurationsMS: maps.Clone(r.durations),
		Results:     results,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := string(AuditStatusError)
	if success {
		status = string(AuditStatusSuccess)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[operation] += float64(duration) / float64(time.Millisecond)
	if _, ok := r.results[operation]; !ok {
		r.results[operation] = make(map[string]int64, 2)
	}
	r.results[operation][status]++
}

// JSONTraceEntry is one span written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// DefaultTraceRetention is how many recent spans a JSONTraceTracer keeps.
const DefaultTraceRetention = 256

// JSONTraceTracer writes spans as JSON lines and keeps the most recent ones
// for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	retain  int
	enc     *json.Encoder
	clock   Clock
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{
		retain: DefaultTraceRetention,
		clock:  ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// WithClock sets the span time source and returns the tracer.
func (t *JSONTraceTracer) WithClock(clock Clock) *JSONTraceTracer {
	if clock != nil {
		t.clock = clock
	}
	return t
}

// WithRetention sets how many recent spans are kept and returns the tracer.
func (t *JSONTraceTracer) WithRetention(n int) *JSONTraceTracer {
	if n > 0 {
		t.mu.Lock()
		t.retain = n
		t.mu.Unlock()
	}
	return t
}

// Entries returns a copy of the retained spans, oldest first.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: t.clock.Now()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := s.tracer.clock.Now()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     string(AuditStatusSuccess),
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = string(AuditStatusError)
		entry.Error = err.Error()
	}
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	if n := len(s.tracer.entries); n >= s.tracer.retain {
		drop := n - s.tracer.retain + 1
		copy(s.tracer.entries, s.tracer.entries[drop:])
		s.tracer.entries = s.tracer.entries[:n-drop]
	}
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
}

// LogAuditRecorder writes audit entries to a Logger.
type LogAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LogAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	if r.Logger == nil {
		return
	}
	keyvals := []any{
		"operation", entry.Operation,
		"entity", entry.Entity,
		"action", entry.Action,
		"entity_id", entry.EntityID,
		"device", entry.Device,
		"actor", entry.Actor,
		"status", entry.Status,
		"duration", entry.Duration,
	}
	if entry.Status == AuditStatusError {
		r.Logger.Warn("audit", append(keyvals, "error", entry.Error)...)
		return
	}
	r.Logger.Info("audit", keyvals...)
}
