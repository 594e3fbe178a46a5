package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopImplementations(t *testing.T) {
	var logger noopLogger
	logger.Debug("noop")
	logger.Info("noop")
	logger.Warn("noop")
	logger.Error("noop")

	var audit noopAuditRecorder
	audit.Record(context.Background(), AuditEntry{})

	var metrics noopMetricsRecorder
	metrics.Observe(context.Background(), "noop", true, 0)

	ctx, span := noopTracer{}.Start(context.Background(), "op")
	if ctx == nil {
		t.Fatalf("expected context from tracer")
	}
	span.End(nil)
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "heritagecore_operations_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
	rec.Observe(context.Background(), "login", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "login", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["login"] != 25 {
		t.Fatalf("expected 25ms total, got %v", snap.DurationsMS["login"])
	}
	if snap.Results["login"]["success"] != 1 || snap.Results["login"]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation names must be ignored")
	}
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("expected recorder published")
	}
	snap.Results["login"]["success"] = 99
	if rec.Snapshot().Results["login"]["success"] != 1 {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestJSONTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	now := fixedNow
	tracer := NewJSONTracer(&buf).WithClock(ClockFunc(func() time.Time { return now }))
	_, span := tracer.Start(context.Background(), "submit_challenge")
	now = now.Add(1500 * time.Microsecond)
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Status != "error" || entries[0].Error != "boom" || entries[0].DurationMS != 1.5 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded.Operation != "submit_challenge" {
		t.Fatalf("unexpected decoded entry %+v", decoded)
	}
}

func TestJSONTracerRetainsRecentSpans(t *testing.T) {
	tracer := NewJSONTracer(nil).WithRetention(3)
	for _, op := range []string{"a", "b", "c", "d", "e"} {
		_, span := tracer.Start(context.Background(), op)
		span.End(nil)
	}
	entries := tracer.Entries()
	if len(entries) != 3 || entries[0].Operation != "c" || entries[2].Operation != "e" {
		t.Fatalf("expected the last three spans, got %+v", entries)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	rec, err := NewPrometheusMetricsRecorder()
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "create_item", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_item", false, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_item", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "", true, 0)

	if got := testutil.ToFloat64(rec.total.WithLabelValues("create_item", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(rec.total.WithLabelValues("create_item", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), "heritagecore_operation_duration_seconds") {
		t.Fatalf("expected histogram in exposition output")
	}
}

func TestLogAuditRecorder(t *testing.T) {
	logger := &captureLogger{}
	rec := LogAuditRecorder{Logger: logger}
	rec.Record(context.Background(), AuditEntry{Operation: "login", Status: AuditStatusSuccess})
	rec.Record(context.Background(), AuditEntry{Operation: "login", Status: AuditStatusError, Error: "x"})
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{})
	if logger.count("info", "audit") != 1 || logger.count("warn", "audit") != 1 {
		t.Fatalf("unexpected log lines %+v", logger.lines)
	}
}
