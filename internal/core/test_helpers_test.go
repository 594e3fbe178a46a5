package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type logLine struct {
	level string
	msg   string
}

type captureLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *captureLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: msg})
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *captureLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	base := []ServiceOption{WithClock(ClockFunc(func() time.Time { return fixedNow }))}
	svc := NewInMemoryService(append(base, opts...)...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func loginAs(t *testing.T, d *Device, email, village string) Session {
	t.Helper()
	session, err := d.Login(context.Background(), email, "Tester", village)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return session
}
