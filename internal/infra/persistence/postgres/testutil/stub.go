// Package testutil provides a stub database/sql driver emulating the postgres
// state table for key-value store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq uint64

// StubConn records statements and keeps state rows in memory.
type StubConn struct {
	mu        sync.Mutex
	Execs     []string
	State     map[string][]byte
	FailExec  bool
	FailPing  bool
	FailQuery bool
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{State: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", atomic.AddUint64(&stubSeq, 1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Statements returns a copy of the recorded statements.
func (c *StubConn) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Execs))
	copy(out, c.Execs)
	return out
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "INSERT INTO STATE"):
		if len(args) != 2 {
			return nil, fmt.Errorf("insert expects 2 args, got %d", len(args))
		}
		key, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be a string")
		}
		payload, err := asBytes(args[1].Value)
		if err != nil {
			return nil, err
		}
		c.State[key] = payload
	case strings.HasPrefix(upper, "DELETE FROM STATE"):
		if len(args) != 1 {
			return nil, fmt.Errorf("delete expects 1 arg, got %d", len(args))
		}
		key, _ := args[0].Value.(string)
		delete(c.State, key)
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for the single-key select.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT PAYLOAD FROM STATE") {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	rows := &stubRows{cols: []string{"payload"}}
	if len(args) == 1 {
		key, _ := args[0].Value.(string)
		if payload, ok := c.State[key]; ok {
			rows.rows = append(rows.rows, []driver.Value{payload})
		}
	}
	return rows, nil
}

func asBytes(v driver.Value) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out, nil
	case string:
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
