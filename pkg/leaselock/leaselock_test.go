package leaselock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

// memConn emulates the stage_locks table without expiry.
type memConn struct {
	mu     sync.Mutex
	holder map[string]string
	err    error
}

func newMemConn() *memConn {
	return &memConn{holder: map[string]string{}}
}

func (m *memConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return row{err: m.err}
	}
	key, holder := args[0].(string), args[1].(string)
	current, held := m.holder[key]

	switch {
	case strings.Contains(sql, "INSERT INTO stage_locks"):
		if held && current != holder {
			return row{err: pgx.ErrNoRows}
		}
		m.holder[key] = holder
		return row{key: key}
	case strings.Contains(sql, "UPDATE stage_locks"):
		if current != holder {
			return row{err: pgx.ErrNoRows}
		}
		return row{key: key}
	}
	return row{err: errors.New("unexpected query")}
}

func (m *memConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, holder := args[0].(string), args[1].(string)
	if strings.Contains(sql, "DELETE FROM stage_locks") && m.holder[key] == holder {
		delete(m.holder, key)
	}
	return pgconn.CommandTag{}, nil
}

func TestAcquireBusyAndRelease(t *testing.T) {
	conn := newMemConn()
	client := New(conn)
	ctx := context.Background()

	lease, err := client.Acquire(ctx, "pipeline", Options{Holder: "worker-a:"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !strings.HasPrefix(lease.Holder, "worker-a:") {
		t.Fatalf("unexpected holder %q", lease.Holder)
	}

	if _, err := client.Acquire(ctx, "pipeline", Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if lease.Context.Err() == nil {
		t.Fatal("lease context should be cancelled after release")
	}

	again, err := client.Acquire(ctx, "pipeline", Options{})
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release(ctx)
}

func TestAcquireWaitHonoursContext(t *testing.T) {
	conn := newMemConn()
	conn.holder["pipeline"] = "someone-else"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(conn).Acquire(ctx, "pipeline", Options{Wait: true, WaitInterval: 10 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithLease(t *testing.T) {
	conn := newMemConn()
	client := New(conn)

	called := false
	err := client.WithLease(context.Background(), "pipeline", Options{}, func(ctx context.Context) error {
		called = true
		if len(conn.holder) != 1 {
			t.Fatal("lock should be held inside fn")
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("WithLease() = %v, called=%v", err, called)
	}
	if len(conn.holder) != 0 {
		t.Fatal("lock should be released after fn")
	}
}

func TestAcquireErrors(t *testing.T) {
	if _, err := New(newMemConn()).Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatal("expected error for empty key")
	}

	conn := newMemConn()
	conn.err = errors.New("connection refused")
	if _, err := New(conn).Acquire(context.Background(), "pipeline", Options{}); err == nil || errors.Is(err, ErrBusy) {
		t.Fatalf("expected database error, got %v", err)
	}
}

func TestLeaseLostCancelsContext(t *testing.T) {
	conn := newMemConn()
	lease, err := New(conn).Acquire(context.Background(), "pipeline", Options{TTL: 2 * time.Second, RenewEvery: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer lease.Release(context.Background())

	conn.mu.Lock()
	conn.holder["pipeline"] = "thief"
	conn.mu.Unlock()

	select {
	case <-lease.Context.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("lease context was not cancelled")
	}
	if !errors.Is(context.Cause(lease.Context), ErrLost) {
		t.Fatalf("expected ErrLost cause, got %v", context.Cause(lease.Context))
	}
}

func TestOptionsNormalized(t *testing.T) {
	o := Options{TTL: time.Minute, RenewEvery: 2 * time.Minute}.normalized()
	if o.RenewEvery != 30*time.Second || o.WaitInterval <= 0 {
		t.Fatalf("unexpected options %+v", o)
	}
}
