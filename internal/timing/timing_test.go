package timing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs []execCall
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type scalarRow struct{ v int64 }

func (r scalarRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.v
	return nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return scalarRow{v: 1500}
}

func TestRecorder(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Record(context.Background(), "fetch", 1, time.Second)
	(&Recorder{}).Record(context.Background(), "fetch", 1, time.Second)

	conn := &fakeDB{}
	(&Recorder{Conn: conn}).Record(context.Background(), "build", 10, 2500*time.Millisecond)
	if len(conn.execs) != 1 {
		t.Fatalf("expected one insert, got %d", len(conn.execs))
	}
	call := conn.execs[0]
	if !strings.Contains(call.sql, "INSERT INTO stage_runs") {
		t.Fatalf("unexpected sql %q", call.sql)
	}
	if call.args[1] != "build" || call.args[2] != int32(10) || call.args[3] != int64(2500) {
		t.Fatalf("unexpected args %v", call.args)
	}

	conn.err = errors.New("db down")
	(&Recorder{Conn: conn}).Record(context.Background(), "build", 1, time.Second)
}

func TestPredictStageDuration(t *testing.T) {
	d, err := PredictStageDuration(context.Background(), &fakeDB{}, "index", 10)
	if err != nil {
		t.Fatal(err)
	}
	if d != 1500*time.Millisecond {
		t.Fatalf("PredictStageDuration() = %v", d)
	}
}

func TestRecorderPredict(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Predict(context.Background(), "build", 10)
	(&Recorder{Conn: &fakeDB{}}).Predict(context.Background(), "build", 0)
	(&Recorder{Conn: &fakeDB{}}).Predict(context.Background(), "build", 10)
}
