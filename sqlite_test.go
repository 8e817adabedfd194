package sqlite

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func mustOpen(t *testing.T, path string, opts ...Option) *Conn {
	t.Helper()
	conn, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", path, err)
	}
	return conn
}

func TestOpenClose(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "in-memory database",
			path: func(t *testing.T) string { return ":memory:" },
		},
		{
			name: "file-backed database",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "test.db") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := mustOpen(t, tt.path(t))
			if err := conn.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
				t.Fatalf("Exec failed: %v", err)
			}
			if err := conn.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
		})
	}
}

func TestOpenFailure(t *testing.T) {
	// A directory cannot be opened as a database file.
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected opening a directory to fail")
	}
	sErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !sErr.IsType(ErrorTypeOpen) {
		t.Errorf("expected ErrorTypeOpen, got %v", sErr.Type)
	}
}

func TestUseAfterClose(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}

	if err := conn.Exec("SELECT 1"); !IsMisuse(err) {
		t.Errorf("Exec after Close: expected misuse error, got %v", err)
	}
	if _, err := conn.Prepare("SELECT 1"); !IsMisuse(err) {
		t.Errorf("Prepare after Close: expected misuse error, got %v", err)
	}
	if id := conn.LastInsertRowID(); id != 0 {
		t.Errorf("LastInsertRowID after Close: expected 0, got %d", id)
	}
}

func TestExecError(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	err := conn.Exec("NOT VALID SQL")
	if err == nil {
		t.Fatal("expected invalid SQL to fail")
	}
	sErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !sErr.IsType(ErrorTypeExec) {
		t.Errorf("expected ErrorTypeExec, got %v", sErr.Type)
	}
	if sErr.Message == "" {
		t.Error("expected a non-empty engine diagnostic")
	}

	// The connection must remain usable after a failed exec.
	if err := conn.Exec("CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("Exec after a failure should succeed: %v", err)
	}
}

func TestLastInsertRowID(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	if id := conn.LastInsertRowID(); id != 0 {
		t.Fatalf("expected 0 before any insert, got %d", id)
	}

	if err := conn.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, v TEXT)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := conn.Exec("INSERT INTO t (v) VALUES ('x')"); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
		if id := conn.LastInsertRowID(); id != int64(i) {
			t.Errorf("after insert %d: expected rowid %d, got %d", i, i, id)
		}
	}
}

func TestChanges(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	if err := conn.Exec("CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1), (2), (3)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := conn.Exec("UPDATE t SET x = x + 1"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if n := conn.Changes(); n != 3 {
		t.Errorf("expected 3 changed rows, got %d", n)
	}
}

func TestPrepareEmptyQuery(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	tests := []struct {
		name  string
		query string
	}{
		{name: "empty string", query: ""},
		{name: "whitespace only", query: "   \n\t  "},
		{name: "comment only", query: "-- nothing to see here\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := conn.Prepare(tt.query)
			if stmt != nil {
				stmt.Finalize()
				t.Fatal("expected no statement")
			}
			if !IsEmptyQuery(err) {
				t.Errorf("expected empty-query error, got %v", err)
			}
			if sErr, ok := err.(*Error); ok && sErr.Message == "" {
				t.Error("expected a descriptive message")
			}
		})
	}
}

func TestPrepareSyntaxError(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	_, err := conn.Prepare("SELECT FROM WHERE")
	if !IsPrepareError(err) {
		t.Fatalf("expected prepare error, got %v", err)
	}
	if sErr, ok := err.(*Error); ok && sErr.Message == "" {
		t.Error("expected the engine diagnostic in the error")
	}
}

func TestPrepareRemaining(t *testing.T) {
	conn := mustOpen(t, ":memory:")
	defer conn.Close()

	tests := []struct {
		name      string
		query     string
		remaining string
	}{
		{
			name:      "single statement",
			query:     "SELECT 1",
			remaining: "",
		},
		{
			name:      "single statement with terminator",
			query:     "SELECT 1;",
			remaining: "",
		},
		{
			name:      "two statements",
			query:     "SELECT 1; SELECT 2;",
			remaining: " SELECT 2;",
		},
		{
			name:      "trailing text preserved verbatim",
			query:     "SELECT 1;\nSELECT 2",
			remaining: "\nSELECT 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, remaining, err := conn.PrepareRemaining(tt.query)
			if err != nil {
				t.Fatalf("PrepareRemaining failed: %v", err)
			}
			defer stmt.Finalize()
			if remaining != tt.remaining {
				t.Errorf("expected remaining %q, got %q", tt.remaining, remaining)
			}
		})
	}
}

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	conn := mustOpen(t, ":memory:", WithLogger(logger))
	if err := conn.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	stmt, err := conn.Prepare("SELECT x FROM t")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := stmt.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"opened database", "exec", "prepared statement", "finalized statement",
		"closed database", "conn_id",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWithBusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contended.db")
	const wait = 250 * time.Millisecond

	writer := mustOpen(t, path)
	defer writer.Close()
	reader := mustOpen(t, path, WithBusyTimeout(wait))
	defer reader.Close()

	if err := writer.Exec("CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	stmt, err := reader.Prepare("SELECT x FROM t")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	defer stmt.Finalize()

	if err := writer.Exec("BEGIN EXCLUSIVE"); err != nil {
		t.Fatalf("BEGIN EXCLUSIVE failed: %v", err)
	}

	// The engine's busy handler must hold the step for at least the
	// configured timeout before giving up; without the option the busy
	// report is immediate (TestStepBusy).
	start := time.Now()
	res, err := stmt.Step()
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res != StepBusy {
		t.Fatalf("expected StepBusy while the writer holds an exclusive lock, got %v", res)
	}
	if elapsed < wait-50*time.Millisecond {
		t.Errorf("expected the step to wait about %v before reporting busy, returned after %v", wait, elapsed)
	}

	if err := writer.Exec("COMMIT"); err != nil {
		t.Fatalf("COMMIT failed: %v", err)
	}
}

func TestVersion(t *testing.T) {
	if v := Version(); !strings.HasPrefix(v, "3.") {
		t.Errorf("expected a SQLite 3 version string, got %q", v)
	}
}
