package sqlite

/*
#cgo LDFLAGS: -lsqlite3
#include <sqlite3.h>
*/
import "C"

import "sync"

// ColumnType identifies the storage class of a column value in the current
// row, as reported by the engine.
type ColumnType int

const (
	TypeInteger ColumnType = C.SQLITE_INTEGER
	TypeFloat   ColumnType = C.SQLITE_FLOAT
	TypeText    ColumnType = C.SQLITE_TEXT
	TypeBlob    ColumnType = C.SQLITE_BLOB
	TypeNull    ColumnType = C.SQLITE_NULL
)

// String returns the SQLite name of the storage class.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeNull:
		return "NULL"
	}
	return "UNKNOWN"
}

// StepResult is the outcome of advancing a prepared statement by one step.
type StepResult int

const (
	// StepRow indicates a result row is available for reading.
	StepRow StepResult = iota + 1
	// StepDone indicates the statement has finished executing.
	StepDone
	// StepBusy indicates the engine could not acquire the locks it needs.
	// The caller owns the retry/backoff policy.
	StepBusy
)

// String returns a human-readable name for the step result.
func (r StepResult) String() string {
	switch r {
	case StepRow:
		return "row"
	case StepDone:
		return "done"
	case StepBusy:
		return "busy"
	}
	return "unknown"
}

var initOnce sync.Once

// initialize performs the engine's process-wide initialization exactly once,
// before the first connection is opened.
func initialize() {
	initOnce.Do(func() {
		C.sqlite3_initialize()
	})
}

// Version returns the version string of the linked SQLite library.
func Version() string {
	return C.GoString(C.sqlite3_libversion())
}
