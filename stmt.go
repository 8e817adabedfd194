package sqlite

/*
#include <stdlib.h>
#include <sqlite3.h>

// SQLITE_TRANSIENT is a macro cast that cgo cannot express, so text and blob
// binds go through these wrappers. The engine copies the buffer before the
// call returns.
static int bind_text_transient(sqlite3_stmt *stmt, int idx, const char *p, int n) {
	return sqlite3_bind_text(stmt, idx, p, n, SQLITE_TRANSIENT);
}

static int bind_blob_transient(sqlite3_stmt *stmt, int idx, const void *p, int n) {
	return sqlite3_bind_blob(stmt, idx, p, n, SQLITE_TRANSIENT);
}
*/
import "C"

import (
	"fmt"
	"math"
	"reflect"
	"time"
	"unsafe"
)

// Stmt owns one compiled statement. It is valid between Prepare and
// Finalize and must not outlive its connection.
type Stmt struct {
	conn *Conn
	stmt *C.sqlite3_stmt
}

// Step advances execution by one row. It returns StepRow when a result row
// is available, StepDone when execution has finished, and StepBusy when the
// engine could not acquire a required lock. Any other engine status is
// returned as an error carrying the raw result code.
func (s *Stmt) Step() (StepResult, error) {
	if s.stmt == nil {
		return 0, NewError(ErrorTypeMisuse, "step on finalized statement")
	}
	rc := C.sqlite3_step(s.stmt)
	switch rc {
	case C.SQLITE_ROW:
		return StepRow, nil
	case C.SQLITE_DONE:
		return StepDone, nil
	case C.SQLITE_BUSY:
		s.conn.cfg.logger.Debug().Msg("step reported busy")
		return StepBusy, nil
	}
	return 0, &Error{Type: ErrorTypeStep, Code: int(rc), Message: s.conn.errmsg()}
}

// NextRow steps the statement and returns the resulting row, or (nil, nil)
// once execution is done. Lock contention is reported as a busy error that
// the caller may retry after its own backoff.
func (s *Stmt) NextRow() (*Row, error) {
	res, err := s.Step()
	if err != nil {
		return nil, err
	}
	switch res {
	case StepRow:
		return &Row{stmt: s}, nil
	case StepBusy:
		return nil, &Error{Type: ErrorTypeBusy, Code: int(C.SQLITE_BUSY), Message: "database is locked"}
	}
	return nil, nil
}

// Reset returns the statement to its pre-execution state without releasing
// it. Bindings are kept. Reset must be called before re-stepping a statement
// that has finished, and before rebinding one that has started.
func (s *Stmt) Reset() error {
	if s.stmt == nil {
		return NewError(ErrorTypeMisuse, "reset on finalized statement")
	}
	rc := C.sqlite3_reset(s.stmt)
	if rc != C.SQLITE_OK {
		// Reset reports the error of the most recent failed step.
		return &Error{Type: ErrorTypeStep, Code: int(rc), Message: s.conn.errmsg()}
	}
	return nil
}

// ClearBindings sets every parameter back to NULL.
func (s *Stmt) ClearBindings() error {
	if s.stmt == nil {
		return NewError(ErrorTypeMisuse, "clear bindings on finalized statement")
	}
	if rc := C.sqlite3_clear_bindings(s.stmt); rc != C.SQLITE_OK {
		return &Error{Type: ErrorTypeBind, Code: int(rc), Message: s.conn.errmsg()}
	}
	return nil
}

// Finalize releases the compiled statement. After Finalize every further
// call on the statement returns a misuse error. Finalizing twice is a no-op.
func (s *Stmt) Finalize() error {
	if s.stmt == nil {
		return nil
	}
	rc := C.sqlite3_finalize(s.stmt)
	s.stmt = nil
	s.conn.cfg.logger.Debug().Msg("finalized statement")
	if rc != C.SQLITE_OK {
		// Finalize reports the error of the most recent failed step; the
		// statement is released regardless.
		return &Error{Type: ErrorTypeStep, Code: int(rc), Message: s.conn.errmsg()}
	}
	return nil
}

// BindValue binds one value at a 1-based parameter position. Supported
// values: nil, signed and unsigned integers, floats, bool, string, []byte,
// Blob, fixed-size byte arrays (bound as text), time.Time (bound as
// RFC3339Nano text) and pointers to any of these. Nil pointers and nil byte
// slices bind NULL.
func (s *Stmt) BindValue(index int, value any) error {
	if s.stmt == nil {
		return NewError(ErrorTypeMisuse, "bind on finalized statement")
	}
	if value == nil {
		return s.bindResult(C.sqlite3_bind_null(s.stmt, C.int(index)))
	}

	switch v := value.(type) {
	case Blob:
		if v == nil {
			return s.bindResult(C.sqlite3_bind_null(s.stmt, C.int(index)))
		}
		return s.bindBlob(index, []byte(v))
	case []byte:
		// A nil slice binds NULL; an empty non-nil slice keeps the BLOB
		// storage class.
		if v == nil {
			return s.bindResult(C.sqlite3_bind_null(s.stmt, C.int(index)))
		}
		return s.bindBlob(index, v)
	case string:
		return s.bindText(index, v)
	case time.Time:
		return s.bindText(index, v.Format(time.RFC3339Nano))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return s.bindResult(C.sqlite3_bind_int64(s.stmt, C.int(index), C.sqlite3_int64(rv.Int())))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return NewError(ErrorTypeBind, fmt.Sprintf("unsigned value %d overflows INTEGER at parameter %d", u, index))
		}
		return s.bindResult(C.sqlite3_bind_int64(s.stmt, C.int(index), C.sqlite3_int64(u)))
	case reflect.Float32, reflect.Float64:
		return s.bindResult(C.sqlite3_bind_double(s.stmt, C.int(index), C.double(rv.Float())))
	case reflect.Bool:
		n := int64(0)
		if rv.Bool() {
			n = 1
		}
		return s.bindResult(C.sqlite3_bind_int64(s.stmt, C.int(index), C.sqlite3_int64(n)))
	case reflect.String:
		return s.bindText(index, rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return s.bindResult(C.sqlite3_bind_null(s.stmt, C.int(index)))
			}
			return s.bindBlob(index, rv.Bytes())
		}
	case reflect.Array:
		// Fixed-size byte arrays are bound as text.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return s.bindText(index, string(buf))
		}
	case reflect.Ptr:
		if rv.IsNil() {
			return s.bindResult(C.sqlite3_bind_null(s.stmt, C.int(index)))
		}
		return s.BindValue(index, rv.Elem().Interface())
	}
	return NewError(ErrorTypeBind, fmt.Sprintf("cannot bind value of type %T at parameter %d", value, index))
}

// BindValues binds every field of a struct positionally in declaration
// order, starting at parameter 1. Field names are never matched against
// parameter names. A pointer to a struct is also accepted.
func (s *Stmt) BindValues(args any) error {
	rv := reflect.ValueOf(args)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return NewError(ErrorTypeBind, fmt.Sprintf("cannot bind values from %T, want a struct", args))
	}
	for i := 0; i < rv.NumField(); i++ {
		if !rv.Type().Field(i).IsExported() {
			return NewError(ErrorTypeBind, fmt.Sprintf("cannot bind unexported field %s", rv.Type().Field(i).Name))
		}
		if err := s.BindValue(i+1, rv.Field(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// ExpandedSQL returns the statement text with the bound parameter values
// substituted in, for diagnostics and logging.
func (s *Stmt) ExpandedSQL() string {
	if s.stmt == nil {
		return ""
	}
	p := C.sqlite3_expanded_sql(s.stmt)
	if p == nil {
		return ""
	}
	defer C.sqlite3_free(unsafe.Pointer(p))
	return C.GoString(p)
}

// ParameterCount returns the index of the largest parameter in the
// statement.
func (s *Stmt) ParameterCount() int {
	if s.stmt == nil {
		return 0
	}
	return int(C.sqlite3_bind_parameter_count(s.stmt))
}

// ColumnCount returns the number of columns the statement produces.
func (s *Stmt) ColumnCount() int {
	if s.stmt == nil {
		return 0
	}
	return int(C.sqlite3_column_count(s.stmt))
}

// ColumnName returns the name of the 0-based result column.
func (s *Stmt) ColumnName(i int) string {
	if s.stmt == nil {
		return ""
	}
	return C.GoString(C.sqlite3_column_name(s.stmt, C.int(i)))
}

func (s *Stmt) bindText(index int, text string) error {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	return s.bindResult(C.bind_text_transient(s.stmt, C.int(index), ctext, C.int(len(text))))
}

func (s *Stmt) bindBlob(index int, blob []byte) error {
	if len(blob) == 0 {
		// A nil pointer would bind NULL; a zero-length blob keeps the BLOB
		// storage class.
		return s.bindResult(C.sqlite3_bind_zeroblob(s.stmt, C.int(index), 0))
	}
	return s.bindResult(C.bind_blob_transient(s.stmt, C.int(index), unsafe.Pointer(&blob[0]), C.int(len(blob))))
}

func (s *Stmt) bindResult(rc C.int) error {
	if rc != C.SQLITE_OK {
		return &Error{Type: ErrorTypeBind, Code: int(rc), Message: s.conn.errmsg()}
	}
	return nil
}
