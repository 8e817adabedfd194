package sqlite

/*
#include <stdlib.h>
#include <sqlite3.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
)

// Conn owns one open database handle. A Conn and all statements prepared
// from it must be confined to a single goroutine at a time; the engine's
// handles are not safe for unsynchronized concurrent use.
type Conn struct {
	db   *C.sqlite3
	path string
	cfg  *config
}

// Open opens or creates a database file at path. The special path
// ":memory:" opens a private in-memory database. The engine's process-wide
// initialization is performed before the first open.
func Open(path string, opts ...Option) (*Conn, error) {
	initialize()

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.logger = cfg.logger.With().Str("conn_id", uuid.NewString()).Logger()

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var db *C.sqlite3
	rc := C.sqlite3_open(cpath, &db)
	if rc != C.SQLITE_OK {
		// On failure a handle may still be allocated so the diagnostic can
		// be read from it; it must be closed either way.
		msg := "out of memory"
		if db != nil {
			msg = C.GoString(C.sqlite3_errmsg(db))
			C.sqlite3_close(db)
		}
		return nil, &Error{Type: ErrorTypeOpen, Code: int(rc), Message: msg}
	}

	if cfg.busyTimeout > 0 {
		C.sqlite3_busy_timeout(db, C.int(cfg.busyTimeout.Milliseconds()))
	}

	cfg.logger.Debug().Str("path", path).Msg("opened database")
	return &Conn{db: db, path: path, cfg: cfg}, nil
}

// Close releases the database handle. After a successful close every further
// operation on the connection returns a misuse error. Closing an already
// closed connection is a no-op.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	rc := C.sqlite3_close(c.db)
	if rc != C.SQLITE_OK {
		// Close fails if statements are still unfinalized; the handle stays
		// valid so the caller can finalize them and retry.
		return &Error{Type: ErrorTypeMisuse, Code: int(rc), Message: c.errmsg()}
	}
	c.db = nil
	c.cfg.logger.Debug().Msg("closed database")
	return nil
}

// Exec runs one or more semicolon-separated statements with no parameter
// binding and no result retrieval. On failure the returned *Error carries
// the engine's diagnostic message and the connection remains usable.
func (c *Conn) Exec(query string) error {
	if c.db == nil {
		return NewError(ErrorTypeMisuse, "exec on closed connection")
	}

	cquery := C.CString(query)
	defer C.free(unsafe.Pointer(cquery))

	var cerr *C.char
	rc := C.sqlite3_exec(c.db, cquery, nil, nil, &cerr)
	if rc != C.SQLITE_OK {
		msg := ""
		if cerr != nil {
			msg = C.GoString(cerr)
			C.sqlite3_free(unsafe.Pointer(cerr))
		}
		c.cfg.logger.Debug().Str("query", query).Str("error", msg).Msg("exec failed")
		return &Error{Type: ErrorTypeExec, Code: int(rc), Message: msg}
	}
	c.cfg.logger.Debug().Str("query", query).Msg("exec")
	return nil
}

// Prepare compiles the first statement in query. Any trailing statements are
// discarded; use PrepareRemaining to retrieve them. Input containing no
// statement (only whitespace or comments) fails with an empty-query error.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	stmt, _, err := c.PrepareRemaining(query)
	return stmt, err
}

// PrepareRemaining compiles the first statement in query and returns the
// unconsumed trailing SQL text alongside it.
func (c *Conn) PrepareRemaining(query string) (*Stmt, string, error) {
	if c.db == nil {
		return nil, "", NewError(ErrorTypeMisuse, "prepare on closed connection")
	}

	cquery := C.CString(query)
	defer C.free(unsafe.Pointer(cquery))

	var stmt *C.sqlite3_stmt
	var tail *C.char
	rc := C.sqlite3_prepare_v2(c.db, cquery, -1, &stmt, &tail)
	if rc != C.SQLITE_OK {
		return nil, "", &Error{Type: ErrorTypePrepare, Code: int(rc), Message: c.errmsg()}
	}

	// The tail points into the cquery buffer; copy it out before the
	// deferred free runs.
	remaining := ""
	if tail != nil {
		remaining = C.GoString(tail)
	}

	// The engine reports success with a nil statement when the input holds
	// no SQL at all.
	if stmt == nil {
		err := NewError(ErrorTypeEmptyQuery, fmt.Sprintf("no SQL statement found in %q", query))
		return nil, remaining, err
	}

	c.cfg.logger.Debug().Str("query", query).Msg("prepared statement")
	return &Stmt{conn: c, stmt: stmt}, remaining, nil
}

// LastInsertRowID returns the row identifier of the most recent successful
// insert on this connection, or 0 if none has occurred yet.
func (c *Conn) LastInsertRowID() int64 {
	if c.db == nil {
		return 0
	}
	return int64(C.sqlite3_last_insert_rowid(c.db))
}

// Changes returns the number of rows modified by the most recently completed
// INSERT, UPDATE or DELETE on this connection.
func (c *Conn) Changes() int64 {
	if c.db == nil {
		return 0
	}
	return int64(C.sqlite3_changes(c.db))
}

// errmsg returns the engine's most recent diagnostic for this connection.
func (c *Conn) errmsg() string {
	return C.GoString(C.sqlite3_errmsg(c.db))
}
