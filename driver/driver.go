package driver

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"

	"github.com/tomyedwab/sqlite"
)

const driverName = "sqlite"

func init() {
	sql.Register(driverName, &Driver{})
}

// --- Driver implementation ---

// Driver is the database/sql driver over the sqlite binding.
type Driver struct{}

// Open returns a new connection to the database. The name is the database
// file path, or ":memory:" for a private in-memory database.
func (d *Driver) Open(name string) (driver.Conn, error) {
	conn, err := sqlite.Open(name)
	if err != nil {
		return nil, fmt.Errorf("sqlite driver: failed to open %q: %w", name, err)
	}
	return &Conn{conn: conn}, nil
}

// --- Connection implementation ---

// Conn implements the driver.Conn interface.
type Conn struct {
	conn *sqlite.Conn
	inTx bool
}

// Prepare returns a prepared statement, suitable for query or execution.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("sqlite driver: failed to prepare statement: %w", err)
	}
	return &Stmt{conn: c, stmt: stmt, query: query}, nil
}

// Close invalidates and releases the underlying database handle.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Begin starts and returns a new transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	if c.inTx {
		return nil, fmt.Errorf("sqlite driver: transaction already active on this connection")
	}
	if err := c.conn.Exec("BEGIN"); err != nil {
		return nil, fmt.Errorf("sqlite driver: failed to begin transaction: %w", err)
	}
	c.inTx = true
	return &Tx{conn: c}, nil
}

// --- Transaction implementation ---

// Tx implements the driver.Tx interface.
type Tx struct {
	conn *Conn
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	t.conn.inTx = false
	if err := t.conn.conn.Exec("COMMIT"); err != nil {
		return fmt.Errorf("sqlite driver: failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	t.conn.inTx = false
	if err := t.conn.conn.Exec("ROLLBACK"); err != nil {
		return fmt.Errorf("sqlite driver: failed to roll back transaction: %w", err)
	}
	return nil
}

// --- Statement implementation ---

// Stmt implements the driver.Stmt interface.
type Stmt struct {
	conn  *Conn
	stmt  *sqlite.Stmt
	query string // Original query, mainly for context/debugging
}

// Close releases the compiled statement.
func (s *Stmt) Close() error {
	return s.stmt.Finalize()
}

// NumInput returns the number of placeholder parameters.
func (s *Stmt) NumInput() int {
	return s.stmt.ParameterCount()
}

func (s *Stmt) bindArgs(args []driver.Value) error {
	// database/sql reuses prepared statements; return to the pre-execution
	// state before rebinding.
	if err := s.stmt.Reset(); err != nil {
		return err
	}
	for i, arg := range args {
		if err := s.stmt.BindValue(i+1, arg); err != nil {
			return fmt.Errorf("sqlite driver: failed to bind parameter %d: %w", i+1, err)
		}
	}
	return nil
}

// Exec executes a prepared statement with the given arguments and returns a
// Result.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if err := s.bindArgs(args); err != nil {
		return nil, err
	}
	for {
		res, err := s.stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("sqlite driver: exec failed for %q: %w", s.query, err)
		}
		switch res {
		case sqlite.StepDone:
			return &execResult{
				lastInsertID: s.conn.conn.LastInsertRowID(),
				rowsAffected: s.conn.conn.Changes(),
			}, nil
		case sqlite.StepBusy:
			return nil, fmt.Errorf("sqlite driver: database is locked executing %q", s.query)
		}
		// StepRow: the statement produced rows through Exec; drain them.
	}
}

// Query executes a prepared statement with the given arguments and returns
// Rows. Stepping happens lazily in Rows.Next.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if err := s.bindArgs(args); err != nil {
		return nil, err
	}
	return &Rows{stmt: s}, nil
}

// --- Rows implementation ---

// Rows implements the driver.Rows interface over the statement's cursor.
type Rows struct {
	stmt *Stmt
}

// Columns returns the names of the result columns.
func (r *Rows) Columns() []string {
	cols := make([]string, r.stmt.stmt.ColumnCount())
	for i := range cols {
		cols[i] = r.stmt.stmt.ColumnName(i)
	}
	return cols
}

// Close resets the statement so database/sql can reuse it; the statement
// itself is released by Stmt.Close.
func (r *Rows) Close() error {
	return r.stmt.stmt.Reset()
}

// Next advances to the next row and copies its column values into dest.
func (r *Rows) Next(dest []driver.Value) error {
	row, err := r.stmt.stmt.NextRow()
	if err != nil {
		if sqlite.IsBusy(err) {
			return fmt.Errorf("sqlite driver: database is locked reading %q: %w", r.stmt.query, err)
		}
		return err
	}
	if row == nil {
		return io.EOF
	}
	for i := range dest {
		switch row.ColumnType(i) {
		case sqlite.TypeInteger:
			dest[i] = row.Int(i)
		case sqlite.TypeFloat:
			dest[i] = row.Float(i)
		case sqlite.TypeText:
			dest[i] = row.Text(i)
		case sqlite.TypeBlob:
			dest[i] = row.Blob(i)
		default:
			dest[i] = nil
		}
	}
	return nil
}

// --- Result implementation ---

type execResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r *execResult) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

func (r *execResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
