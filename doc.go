// Package sqlite provides a typed binding over the SQLite C library. It
// exposes the engine's connection, prepared-statement, parameter-binding and
// row-reading primitives directly, plus reflective helpers that bind struct
// fields to statement parameters and decode result rows into structs by
// field position. The engine itself (parsing, planning, storage, locking) is
// the unmodified system libsqlite3; this package is only the glue between it
// and Go values.
//
// A Conn and the Stmts prepared from it are not safe for concurrent use;
// callers must serialize access to each connection. Every call is a direct,
// synchronous call into the engine.
package sqlite
