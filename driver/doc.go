// Package driver adapts the sqlite binding to the standard database/sql
// interfaces. Importing it registers the "sqlite" driver; the data source
// name is the database file path, or ":memory:" for a private in-memory
// database.
//
// The in-memory database lives on a single engine connection, so pools
// using it should be limited to one open connection.
package driver
