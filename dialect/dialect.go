package dialect

import (
	"context"
)

// Dialect names supported by the sql driver.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations the mapper issues.
//
// Exec executes a statement that does not return rows. args is expected
// to be a []any holding the bound arguments, and v an optional *sql.Result
// to receive the execution result.
//
// Query executes a statement that returns rows. args is expected to be a
// []any holding the bound arguments, and v a *sql.Rows (of the concrete
// driver package) to receive the cursor.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface the mapper operates against. The caller owns the
// driver's lifecycle; the mapper never calls Close.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a driver-backed transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
