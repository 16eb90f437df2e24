package persistence

import "context"

// Executor runs statements against a live database instance.
//
// Parameters are positional and limited to text (string), number (Go integer,
// float and bool types), binary ([]byte), and null (nil). Errors raised by the
// engine itself are returned unmodified.
type Executor interface {
	// Query runs a parameterized read and returns column names and rows.
	Query(ctx context.Context, query string, args ...any) (*Result, error)

	// Exec runs a single parameterized mutating statement and reports the
	// number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// ExecScript runs a raw script of semicolon separated statements without
	// parameter binding.
	ExecScript(ctx context.Context, script string) error

	// Select scans all rows into dest, which must be a pointer to a slice.
	Select(ctx context.Context, dest any, query string, args ...any) error

	// Get scans a single row into dest.
	Get(ctx context.Context, dest any, query string, args ...any) error
}

// TxFunc is invoked with an Executor bound to an open transaction.
type TxFunc func(ctx context.Context, tx Executor) error

// Transactor is an Executor that can also scope work in a transaction.
type Transactor interface {
	Executor

	// Transact commits when fn returns nil and rolls back otherwise.
	Transact(ctx context.Context, fn TxFunc) error
}
