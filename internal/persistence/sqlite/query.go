package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/mark1russell7/docker-sqlite/internal/persistence"
)

// queryer is the sqlx surface shared by *sqlx.Conn and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// executor implements persistence.Executor over a connection or transaction.
type executor struct {
	q queryer
}

// Query executes a query and returns column names and keyed rows.
func (e executor) Query(ctx context.Context, query string, args ...any) (*persistence.Result, error) {
	if err := checkParams(args); err != nil {
		return nil, err
	}

	rows, err := e.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &persistence.Result{Columns: columns, Rows: []persistence.Row{}}
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, persistence.Row(row))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Exec executes a statement that doesn't return rows
func (e executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := checkParams(args); err != nil {
		return 0, err
	}

	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// ExecScript executes every statement of script in order and stops at the
// first failure.
func (e executor) ExecScript(ctx context.Context, script string) error {
	_, err := e.q.ExecContext(ctx, script)
	return err
}

// Select executes a query and scans all rows into dest
func (e executor) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := checkParams(args); err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, e.q, dest, query, args...)
}

// Get executes a query and scans a single row into dest
func (e executor) Get(ctx context.Context, dest any, query string, args ...any) error {
	if err := checkParams(args); err != nil {
		return err
	}
	return sqlx.GetContext(ctx, e.q, dest, query, args...)
}

// Tx is an Executor bound to an open transaction. It is only valid inside
// the function passed to DB.Transact.
type Tx struct {
	executor
}

var _ persistence.Executor = (*Tx)(nil)

// Select runs query and scans every row into a slice of T. T is either a
// struct with `db` tags or a scalar for single-column results.
func Select[T any](ctx context.Context, e persistence.Executor, query string, args ...any) ([]T, error) {
	var out []T
	if err := e.Select(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Get runs query and scans the first row into a T. It returns
// persistence.ErrNotFound when the query yields no rows.
func Get[T any](ctx context.Context, e persistence.Executor, query string, args ...any) (T, error) {
	var out T
	if err := e.Get(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, persistence.ErrNotFound
		}
		return out, err
	}
	return out, nil
}

// TableExists reports whether a table called name exists.
func TableExists(ctx context.Context, e persistence.Executor, name string) (bool, error) {
	count, err := Get[int](ctx, e, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// checkParams rejects bound values outside text, number, binary, and null.
func checkParams(args []any) error {
	for i, arg := range args {
		switch arg.(type) {
		case nil, string, []byte, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return newParamError(i, arg)
		}
	}
	return nil
}
