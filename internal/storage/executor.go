// internal/storage/executor.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Annany2002/nebula-query-gateway/internal/core"
	"github.com/Annany2002/nebula-query-gateway/internal/domain"
	"github.com/Annany2002/nebula-query-gateway/internal/logger"
)

var (
	ErrDatabase = errors.New("database error")
	customLog   = logger.NewLogger()
)

// DatabaseError carries a driver failure. It matches both ErrDatabase and
// the underlying driver error with errors.Is / errors.As.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDatabase.Error(), e.Err)
}

func (e *DatabaseError) Unwrap() []error {
	return []error{ErrDatabase, e.Err}
}

func dbError(op string, err error) error {
	customLog.Warnf("Storage: %s failed: %v", op, err)
	return &DatabaseError{Op: op, Err: err}
}

// Opener opens a database handle for a single request.
// The executor closes the handle before Execute returns.
type Opener func(ctx context.Context, params domain.ConnParams) (*sql.DB, error)

// Executor runs one caller-supplied statement per call on a connection it
// opens and tears down itself. It keeps no state between calls.
type Executor struct {
	open Opener
}

// NewExecutor creates an Executor using open as its connection factory.
func NewExecutor(open Opener) *Executor {
	return &Executor{open: open}
}

// Execute runs req.SQL verbatim. SELECT statements return every row;
// anything else runs in a transaction that is committed, returning the
// rows-affected count.
func (e *Executor) Execute(ctx context.Context, req domain.QueryRequest) (result domain.QueryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			customLog.Errorf("Storage: recovered panic while executing query: %v", r)
			err = fmt.Errorf("%w: %v", core.ErrInternal, r)
		}
	}()

	params := req.ConnParams()
	customLog.Debugf("Storage: Opening connection to %s/%s as %s", params.Addr(), params.Database, params.User)

	db, err := e.open(ctx, params)
	if err != nil {
		return result, dbError("connect", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			customLog.Warnf("Storage: Error closing database handle for %s: %v", params.Addr(), cerr)
		}
	}()
	singleConn(db)

	conn, err := db.Conn(ctx)
	if err != nil {
		return result, dbError("connect", err)
	}
	defer conn.Close()

	if core.IsSelect(req.SQL) {
		rows, err := fetchRows(ctx, conn, req.SQL)
		if err != nil {
			return result, err
		}
		return domain.NewRowSetResult(rows), nil
	}

	n, err := execAndCommit(ctx, conn, req.SQL)
	if err != nil {
		return result, err
	}
	return domain.NewRowsAffectedResult(n), nil
}

// singleConn caps db at one connection and keeps it idle between uses, so
// a connection dialed by the opener's ping is the one the statement runs on.
func singleConn(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
}

func fetchRows(ctx context.Context, conn *sql.Conn, query string) ([]domain.Row, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, dbError("read columns", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, dbError("read column types", err)
	}

	results := make([]domain.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, dbError("scan", err)
		}

		row := domain.Row{
			Columns: make([]string, 0, len(columns)),
			Values:  make([]any, 0, len(columns)),
		}
		for i, col := range columns {
			v, err := convertValue(columnTypes[i].DatabaseTypeName(), values[i])
			if err != nil {
				customLog.Errorf("Storage: Failed converting column '%s': %v", col, err)
				return nil, fmt.Errorf("%w: column '%s': %v", core.ErrInternal, col, err)
			}
			row.Set(col, v)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate rows", err)
	}
	return results, nil
}

func execAndCommit(ctx context.Context, conn *sql.Conn, statement string) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, dbError("begin", err)
	}
	// No-op once Commit has succeeded.
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			customLog.Warnf("Storage: Rollback failed: %v", rerr)
		}
	}()

	res, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return 0, dbError("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError("rows affected", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, dbError("commit", err)
	}
	return n, nil
}
