package dbx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Tx is a transaction-scoped Handle. Commit/Rollback are not exposed here —
// the enclosing transaction() call manages them, so sqlxTx has no
// Commit/Rollback methods either.
type Tx interface {
	Handle
	MustExec(ctx context.Context, query string, args ...any) Result
	MustGet(ctx context.Context, dest any, query string, args ...any)
	MustSelect(ctx context.Context, dest any, query string, args ...any)
}

type sqlxTx struct {
	conn       *sqlx.Conn
	driverName string
}

func (tx *sqlxTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	r, err := tx.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return wrapResult(r), nil
}

func (tx *sqlxTx) MustExec(ctx context.Context, query string, args ...any) Result {
	r, err := tx.Exec(ctx, query, args...)
	if err != nil {
		panic(Error{err})
	}
	return r
}

func (tx *sqlxTx) IDExec(ctx context.Context, query string, args ...any) (int64, error) {
	r, err := tx.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.LastInsertId()
}

func (tx *sqlxTx) AffectedExec(ctx context.Context, query string, args ...any) (int, error) {
	r, err := tx.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := r.RowsAffected()
	return int(n), err
}

func (tx *sqlxTx) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return tx.conn.QueryxContext(ctx, query, args...)
}

func (tx *sqlxTx) QueryRow(ctx context.Context, query string, args ...any) *sqlx.Row {
	return tx.conn.QueryRowxContext(ctx, query, args...)
}

func (tx *sqlxTx) Get(ctx context.Context, dest any, query string, args ...any) error {
	return tx.conn.GetContext(ctx, dest, query, args...)
}

func (tx *sqlxTx) MustGet(ctx context.Context, dest any, query string, args ...any) {
	if err := tx.Get(ctx, dest, query, args...); err != nil {
		panic(Error{err})
	}
}

func (tx *sqlxTx) GetIn(ctx context.Context, dest any, query string, args ...any) error {
	q, p, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return tx.conn.GetContext(ctx, dest, tx.conn.Rebind(q), p...)
}

func (tx *sqlxTx) Select(ctx context.Context, dest any, query string, args ...any) error {
	return tx.conn.SelectContext(ctx, dest, query, args...)
}

func (tx *sqlxTx) MustSelect(ctx context.Context, dest any, query string, args ...any) {
	if err := tx.Select(ctx, dest, query, args...); err != nil {
		panic(Error{err})
	}
}

func (tx *sqlxTx) SelectIn(ctx context.Context, dest any, query string, args ...any) error {
	q, p, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return tx.conn.SelectContext(ctx, dest, tx.conn.Rebind(q), p...)
}

func (tx *sqlxTx) SelectSeq(ctx context.Context, query string, args ...any) *RowsSeq {
	rows, err := tx.conn.QueryxContext(ctx, query, args...)
	return &RowsSeq{rows: rows, err: err}
}

func (tx *sqlxTx) Rebind(query string) string { return tx.conn.Rebind(query) }

func (tx *sqlxTx) DriverName() string { return tx.driverName }
