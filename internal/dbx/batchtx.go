package dbx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BatchTx is an explicit-commit transaction handle, adapted from
// tx_wrapper.go (a second, unwired *sqlx.Tx-based Tx implementation
// there). Unlike Tx, it keeps tx_wrapper.go's Commit/Rollback-exposing
// shape, so the caller decides when the transaction ends. No package in
// this module calls BeginBatch; bulk copy writes through DB.Exec.
type BatchTx struct {
	tx *sqlx.Tx
}

func BeginBatch(ctx context.Context, db DB) (*BatchTx, error) {
	sqlxTx, err := db.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &BatchTx{tx: sqlxTx}, nil
}

func (b *BatchTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	r, err := b.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return wrapResult(r), nil
}

func (b *BatchTx) IDExec(ctx context.Context, query string, args ...any) (int64, error) {
	r, err := b.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.LastInsertId()
}

func (b *BatchTx) Get(ctx context.Context, dest any, query string, args ...any) error {
	return b.tx.GetContext(ctx, dest, query, args...)
}

func (b *BatchTx) Select(ctx context.Context, dest any, query string, args ...any) error {
	return b.tx.SelectContext(ctx, dest, query, args...)
}

func (b *BatchTx) SelectIn(ctx context.Context, dest any, query string, args ...any) error {
	q, p, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return b.tx.SelectContext(ctx, dest, b.tx.Rebind(q), p...)
}

func (b *BatchTx) Rebind(query string) string { return b.tx.Rebind(query) }

func (b *BatchTx) Commit() error   { return b.tx.Commit() }
func (b *BatchTx) Rollback() error { return b.tx.Rollback() }
