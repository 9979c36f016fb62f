package dbx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Handle is the surface shared by DB and Tx. sqler.go's Sqler and
// handle.go's Handle once defined this twice, each with its own duplicate
// Mustv/Must helpers — here it is declared once; Sqler is folded in since
// its surface is a strict subset.
type Handle interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	IDExec(ctx context.Context, query string, args ...any) (int64, error)
	AffectedExec(ctx context.Context, query string, args ...any) (int, error)
	Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sqlx.Row
	Get(ctx context.Context, dest any, query string, args ...any) error
	GetIn(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	SelectIn(ctx context.Context, dest any, query string, args ...any) error
	SelectSeq(ctx context.Context, query string, args ...any) *RowsSeq
	Rebind(query string) string
	DriverName() string
}

// Mustv panics with Error{err} if err is non-nil, otherwise returns value.
func Mustv[T any](value T, err error) T {
	if err != nil {
		panic(Error{err})
	}
	return value
}

// Must panics with Error{err} if err is non-nil.
func Must(err error) {
	if err != nil {
		panic(Error{err})
	}
}
