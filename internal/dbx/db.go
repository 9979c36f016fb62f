package dbx

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/jmoiron/sqlx"
)

// DB is the top-level connection handle: every method threads a
// context.Context (sqlxDB mixes context and non-context variants of each
// method; here there is exactly one).
type DB interface {
	Handle
	SQLX() *sqlx.DB
	Prepare(query string) (*sqlx.Stmt, error)
	BindNamed(query string, arg any) (string, []any, error)
	Close() error

	Tx(ctx context.Context, fn func(tx Tx) error) error
	TxImm(ctx context.Context, fn func(tx Tx) error) error
}

func Wrap(db *sqlx.DB) DB {
	return &sqlxDB{db: db}
}

func Open(driverName, dataSourceName string) (DB, error) {
	db, err := sqlx.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	mapper := defaultMapper.Load()
	if mapper != nil {
		db.MapperFunc(*mapper)
	}
	return &sqlxDB{db: db}, nil
}

func SetDefaultMapper(mapper func(string) string) {
	defaultMapper.Store(&mapper)
}

func init() {
	defaultMapper.Store(&snakeCaseMapper)
}

var defaultMapper atomic.Pointer[func(string) string]

// SnakeCase converts a Go struct field name to its snake_case column name,
// handling both acronym boundaries (HTTPCode -> http_code) and trailing
// acronyms (AccountID -> account_id). Exported so internal/sqlreflect's
// struct reflection agrees with sqlx's default column naming without
// needing a second implementation.
func SnakeCase(s string) string {
	runes := []rune(s)
	var buf strings.Builder
	buf.Grow(len(s) + 3)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			prevUpperNextLower := i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || prevUpperNextLower) {
				buf.WriteByte('_')
			}
			buf.WriteRune(unicode.ToLower(r))
		} else {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

var snakeCaseMapper = SnakeCase

type sqlxDB struct {
	db *sqlx.DB
}

func (s *sqlxDB) SQLX() *sqlx.DB { return s.db }

func (s *sqlxDB) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	r, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return wrapResult(r), nil
}

func (s *sqlxDB) IDExec(ctx context.Context, query string, args ...any) (int64, error) {
	r, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.LastInsertId()
}

func (s *sqlxDB) AffectedExec(ctx context.Context, query string, args ...any) (int, error) {
	r, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := r.RowsAffected()
	return int(n), err
}

func (s *sqlxDB) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return s.db.QueryxContext(ctx, query, args...)
}

func (s *sqlxDB) QueryRow(ctx context.Context, query string, args ...any) *sqlx.Row {
	return s.db.QueryRowxContext(ctx, query, args...)
}

func (s *sqlxDB) Prepare(query string) (*sqlx.Stmt, error) {
	return s.db.Preparex(query)
}

func (s *sqlxDB) Rebind(query string) string { return s.db.Rebind(query) }

func (s *sqlxDB) DriverName() string { return s.db.DriverName() }

func (s *sqlxDB) BindNamed(query string, arg any) (string, []any, error) {
	return s.db.BindNamed(query, arg)
}

func (s *sqlxDB) Get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, query, args...)
}

func (s *sqlxDB) GetIn(ctx context.Context, dest any, query string, args ...any) error {
	q, p, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return s.db.GetContext(ctx, dest, s.db.Rebind(q), p...)
}

func (s *sqlxDB) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, query, args...)
}

func (s *sqlxDB) SelectIn(ctx context.Context, dest any, query string, args ...any) error {
	q, p, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), p...)
}

func (s *sqlxDB) SelectSeq(ctx context.Context, query string, args ...any) *RowsSeq {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	return &RowsSeq{rows: rows, err: err}
}

func (s *sqlxDB) Close() error { return s.db.Close() }

func (s *sqlxDB) Tx(ctx context.Context, fn func(tx Tx) error) error {
	return transaction(ctx, s.db, false, fn)
}

func (s *sqlxDB) TxImm(ctx context.Context, fn func(tx Tx) error) error {
	return transaction(ctx, s.db, true, fn)
}
