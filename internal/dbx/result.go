// Package dbx is the execution driver: it opens a SQLite
// database, begins transactions with BEGIN/BEGIN IMMEDIATE acquisition, runs
// statements, and surfaces query errors. Adapted from
// db.go/tx.go/tx_wrapper.go/transactions.go/result.go/rows_seq.go, merged
// into one consistent, always-context-threaded API.
package dbx

import "database/sql"

// Result mirrors database/sql.Result with panicking Must variants, exactly
// as sqlt.Result does.
type Result interface {
	LastInsertId() (int64, error)
	LastInsertIdMust() int64
	RowsAffected() (int64, error)
	RowsAffectedMust() int64
}

type result struct{ r sql.Result }

func wrapResult(r sql.Result) Result { return result{r} }

func (r result) LastInsertId() (int64, error) { return r.r.LastInsertId() }

func (r result) LastInsertIdMust() int64 {
	id, err := r.LastInsertId()
	if err != nil {
		panic(Error{err})
	}
	return id
}

func (r result) RowsAffected() (int64, error) { return r.r.RowsAffected() }

func (r result) RowsAffectedMust() int64 {
	n, err := r.RowsAffected()
	if err != nil {
		panic(Error{err})
	}
	return n
}
