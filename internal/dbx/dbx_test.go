package dbx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift/internal/dbx"
)

func openTestDB(t *testing.T) dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_ExecAndSelect(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Exec(ctx, `CREATE TABLE widget(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	id, err := db.IDExec(ctx, `INSERT INTO widget(name) VALUES (?)`, "gizmo")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	var names []string
	require.NoError(t, db.Select(ctx, &names, `SELECT name FROM widget`))
	require.Equal(t, []string{"gizmo"}, names)
}

func TestTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec(ctx, `CREATE TABLE widget(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	err = db.Tx(ctx, func(tx dbx.Tx) error {
		_, execErr := tx.Exec(ctx, `INSERT INTO widget(name) VALUES ('a')`)
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(ctx, &count, `SELECT COUNT(*) FROM widget`))
	require.Equal(t, 1, count)
}

func TestTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec(ctx, `CREATE TABLE widget(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	sentinel := errors.New("boom")
	err = db.Tx(ctx, func(tx dbx.Tx) error {
		_, execErr := tx.Exec(ctx, `INSERT INTO widget(name) VALUES ('a')`)
		require.NoError(t, execErr)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, db.Get(ctx, &count, `SELECT COUNT(*) FROM widget`))
	require.Equal(t, 0, count, "the insert must not be visible after rollback")
}

func TestTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec(ctx, `CREATE TABLE widget(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	err = db.Tx(ctx, func(tx dbx.Tx) error {
		tx.MustExec(ctx, `INSERT INTO widget(name) VALUES ('a')`)
		tx.MustExec(ctx, `INSERT INTO no_such_table(name) VALUES ('b')`)
		return nil
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Get(ctx, &count, `SELECT COUNT(*) FROM widget`))
	require.Equal(t, 0, count)
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Name":      "name",
		"HTTPCode":  "http_code",
		"AccountID": "account_id",
		"ID":        "id",
	}
	for in, want := range cases {
		require.Equal(t, want, dbx.SnakeCase(in), "input %q", in)
	}
}

func TestSelectIn(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec(ctx, `CREATE TABLE widget(id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO widget(id, name) VALUES (1, 'a'), (2, 'b'), (3, 'c')`)
	require.NoError(t, err)

	var names []string
	require.NoError(t, db.SelectIn(ctx, &names, `SELECT name FROM widget WHERE id IN (?) ORDER BY id`, []int{1, 3}))
	require.Equal(t, []string{"a", "c"}, names)
}
