package drain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift/internal/bulkcopy"
	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/drain"
	"github.com/corvid-labs/sqlshift/internal/migrationlog"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

const schemaSQL = `
CREATE TABLE account(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL);
CREATE TABLE invoice(id integer PRIMARY KEY AUTOINCREMENT, account_id integer NOT NULL, amount integer NOT NULL, FOREIGN KEY(account_id) REFERENCES account(id));
`

func openMemDB(t *testing.T) dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(context.Background(), schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec(context.Background(), `CREATE TABLE _id_mapping(table_name TEXT, old_id INTEGER, new_id INTEGER, PRIMARY KEY(table_name, old_id))`)
	require.NoError(t, err)
	return db
}

func TestReplay_InsertWithFKRemap(t *testing.T) {
	ctx := context.Background()
	newDB := openMemDB(t)

	file, err := sqlparse.ParseFile("s.sql", schemaSQL)
	require.NoError(t, err)
	steps, err := copyplan.Build(file, file)
	require.NoError(t, err)

	mappings := bulkcopy.NewIDMappings()
	mappings.Set("account", "i:10", []any{int64(1)})
	_, err = newDB.Exec(ctx, `INSERT INTO account(id, name) VALUES (1, 'acme')`)
	require.NoError(t, err)

	entries := []drain.LogEntry{
		{ID: 1, TxnID: 1, Ordering: 1, Operation: migrationlog.OpInsert, Table: "invoice",
			RowData: map[string]any{"id": int64(5), "account_id": int64(10), "amount": int64(99)}},
	}

	last, err := drain.Replay(ctx, newDB, steps, mappings, entries)
	require.NoError(t, err)
	require.Equal(t, int64(1), last)

	var accountID int64
	require.NoError(t, newDB.Get(ctx, &accountID, `SELECT account_id FROM invoice`))
	require.Equal(t, int64(1), accountID)
}
