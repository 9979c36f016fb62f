package bulkcopy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift/internal/bulkcopy"
	"github.com/corvid-labs/sqlshift/internal/copyplan"
	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/sqlparse"
)

func openMemDB(t *testing.T, schema string) dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(context.Background(), schema)
	require.NoError(t, err)
	return db
}

func TestCopy_SimpleTableWithFK(t *testing.T) {
	ctx := context.Background()
	schemaSQL := `
CREATE TABLE parent(id integer PRIMARY KEY AUTOINCREMENT, name text NOT NULL);
CREATE TABLE child(id integer PRIMARY KEY AUTOINCREMENT, parent_id integer NOT NULL, FOREIGN KEY(parent_id) REFERENCES parent(id));
`
	oldDB := openMemDB(t, schemaSQL)
	newDB := openMemDB(t, schemaSQL)

	_, err := oldDB.Exec(ctx, `INSERT INTO parent(id, name) VALUES (10, 'acme')`)
	require.NoError(t, err)
	_, err = oldDB.Exec(ctx, `INSERT INTO child(id, parent_id) VALUES (1, 10)`)
	require.NoError(t, err)

	file, err := sqlparse.ParseFile("s.sql", schemaSQL)
	require.NoError(t, err)
	steps, err := copyplan.Build(file, file)
	require.NoError(t, err)

	mappings := bulkcopy.NewIDMappings()
	err = bulkcopy.Copy(ctx, oldDB, newDB, steps, mappings, bulkcopy.Options{})
	require.NoError(t, err)

	var count int
	require.NoError(t, newDB.Get(ctx, &count, `SELECT COUNT(*) FROM parent`))
	require.Equal(t, 1, count)
	require.NoError(t, newDB.Get(ctx, &count, `SELECT COUNT(*) FROM child`))
	require.Equal(t, 1, count)

	var parentID int64
	require.NoError(t, newDB.Get(ctx, &parentID, `SELECT parent_id FROM child`))
	var newParentID int64
	require.NoError(t, newDB.Get(ctx, &newParentID, `SELECT id FROM parent`))
	require.Equal(t, newParentID, parentID)
	require.Equal(t, 2, mappings.Count())
}
