package sqlshift_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corvid-labs/sqlshift"
	"github.com/corvid-labs/sqlshift/internal/dbx"
)

func TestAutoMigrate_AddColumnAndVerify(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(ctx, `CREATE TABLE student(id integer NOT NULL, name text NOT NULL)`)
	require.NoError(t, err)

	expected, err := sqlshift.ParseFile("schema.sql",
		`CREATE TABLE student(id integer NOT NULL, name text NOT NULL, age integer NOT NULL)`)
	require.NoError(t, err)

	require.NoError(t, sqlshift.AutoMigrate(ctx, db, expected))
	require.NoError(t, sqlshift.Verify(ctx, db, expected))

	var cols []struct {
		Name string `db:"name"`
	}
	require.NoError(t, db.Select(ctx, &cols, `SELECT name FROM pragma_table_info('student')`))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	require.ElementsMatch(t, []string{"id", "name", "age"}, names)
}

func TestSchemaHash_NormalizesLineEndings(t *testing.T) {
	lf := sqlshift.SchemaHash("CREATE TABLE t(id integer);\n")
	crlf := sqlshift.SchemaHash("CREATE TABLE t(id integer);\r\n")
	require.Equal(t, lf, crlf)
	require.Len(t, lf, 16)
}

func TestVerify_DetectsMismatch(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(ctx, `CREATE TABLE student(id integer NOT NULL)`)
	require.NoError(t, err)

	expected, err := sqlshift.ParseFile("schema.sql",
		`CREATE TABLE student(id integer NOT NULL, name text NOT NULL)`)
	require.NoError(t, err)

	err = sqlshift.Verify(ctx, db, expected)
	require.Error(t, err)
}
